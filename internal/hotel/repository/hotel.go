package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"staybook/pkg/model"
)

const hotelsCollection = "hotels"

type HotelRepository interface {
	Insert(ctx context.Context, hotel *model.Hotel) error
	FindByID(ctx context.Context, id string) (*model.Hotel, error)
	FindAll(ctx context.Context) ([]model.Hotel, error)
}

type hotelRepository struct {
	collection *mongo.Collection
}

func NewHotelRepository(client *mongo.Client, dbName string) HotelRepository {
	return &hotelRepository{
		collection: client.Database(dbName).Collection(hotelsCollection),
	}
}

func (r *hotelRepository) Insert(ctx context.Context, hotel *model.Hotel) error {
	if hotel.ID == "" {
		hotel.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, hotel)
	return err
}

func (r *hotelRepository) FindByID(ctx context.Context, id string) (*model.Hotel, error) {
	var hotel model.Hotel
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&hotel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &hotel, nil
}

func (r *hotelRepository) FindAll(ctx context.Context) ([]model.Hotel, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var hotels []model.Hotel
	if err := cursor.All(ctx, &hotels); err != nil {
		return nil, err
	}
	return hotels, nil
}
