package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staybook/pkg/model"
)

// ErrNotFound is returned when a lookup matches no document. Services
// translate it to the API-level error.
var ErrNotFound = errors.New("document not found")

const roomsCollection = "rooms"

type RoomRepository interface {
	Insert(ctx context.Context, room *model.Room) error
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindByHotelID(ctx context.Context, hotelID string) ([]model.Room, error)
	FindAll(ctx context.Context) ([]model.Room, error)
	IncrementTimesBooked(ctx context.Context, id string) error
	FindAvailableExcluding(ctx context.Context, excludedIDs []string) ([]model.Room, error)
	EnsureIndexes(ctx context.Context) error
}

type roomRepository struct {
	collection *mongo.Collection
}

func NewRoomRepository(client *mongo.Client, dbName string) RoomRepository {
	return &roomRepository{
		collection: client.Database(dbName).Collection(roomsCollection),
	}
}

func (r *roomRepository) Insert(ctx context.Context, room *model.Room) error {
	if room.ID == "" {
		room.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, room)
	return err
}

func (r *roomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) FindByHotelID(ctx context.Context, hotelID string) ([]model.Room, error) {
	return r.find(ctx, bson.M{"hotel_id": hotelID}, nil)
}

func (r *roomRepository) FindAll(ctx context.Context) ([]model.Room, error) {
	return r.find(ctx, bson.M{}, nil)
}

// IncrementTimesBooked runs inside the confirm transaction so the counter
// moves only when the lock insert commits.
func (r *roomRepository) IncrementTimesBooked(ctx context.Context, id string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"times_booked": 1}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAvailableExcluding returns available rooms not in excludedIDs, least
// booked first with id as the tiebreaker so the ordering is deterministic.
func (r *roomRepository) FindAvailableExcluding(ctx context.Context, excludedIDs []string) ([]model.Room, error) {
	filter := bson.M{"available": true}
	if len(excludedIDs) > 0 {
		filter["_id"] = bson.M{"$nin": excludedIDs}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "times_booked", Value: 1},
		{Key: "_id", Value: 1},
	})
	return r.find(ctx, filter, opts)
}

func (r *roomRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Room, error) {
	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.collection.Find(ctx, filter, opts)
	} else {
		cursor, err = r.collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "hotel_id", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().
				SetName("hotel_number_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "available", Value: 1}, {Key: "times_booked", Value: 1}},
			Options: options.Index().SetName("available_times_booked"),
		},
	})
	return err
}
