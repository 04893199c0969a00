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

var (
	ErrNotFound = errors.New("booking not found")

	// ErrDuplicateRequest signals a request_id collision on insert. The
	// caller re-reads and returns the existing booking.
	ErrDuplicateRequest = errors.New("duplicate request id")
)

const bookingsCollection = "bookings"

type BookingRepository interface {
	Insert(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByRequestID(ctx context.Context, requestID string) (*model.Booking, error)
	FindByUserID(ctx context.Context, userID string) ([]model.Booking, error)
	MarkConfirmed(ctx context.Context, id, roomID string) error
	MarkCancelled(ctx context.Context, id, reason string) error
	EnsureIndexes(ctx context.Context) error
}

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(client *mongo.Client, dbName string) BookingRepository {
	return &bookingRepository{
		collection: client.Database(dbName).Collection(bookingsCollection),
	}
}

func (r *bookingRepository) Insert(ctx context.Context, booking *model.Booking) error {
	if booking.ID == "" {
		booking.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, booking)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateRequest
	}
	return err
}

func (r *bookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *bookingRepository) FindByRequestID(ctx context.Context, requestID string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"request_id": requestID})
}

func (r *bookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID string) ([]model.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []model.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) MarkConfirmed(ctx context.Context, id, roomID string) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{
			"status":  model.BookingConfirmed,
			"room_id": roomID,
		},
		"$unset": bson.M{"failure_reason": ""},
	})
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, id, reason string) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{
			"status":         model.BookingCancelled,
			"failure_reason": reason,
		},
	})
}

func (r *bookingRepository) update(ctx context.Context, id string, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().
				SetName("request_id_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		},
	})
	return err
}
