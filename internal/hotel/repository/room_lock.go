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

// ErrDuplicateRequest is returned when an insert collides on the unique
// request_id index. The caller re-reads and resolves idempotently.
var ErrDuplicateRequest = errors.New("duplicate request id")

const roomLocksCollection = "room_locks"

type RoomLockRepository interface {
	Insert(ctx context.Context, lock *model.RoomLock) error
	FindByRequestID(ctx context.Context, requestID string) (*model.RoomLock, error)
	FindLockedByBooking(ctx context.Context, roomID, bookingID string) ([]model.RoomLock, error)
	ExistsOverlappingLock(ctx context.Context, roomID, startDate, endDate string) (bool, error)
	LockedRoomIDs(ctx context.Context, startDate, endDate string) ([]string, error)
	UpdateStatus(ctx context.Context, id, status string) error
	EnsureIndexes(ctx context.Context) error
}

type roomLockRepository struct {
	collection *mongo.Collection
}

func NewRoomLockRepository(client *mongo.Client, dbName string) RoomLockRepository {
	return &roomLockRepository{
		collection: client.Database(dbName).Collection(roomLocksCollection),
	}
}

func (r *roomLockRepository) Insert(ctx context.Context, lock *model.RoomLock) error {
	if lock.ID == "" {
		lock.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.collection.InsertOne(ctx, lock)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateRequest
	}
	return err
}

func (r *roomLockRepository) FindByRequestID(ctx context.Context, requestID string) (*model.RoomLock, error) {
	var lock model.RoomLock
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lock, nil
}

func (r *roomLockRepository) FindLockedByBooking(ctx context.Context, roomID, bookingID string) ([]model.RoomLock, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"room_id":    roomID,
		"booking_id": bookingID,
		"status":     model.LockLocked,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var locks []model.RoomLock
	if err := cursor.All(ctx, &locks); err != nil {
		return nil, err
	}
	return locks, nil
}

// ExistsOverlappingLock reports whether any LOCKED range on the room touches
// [startDate, endDate]. Dates are ISO strings so the range comparison is
// plain lexicographic.
func (r *roomLockRepository) ExistsOverlappingLock(ctx context.Context, roomID, startDate, endDate string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"room_id":    roomID,
		"status":     model.LockLocked,
		"start_date": bson.M{"$lte": endDate},
		"end_date":   bson.M{"$gte": startDate},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LockedRoomIDs returns the ids of rooms holding a LOCKED range overlapping
// [startDate, endDate]. Used to filter recommendations.
func (r *roomLockRepository) LockedRoomIDs(ctx context.Context, startDate, endDate string) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "room_id", bson.M{
		"status":     model.LockLocked,
		"start_date": bson.M{"$lte": endDate},
		"end_date":   bson.M{"$gte": startDate},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *roomLockRepository) UpdateStatus(ctx context.Context, id, status string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *roomLockRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().
				SetName("request_id_unique").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "status", Value: 1}, {Key: "start_date", Value: 1}},
			Options: options.Index().SetName("room_status_dates"),
		},
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("booking_status"),
		},
	})
	return err
}
