package model

import (
	"time"
)

const (
	LockLocked   = "LOCKED"
	LockReleased = "RELEASED"
)

// RoomLock is the hotel-side allocation record for a room and date range.
// RequestID is unique: a retried confirm or release with the same key
// resolves to the same row. A RELEASED row with no prior LOCKED row is a
// marker left by an out-of-order release.
type RoomLock struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	RoomID    string    `json:"room_id" bson:"room_id"`
	StartDate string    `json:"start_date" bson:"start_date"`
	EndDate   string    `json:"end_date" bson:"end_date"`
	RequestID string    `json:"request_id" bson:"request_id"`
	BookingID string    `json:"booking_id" bson:"booking_id"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// AvailabilityRequest is the internal RPC payload for confirm and release.
// RequestID here is the per-attempt correlation key, not the booking's own
// idempotency key: retries of one attempt share it, new attempts get a
// fresh one.
type AvailabilityRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	RequestID string `json:"request_id" validate:"required"`
	BookingID string `json:"booking_id" validate:"required"`
}

type RoomLockResponse struct {
	RoomID    string `json:"room_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}
