package model

import (
	"time"
)

const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

const (
	ReasonConflict      = "CONFLICT"
	ReasonRemoteError   = "REMOTE_ERROR"
	ReasonUserCancelled = "USER_CANCELLED"
)

// Booking is the orchestrator-side record of one logical reservation.
// RequestID is the client-supplied idempotency key; it carries a unique
// index so retried submissions resolve to the same row.
type Booking struct {
	ID            string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string    `json:"user_id" bson:"user_id"`
	RoomID        string    `json:"room_id,omitempty" bson:"room_id,omitempty"`
	RequestID     string    `json:"request_id" bson:"request_id"`
	StartDate     string    `json:"start_date" bson:"start_date"`
	EndDate       string    `json:"end_date" bson:"end_date"`
	Status        string    `json:"status" bson:"status"`
	FailureReason string    `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// BookingRequest is the public create-booking payload. Either RoomID is set
// (manual selection) or AutoSelect is true.
type BookingRequest struct {
	RequestID  string `json:"request_id" validate:"required"`
	RoomID     string `json:"room_id,omitempty"`
	AutoSelect bool   `json:"auto_select,omitempty"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
}
