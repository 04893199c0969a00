package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/hotel/repository"
	mongodb "staybook/pkg/db/mongo"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/lock"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

// LockService owns room allocation. All confirms for one room are serialized
// through an in-process keyed mutex, held across the overlap check and the
// lock insert but never across network I/O. That works because a single
// instance owns the room_locks collection; the unique request_id index backs
// it up if that assumption ever breaks.
type LockService struct {
	locks     repository.RoomLockRepository
	rooms     repository.RoomRepository
	tx        mongodb.TransactionManager
	roomLocks *lock.KeyedMutex
	validate  *validator.Validate
	log       *logger.Logger
}

func NewLockService(
	locks repository.RoomLockRepository,
	rooms repository.RoomRepository,
	tx mongodb.TransactionManager,
	log *logger.Logger,
) *LockService {
	return &LockService{
		locks:     locks,
		rooms:     rooms,
		tx:        tx,
		roomLocks: lock.NewKeyedMutex(),
		validate:  validator.New(),
		log:       log,
	}
}

// Confirm atomically checks the room for an overlapping LOCKED range and
// inserts a new lock. Repeating a confirm with the same request id returns
// the original outcome instead of allocating twice.
func (s *LockService) Confirm(ctx context.Context, roomID string, req *model.AvailabilityRequest) (*model.RoomLockResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	unlock := s.roomLocks.Lock(roomID)
	defer unlock()

	existing, err := s.locks.FindByRequestID(ctx, req.RequestID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to look up lock", err)
	}
	if existing != nil {
		return s.resolveExistingConfirm(roomID, existing)
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("room")
		}
		return nil, apperrors.Internal("failed to look up room", err)
	}
	if !room.Available {
		return nil, apperrors.Conflict("room is not available for booking")
	}

	overlaps, err := s.locks.ExistsOverlappingLock(ctx, roomID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, apperrors.Internal("failed to check room availability", err)
	}
	if overlaps {
		return nil, apperrors.Conflict("room is already booked for the requested dates")
	}

	newLock := &model.RoomLock{
		RoomID:    roomID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		RequestID: req.RequestID,
		BookingID: req.BookingID,
		Status:    model.LockLocked,
		CreatedAt: now(),
	}

	err = s.tx.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.locks.Insert(sessCtx, newLock); err != nil {
			return err
		}
		return s.rooms.IncrementTimesBooked(sessCtx, roomID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			return s.replayByRequestID(ctx, roomID, req.RequestID)
		}
		return nil, apperrors.Internal("failed to lock room", err)
	}

	s.log.Info("Room locked",
		"room_id", roomID,
		"booking_id", req.BookingID,
		"request_id", req.RequestID,
		"start_date", req.StartDate,
		"end_date", req.EndDate,
	)

	return &model.RoomLockResponse{
		RoomID:    roomID,
		BookingID: req.BookingID,
		Status:    model.LockLocked,
	}, nil
}

// Release is always safe to repeat. It resolves, in order: the exact request
// id, then any LOCKED rows of the booking on this room. When nothing exists
// yet it inserts a RELEASED marker so a confirm that lost the race and
// arrives later with the same request id cannot resurrect the allocation.
func (s *LockService) Release(ctx context.Context, roomID string, req *model.AvailabilityRequest) (*model.RoomLockResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	unlock := s.roomLocks.Lock(roomID)
	defer unlock()

	released := &model.RoomLockResponse{
		RoomID:    roomID,
		BookingID: req.BookingID,
		Status:    model.LockReleased,
	}

	existing, err := s.locks.FindByRequestID(ctx, req.RequestID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to look up lock", err)
	}
	if existing != nil {
		if existing.Status == model.LockLocked {
			if err := s.locks.UpdateStatus(ctx, existing.ID, model.LockReleased); err != nil {
				return nil, apperrors.Internal("failed to release lock", err)
			}
			s.log.Info("Room lock released", "room_id", roomID, "request_id", req.RequestID)
		}
		return released, nil
	}

	byBooking, err := s.locks.FindLockedByBooking(ctx, roomID, req.BookingID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up booking locks", err)
	}
	if len(byBooking) > 0 {
		for _, l := range byBooking {
			if err := s.locks.UpdateStatus(ctx, l.ID, model.LockReleased); err != nil {
				return nil, apperrors.Internal("failed to release lock", err)
			}
		}
		s.log.Info("Room locks released",
			"room_id", roomID,
			"booking_id", req.BookingID,
			"count", len(byBooking),
		)
		return released, nil
	}

	marker := &model.RoomLock{
		RoomID:    roomID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		RequestID: req.RequestID,
		BookingID: req.BookingID,
		Status:    model.LockReleased,
		CreatedAt: now(),
	}
	if err := s.locks.Insert(ctx, marker); err != nil && !errors.Is(err, repository.ErrDuplicateRequest) {
		return nil, apperrors.Internal("failed to record release", err)
	}

	s.log.Info("Release marker recorded",
		"room_id", roomID,
		"booking_id", req.BookingID,
		"request_id", req.RequestID,
	)
	return released, nil
}

func (s *LockService) resolveExistingConfirm(roomID string, existing *model.RoomLock) (*model.RoomLockResponse, error) {
	if existing.Status == model.LockReleased {
		return nil, apperrors.Conflict("lock was already released")
	}
	if existing.RoomID != roomID {
		return nil, apperrors.Conflict("request id already used for another room")
	}
	return &model.RoomLockResponse{
		RoomID:    existing.RoomID,
		BookingID: existing.BookingID,
		Status:    existing.Status,
	}, nil
}

func (s *LockService) replayByRequestID(ctx context.Context, roomID, requestID string) (*model.RoomLockResponse, error) {
	existing, err := s.locks.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve duplicate request", err)
	}
	return s.resolveExistingConfirm(roomID, existing)
}

func (s *LockService) validateRequest(req *model.AvailabilityRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("Invalid availability request", validationDetails(err))
	}
	if !model.DateRangeValid(req.StartDate, req.EndDate) {
		return apperrors.InvalidInput("start_date must not be after end_date")
	}
	return nil
}
