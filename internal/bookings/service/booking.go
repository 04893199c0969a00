package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"staybook/internal/bookings/repository"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/events"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

// maxAutoSelectAttempts caps how many recommended rooms one auto-select
// booking will try before giving up with a conflict.
const maxAutoSelectAttempts = 5

// HotelGateway is the outbound surface of the saga. The client behind it owns
// retries and failure classification; by the time an error reaches this
// service it is final for that attempt.
type HotelGateway interface {
	ConfirmAvailability(ctx context.Context, roomID string, req *model.AvailabilityRequest) (*model.RoomLockResponse, error)
	Release(ctx context.Context, roomID string, req *model.AvailabilityRequest) (*model.RoomLockResponse, error)
	RecommendRooms(ctx context.Context, startDate, endDate string) ([]model.RoomSummary, error)
}

// EventPublisher emits audit events. Delivery failures never affect the saga.
type EventPublisher interface {
	Publish(ctx context.Context, event events.BookingEvent)
}

// BookingService orchestrates the booking saga: record intent locally,
// confirm the room with the hotel service, then settle the local record. A
// remote failure after an ambiguous confirm is compensated with a release
// carrying the same correlation key, so a confirm that landed late cannot
// hold the room.
type BookingService struct {
	bookings  repository.BookingRepository
	hotel     HotelGateway
	publisher EventPublisher
	validate  *validator.Validate
	log       *logger.Logger
}

func NewBookingService(
	bookings repository.BookingRepository,
	hotel HotelGateway,
	publisher EventPublisher,
	log *logger.Logger,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		hotel:     hotel,
		publisher: publisher,
		validate:  validator.New(),
		log:       log,
	}
}

// Create runs the saga for one booking request. Resubmitting the same
// request_id returns the stored outcome without touching the hotel service
// again.
func (s *BookingService) Create(ctx context.Context, userID string, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.bookings.FindByRequestID(ctx, req.RequestID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	if existing != nil {
		return s.replayOutcome(userID, existing)
	}

	// Auto-select fetches candidates before anything is persisted: an empty
	// list means there is nothing to book, so no row is written at all.
	var candidates []model.RoomSummary
	if req.AutoSelect {
		candidates, err = s.hotel.RecommendRooms(ctx, req.StartDate, req.EndDate)
		if err != nil {
			return nil, apperrors.AsAppError(err)
		}
		if len(candidates) == 0 {
			return nil, apperrors.Conflict("no room available for the requested dates")
		}
	}

	booking := &model.Booking{
		UserID:    userID,
		RoomID:    req.RoomID,
		RequestID: req.RequestID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    model.BookingPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.bookings.Insert(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateRequest) {
			// Lost the insert race to a concurrent submission of the
			// same request; the winner's row is the outcome.
			return s.replayByRequestID(ctx, userID, req.RequestID)
		}
		return nil, apperrors.Internal("failed to create booking", err)
	}

	s.publish(ctx, events.TypeBookingCreated, booking)

	if req.AutoSelect {
		return s.confirmAutoSelect(ctx, booking, candidates)
	}
	return s.confirmRoom(ctx, booking, req.RoomID)
}

// replayOutcome resolves a repeated request_id to the first submission's
// result. Terminal failures are re-raised so the retry cannot observe a
// different outcome than the original attempt.
func (s *BookingService) replayOutcome(userID string, existing *model.Booking) (*model.Booking, error) {
	if existing.UserID != userID {
		// Another user's request id reads as missing, same as findOwned.
		return nil, apperrors.NotFound("booking")
	}

	s.log.Info("Booking request replayed",
		"booking_id", existing.ID,
		"request_id", existing.RequestID,
		"status", existing.Status,
	)

	if existing.Status == model.BookingCancelled {
		switch existing.FailureReason {
		case model.ReasonConflict:
			return nil, apperrors.Conflict("room is already booked for the requested dates")
		case model.ReasonRemoteError:
			return nil, apperrors.Remote("booking failed calling the hotel service", false)
		}
	}
	return existing, nil
}

// confirmRoom settles a manual-selection booking against one room.
func (s *BookingService) confirmRoom(ctx context.Context, booking *model.Booking, roomID string) (*model.Booking, error) {
	attempt := s.newAttempt(booking)

	_, err := s.hotel.ConfirmAvailability(ctx, roomID, attempt)
	if err == nil {
		return s.settleConfirmed(ctx, booking, roomID)
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code == apperrors.CodeConflict {
		return nil, s.settleCancelled(ctx, booking, model.ReasonConflict, appErr)
	}

	// Outcome at the hotel is unknown; neutralize the attempt before
	// giving up.
	s.releaseSilently(ctx, roomID, attempt)
	return nil, s.settleCancelled(ctx, booking, model.ReasonRemoteError, appErr)
}

// confirmAutoSelect walks the recommendation list least-booked first,
// claiming the first room that accepts. Conflicts move on to the next
// candidate; anything else aborts the saga.
func (s *BookingService) confirmAutoSelect(ctx context.Context, booking *model.Booking, candidates []model.RoomSummary) (*model.Booking, error) {
	if len(candidates) > maxAutoSelectAttempts {
		candidates = candidates[:maxAutoSelectAttempts]
	}

	for _, candidate := range candidates {
		attempt := s.newAttempt(booking)

		_, err := s.hotel.ConfirmAvailability(ctx, candidate.ID, attempt)
		if err == nil {
			return s.settleConfirmed(ctx, booking, candidate.ID)
		}

		appErr := apperrors.AsAppError(err)
		if appErr.Code == apperrors.CodeConflict {
			s.log.Info("Auto-select candidate taken, trying next",
				"booking_id", booking.ID,
				"room_id", candidate.ID,
			)
			continue
		}

		s.releaseSilently(ctx, candidate.ID, attempt)
		return nil, s.settleCancelled(ctx, booking, model.ReasonRemoteError, appErr)
	}

	return nil, s.settleCancelled(ctx, booking, model.ReasonConflict,
		apperrors.Conflict("no room available for the requested dates"))
}

// Cancel releases the booking's room best effort and marks it cancelled.
// Cancelling an already cancelled booking is a no-op.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	booking, err := s.findOwned(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.Status == model.BookingCancelled {
		return booking, nil
	}

	if booking.RoomID != "" {
		s.releaseSilently(ctx, booking.RoomID, s.newAttempt(booking))
	}

	if err := s.bookings.MarkCancelled(ctx, booking.ID, model.ReasonUserCancelled); err != nil {
		return nil, apperrors.Internal("failed to cancel booking", err)
	}
	booking.Status = model.BookingCancelled
	booking.FailureReason = model.ReasonUserCancelled

	s.log.Info("Booking cancelled", "booking_id", booking.ID, "user_id", userID)
	s.publish(ctx, events.TypeBookingCancelled, booking)
	return booking, nil
}

func (s *BookingService) GetByID(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	return s.findOwned(ctx, userID, bookingID)
}

func (s *BookingService) ListForUser(ctx context.Context, userID string) ([]model.Booking, error) {
	bookings, err := s.bookings.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) findOwned(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking")
		}
		return nil, apperrors.Internal("failed to look up booking", err)
	}
	// Foreign bookings read as missing so ids cannot be enumerated.
	if booking.UserID != userID {
		return nil, apperrors.NotFound("booking")
	}
	return booking, nil
}

// newAttempt builds the RPC payload for one confirm or release attempt. The
// correlation key is fresh per attempt; transport-level retries inside the
// client reuse it, so the hotel service deduplicates them.
func (s *BookingService) newAttempt(booking *model.Booking) *model.AvailabilityRequest {
	return &model.AvailabilityRequest{
		StartDate: booking.StartDate,
		EndDate:   booking.EndDate,
		RequestID: uuid.NewString(),
		BookingID: booking.ID,
	}
}

func (s *BookingService) settleConfirmed(ctx context.Context, booking *model.Booking, roomID string) (*model.Booking, error) {
	if err := s.bookings.MarkConfirmed(ctx, booking.ID, roomID); err != nil {
		return nil, apperrors.Internal("failed to confirm booking", err)
	}
	booking.Status = model.BookingConfirmed
	booking.RoomID = roomID
	booking.FailureReason = ""

	s.log.Info("Booking confirmed",
		"booking_id", booking.ID,
		"room_id", roomID,
		"start_date", booking.StartDate,
		"end_date", booking.EndDate,
	)
	s.publish(ctx, events.TypeBookingConfirmed, booking)
	return booking, nil
}

// settleCancelled records the failure and returns the caller-facing error.
// The booking row survives as the audit trail of the failed saga.
func (s *BookingService) settleCancelled(ctx context.Context, booking *model.Booking, reason string, cause *apperrors.AppError) error {
	if err := s.bookings.MarkCancelled(ctx, booking.ID, reason); err != nil {
		s.log.Error("Failed to mark booking cancelled",
			"booking_id", booking.ID,
			"reason", reason,
			"error", err,
		)
	}
	booking.Status = model.BookingCancelled
	booking.FailureReason = reason

	s.log.Warn("Booking cancelled",
		"booking_id", booking.ID,
		"reason", reason,
		"cause", cause.Message,
	)
	s.publish(ctx, events.TypeBookingCancelled, booking)
	return cause
}

// releaseSilently is the compensation step: best effort, logged, never
// surfaced. A lost release leaves an orphaned lock, which is preferable to
// failing the cancellation itself.
func (s *BookingService) releaseSilently(ctx context.Context, roomID string, attempt *model.AvailabilityRequest) {
	if _, err := s.hotel.Release(ctx, roomID, attempt); err != nil {
		s.log.Error("Compensating release failed",
			"booking_id", attempt.BookingID,
			"room_id", roomID,
			"request_id", attempt.RequestID,
			"error", err,
		)
	}
}

func (s *BookingService) replayByRequestID(ctx context.Context, userID, requestID string) (*model.Booking, error) {
	existing, err := s.bookings.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, apperrors.Internal("failed to resolve duplicate booking request", err)
	}
	return s.replayOutcome(userID, existing)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, events.BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		RequestID:     booking.RequestID,
		UserID:        booking.UserID,
		RoomID:        booking.RoomID,
		Status:        booking.Status,
		FailureReason: booking.FailureReason,
		OccurredAt:    time.Now().UTC(),
	})
}

func (s *BookingService) validateRequest(req *model.BookingRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("Invalid booking request", validationDetails(err))
	}
	if !model.DateRangeValid(req.StartDate, req.EndDate) {
		return apperrors.InvalidInput("start_date must not be after end_date")
	}
	if req.AutoSelect == (req.RoomID != "") {
		return apperrors.InvalidInput("provide either room_id or auto_select, not both")
	}
	return nil
}
