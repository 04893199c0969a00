package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"

	"staybook/internal/hotel/repository"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

// RoomService covers the catalog: hotels, rooms, and date-aware
// recommendations. Allocation lives in LockService.
type RoomService struct {
	rooms    repository.RoomRepository
	hotels   repository.HotelRepository
	locks    repository.RoomLockRepository
	validate *validator.Validate
	log      *logger.Logger
}

func NewRoomService(
	rooms repository.RoomRepository,
	hotels repository.HotelRepository,
	locks repository.RoomLockRepository,
	log *logger.Logger,
) *RoomService {
	return &RoomService{
		rooms:    rooms,
		hotels:   hotels,
		locks:    locks,
		validate: validator.New(),
		log:      log,
	}
}

func (s *RoomService) CreateHotel(ctx context.Context, req *model.HotelRequest) (*model.Hotel, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("Invalid hotel request", validationDetails(err))
	}

	hotel := &model.Hotel{
		Name:    req.Name,
		Address: req.Address,
	}
	if err := s.hotels.Insert(ctx, hotel); err != nil {
		return nil, apperrors.Internal("failed to create hotel", err)
	}

	s.log.Info("Hotel created", "hotel_id", hotel.ID, "name", hotel.Name)
	return hotel, nil
}

func (s *RoomService) ListHotels(ctx context.Context) ([]model.Hotel, error) {
	hotels, err := s.hotels.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list hotels", err)
	}
	return hotels, nil
}

func (s *RoomService) CreateRoom(ctx context.Context, req *model.RoomRequest) (*model.Room, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("Invalid room request", validationDetails(err))
	}

	if _, err := s.hotels.FindByID(ctx, req.HotelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("hotel")
		}
		return nil, apperrors.Internal("failed to look up hotel", err)
	}

	available := true
	if req.Available != nil {
		available = *req.Available
	}

	room := &model.Room{
		HotelID:   req.HotelID,
		Number:    req.Number,
		Available: available,
	}
	if err := s.rooms.Insert(ctx, room); err != nil {
		return nil, apperrors.Internal("failed to create room", err)
	}

	s.log.Info("Room created", "room_id", room.ID, "hotel_id", room.HotelID, "number", room.Number)
	return room, nil
}

func (s *RoomService) GetRoom(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("room")
		}
		return nil, apperrors.Internal("failed to look up room", err)
	}
	return room, nil
}

func (s *RoomService) ListRooms(ctx context.Context, hotelID string) ([]model.Room, error) {
	var rooms []model.Room
	var err error
	if hotelID != "" {
		rooms, err = s.rooms.FindByHotelID(ctx, hotelID)
	} else {
		rooms, err = s.rooms.FindAll(ctx)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to list rooms", err)
	}
	return rooms, nil
}

// Recommend lists rooms free for the whole range, least booked first so
// allocation spreads across the inventory.
func (s *RoomService) Recommend(ctx context.Context, startDate, endDate string) ([]model.RoomSummary, error) {
	if !model.DateRangeValid(startDate, endDate) {
		return nil, apperrors.InvalidInput("start_date and end_date must be valid dates with start_date <= end_date")
	}

	lockedIDs, err := s.locks.LockedRoomIDs(ctx, startDate, endDate)
	if err != nil {
		return nil, apperrors.Internal("failed to check locked rooms", err)
	}

	rooms, err := s.rooms.FindAvailableExcluding(ctx, lockedIDs)
	if err != nil {
		return nil, apperrors.Internal("failed to list available rooms", err)
	}

	summaries := make([]model.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, model.RoomSummary{
			ID:          room.ID,
			HotelID:     room.HotelID,
			Number:      room.Number,
			TimesBooked: room.TimesBooked,
		})
	}
	return summaries, nil
}
