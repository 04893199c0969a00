package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/hotel/repository"
	mongodb "staybook/pkg/db/mongo"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "text", Output: discard{}})
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

// fakeTxManager runs the function directly. Atomicity in tests comes from
// the fakes' own mutexes.
type fakeTxManager struct{}

func (fakeTxManager) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type fakeRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]*model.Room
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*model.Room)}
}

func (f *fakeRoomRepo) add(room model.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = &room
}

func (f *fakeRoomRepo) Insert(_ context.Context, room *model.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room.ID == "" {
		room.ID = fmt.Sprintf("room-%d", len(f.rooms)+1)
	}
	copied := *room
	f.rooms[room.ID] = &copied
	return nil
}

func (f *fakeRoomRepo) FindByID(_ context.Context, id string) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (f *fakeRoomRepo) FindByHotelID(_ context.Context, hotelID string) ([]model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Room
	for _, room := range f.rooms {
		if room.HotelID == hotelID {
			out = append(out, *room)
		}
	}
	return out, nil
}

func (f *fakeRoomRepo) FindAll(_ context.Context) ([]model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Room
	for _, room := range f.rooms {
		out = append(out, *room)
	}
	return out, nil
}

func (f *fakeRoomRepo) IncrementTimesBooked(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[id]
	if !ok {
		return repository.ErrNotFound
	}
	room.TimesBooked++
	return nil
}

func (f *fakeRoomRepo) FindAvailableExcluding(_ context.Context, excludedIDs []string) ([]model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	var out []model.Room
	for _, room := range f.rooms {
		if room.Available && !excluded[room.ID] {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TimesBooked != out[j].TimesBooked {
			return out[i].TimesBooked < out[j].TimesBooked
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeRoomRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeRoomRepo) timesBooked(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[id].TimesBooked
}

type fakeLockRepo struct {
	mu    sync.Mutex
	locks map[string]*model.RoomLock
	seq   int
}

func newFakeLockRepo() *fakeLockRepo {
	return &fakeLockRepo{locks: make(map[string]*model.RoomLock)}
}

func (f *fakeLockRepo) Insert(_ context.Context, lock *model.RoomLock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.locks {
		if l.RequestID == lock.RequestID {
			return repository.ErrDuplicateRequest
		}
	}
	if lock.ID == "" {
		f.seq++
		lock.ID = fmt.Sprintf("lock-%d", f.seq)
	}
	copied := *lock
	f.locks[lock.ID] = &copied
	return nil
}

func (f *fakeLockRepo) FindByRequestID(_ context.Context, requestID string) (*model.RoomLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.locks {
		if l.RequestID == requestID {
			copied := *l
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLockRepo) FindLockedByBooking(_ context.Context, roomID, bookingID string) ([]model.RoomLock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.RoomLock
	for _, l := range f.locks {
		if l.RoomID == roomID && l.BookingID == bookingID && l.Status == model.LockLocked {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLockRepo) ExistsOverlappingLock(_ context.Context, roomID, startDate, endDate string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.locks {
		if l.RoomID == roomID && l.Status == model.LockLocked &&
			model.DatesOverlap(l.StartDate, l.EndDate, startDate, endDate) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLockRepo) LockedRoomIDs(_ context.Context, startDate, endDate string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, l := range f.locks {
		if l.Status == model.LockLocked &&
			model.DatesOverlap(l.StartDate, l.EndDate, startDate, endDate) && !seen[l.RoomID] {
			seen[l.RoomID] = true
			out = append(out, l.RoomID)
		}
	}
	return out, nil
}

func (f *fakeLockRepo) UpdateStatus(_ context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[id]
	if !ok {
		return repository.ErrNotFound
	}
	l.Status = status
	return nil
}

func (f *fakeLockRepo) EnsureIndexes(context.Context) error { return nil }

func (f *fakeLockRepo) all() []model.RoomLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.RoomLock, 0, len(f.locks))
	for _, l := range f.locks {
		out = append(out, *l)
	}
	return out
}

type fakeHotelRepo struct {
	mu     sync.Mutex
	hotels map[string]*model.Hotel
}

func newFakeHotelRepo() *fakeHotelRepo {
	return &fakeHotelRepo{hotels: make(map[string]*model.Hotel)}
}

func (f *fakeHotelRepo) Insert(_ context.Context, hotel *model.Hotel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if hotel.ID == "" {
		hotel.ID = fmt.Sprintf("hotel-%d", len(f.hotels)+1)
	}
	copied := *hotel
	f.hotels[hotel.ID] = &copied
	return nil
}

func (f *fakeHotelRepo) FindByID(_ context.Context, id string) (*model.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.hotels[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *h
	return &copied, nil
}

func (f *fakeHotelRepo) FindAll(_ context.Context) ([]model.Hotel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Hotel
	for _, h := range f.hotels {
		out = append(out, *h)
	}
	return out, nil
}
