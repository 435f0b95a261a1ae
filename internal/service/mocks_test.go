package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"surfside/internal/database"
	"surfside/internal/domain"
	"surfside/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

// fakeRepo keeps bookings in memory and runs guards under one lock, the way
// the SQLite immediate transaction does.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	roster   []*models.Instructor
	logs     []*models.LogEntry
	failLogs error
}

func newFakeRepo(roster ...*models.Instructor) *fakeRepo {
	return &fakeRepo{bookings: make(map[string]*models.Booking), roster: roster}
}

func (r *fakeRepo) put(b *models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	if cp.Version == 0 {
		cp.Version = 1
	}
	r.bookings[b.ID] = &cp
}

func (r *fakeRepo) day(date string) []*models.Booking {
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Date == date {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func (r *fakeRepo) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, database.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) GetBookingsByDate(_ context.Context, date string) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.day(date), nil
}

func (r *fakeRepo) GetBookingsByDateRange(_ context.Context, from, to string) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Date >= from && b.Date <= to {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListBookings(_ context.Context, f models.BookingFilter) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		if (f.Date == "" || b.Date == f.Date) && (f.Status == "" || b.Status == f.Status) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActionableBookings(_ context.Context) ([]*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Booking
	for _, b := range r.bookings {
		if b.Status == models.StatusPending || (b.Status == models.StatusConfirmed && b.InstructorName == "") {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) CreateBookingChecked(_ context.Context, b *models.Booking, guard domain.Guard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if guard != nil {
		if err := guard(r.day(b.Date), r.roster); err != nil {
			return err
		}
	}
	b.Version = 1
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateBookingChecked(_ context.Context, b *models.Booking, fromVersion int64, guard domain.Guard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if guard != nil {
		if err := guard(r.day(b.Date), r.roster); err != nil {
			return err
		}
	}
	stored, ok := r.bookings[b.ID]
	if !ok {
		return database.ErrBookingNotFound
	}
	if stored.Version != fromVersion {
		return database.ErrConcurrentModification
	}
	b.Version = fromVersion + 1
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *fakeRepo) DeleteBooking(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[id]; !ok {
		return database.ErrBookingNotFound
	}
	delete(r.bookings, id)
	return nil
}

func (r *fakeRepo) ListInstructors(_ context.Context) ([]*models.Instructor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.Instructor(nil), r.roster...), nil
}

func (r *fakeRepo) ReplaceInstructors(_ context.Context, roster []*models.Instructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roster = roster
	return nil
}

func (r *fakeRepo) EnsureInstructors(_ context.Context, defaults []*models.Instructor) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.roster) > 0 {
		return false, nil
	}
	r.roster = defaults
	return true, nil
}

func (r *fakeRepo) AppendLog(_ context.Context, e *models.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failLogs != nil {
		return r.failLogs
	}
	e.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, e)
	return nil
}

func (r *fakeRepo) ListLogs(_ context.Context, limit int, _ string) ([]*models.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.LogEntry, 0, len(r.logs))
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.logs[i])
	}
	return out, nil
}

type mockEventBus struct {
	mock.Mock
}

func (m *mockEventBus) PublishJSON(t string, p interface{}) error {
	return m.Called(t, p).Error(0)
}

type mockWorker struct {
	mock.Mock
}

func (m *mockWorker) EnqueueTask(ctx context.Context, taskType, bookingID string, b *models.Booking, status string) error {
	return m.Called(ctx, taskType, bookingID, b, status).Error(0)
}

type mockTelegram struct {
	mock.Mock
}

func (m *mockTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

type mockStateRepo struct {
	mock.Mock
}

func (m *mockStateRepo) GetState(ctx context.Context, id string) (*models.FormState, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FormState), args.Error(1)
}

func (m *mockStateRepo) SetState(ctx context.Context, s *models.FormState) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockStateRepo) ClearState(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStateRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

const testDate = "2026-07-15"

var testNow = time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func instructor(name string, specialties ...string) *models.Instructor {
	return &models.Instructor{Name: name, Specialties: specialties}
}

func newTestBookingService(t *testing.T, repo domain.Repository) (*BookingService, *mockEventBus, *mockWorker) {
	t.Helper()
	bus := new(mockEventBus)
	worker := new(mockWorker)
	bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Maybe()
	worker.On("EnqueueTask", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	svc := NewBookingService(repo, bus, worker, 30, time.UTC, testLogger())
	svc.now = func() time.Time { return testNow }
	return svc, bus, worker
}

func request(activity, slot string, duration int) *models.Booking {
	return &models.Booking{
		Customer: models.Customer{FullName: " Deniz Yılmaz ", Phone: "0532 123 45 67", Email: "deniz@example.com"},
		Activity: activity,
		Date:     testDate,
		Time:     slot,
		Duration: duration,
	}
}

func confirmedBooking(id, instructorName, slot string, duration int) *models.Booking {
	b := request(models.ActivityKitesurf, slot, duration)
	b.ID = id
	b.Status = models.StatusConfirmed
	b.InstructorName = instructorName
	return b
}
