package domain

import (
	"context"
	"time"

	"surfside/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Guard validates a write against the stored state of the target day. It runs
// inside the same transaction as the write.
type Guard = func(day []*models.Booking, roster []*models.Instructor) error

type Repository interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, from, to string) ([]*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	ListActionableBookings(ctx context.Context) ([]*models.Booking, error)
	CreateBookingChecked(ctx context.Context, booking *models.Booking, guard Guard) error
	UpdateBookingChecked(ctx context.Context, booking *models.Booking, fromVersion int64, guard Guard) error
	DeleteBooking(ctx context.Context, id string) error
	ListInstructors(ctx context.Context) ([]*models.Instructor, error)
	ReplaceInstructors(ctx context.Context, roster []*models.Instructor) error
	EnsureInstructors(ctx context.Context, defaults []*models.Instructor) (bool, error)
}

type LogRepository interface {
	AppendLog(ctx context.Context, entry *models.LogEntry) error
	ListLogs(ctx context.Context, limit int, bookingID string) ([]*models.LogEntry, error)
}

type StateRepository interface {
	GetState(ctx context.Context, sessionID string) (*models.FormState, error)
	SetState(ctx context.Context, state *models.FormState) error
	ClearState(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramService is the part of tgbotapi.BotAPI the staff bot drives.
type TelegramService interface {
	TelegramSender
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetSelf() tgbotapi.User
}

type SheetsWriter interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBooking(ctx context.Context, bookingID string) error
	UpdateBookingStatus(ctx context.Context, bookingID string, status string) error
	ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error
}

type SyncWorker interface {
	EnqueueTask(ctx context.Context, taskType string, bookingID string, booking *models.Booking, status string) error
}
