package service

import (
	"context"
	"fmt"
	"time"

	"surfside/internal/domain"
	"surfside/internal/events"
	"surfside/internal/models"

	"github.com/rs/zerolog"
)

const (
	auditWriteTimeout = 5 * time.Second
	unknownCustomer   = "Bilinmeyen"
)

// EventSubscriber is the subscribing half of events.EventBus.
type EventSubscriber interface {
	SubscribeMany(eventTypes []string, handler events.EventHandler) func()
}

// AuditService turns booking events into audit log lines.
type AuditService struct {
	logs   domain.LogRepository
	logger *zerolog.Logger
}

func NewAuditService(logs domain.LogRepository, logger *zerolog.Logger) *AuditService {
	return &AuditService{logs: logs, logger: logger}
}

// Attach subscribes to every booking event and returns the unsubscribe func.
func (s *AuditService) Attach(bus EventSubscriber) func() {
	return bus.SubscribeMany(events.BookingEvents, s.handle)
}

// Logs returns the newest entries first, at most models.MaxLogEntries.
func (s *AuditService) Logs(ctx context.Context, limit int, bookingID string) ([]*models.LogEntry, error) {
	return s.logs.ListLogs(ctx, limit, bookingID)
}

func (s *AuditService) handle(event *events.Event) error {
	var p events.BookingEventPayload
	if err := event.Decode(&p); err != nil {
		s.logger.Error().Err(err).Str("event_type", event.Type).Msg("audit decode error")
		return nil
	}

	entry := EntryFor(event.Type, p)
	if entry == nil {
		return nil
	}
	entry.Timestamp = event.CreatedAt.UnixMilli()

	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()

	// Audit failures never fail the booking operation that caused them.
	if err := s.logs.AppendLog(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("event_type", event.Type).Str("booking_id", p.BookingID).Msg("audit write error")
	}
	return nil
}

// EntryFor renders the log line for a booking event, or nil for events that
// are not audited.
func EntryFor(eventType string, p events.BookingEventPayload) *models.LogEntry {
	entry := &models.LogEntry{BookingID: p.BookingID, UserName: p.CustomerName}
	if entry.UserName == "" {
		entry.UserName = unknownCustomer
	}

	switch eventType {
	case events.EventBookingCreated:
		entry.Type = models.LogCreate
		entry.Details = fmt.Sprintf("%s - %s %s", models.ActivityLabel(p.Activity), p.Date, p.Time)
	case events.EventBookingEdited:
		entry.Type = models.LogEdit
		entry.Details = fmt.Sprintf("Güncellendi: %s %s", p.Date, p.Time)
	case events.EventBookingStatusChanged:
		entry.Type = models.LogStatusUpdate
		entry.Details = "Durum: " + models.StatusLabel(p.Status)
	case events.EventInstructorAssigned:
		entry.Type = models.LogInstructorAssign
		if p.InstructorName == "" {
			entry.Details = "Eğitmen kaldırıldı"
		} else {
			entry.Details = "Eğitmen: " + p.InstructorName
		}
	case events.EventBookingDeleted:
		entry.Type = models.LogDelete
		entry.Details = fmt.Sprintf("Silindi: %s %s", p.Date, p.Time)
	case events.EventNotificationSent:
		entry.Type = models.LogNotificationSent
		entry.Details = fmt.Sprintf("%s üzerinden onay mesajı gönderildi.", p.Channel)
	default:
		return nil
	}
	return entry
}
