package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"surfside/internal/config"
	"surfside/internal/domain"
	"surfside/internal/events"
	"surfside/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const ChannelWhatsApp = "WhatsApp"

// BookingReader is the read side NotificationService needs.
type BookingReader interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
}

// NotificationService builds customer confirmation links and pings staff
// about new requests.
type NotificationService struct {
	bookings     BookingReader
	eventBus     domain.EventPublisher
	telegram     domain.TelegramSender
	staffChatID  int64
	businessName string
	whatsAppBase string
	logger       *zerolog.Logger
}

// NewNotificationService accepts a nil telegram sender; staff notifications
// are then disabled.
func NewNotificationService(
	bookings BookingReader,
	eventBus domain.EventPublisher,
	telegram domain.TelegramSender,
	cfg config.NotificationConfig,
	staffChatID int64,
	logger *zerolog.Logger,
) *NotificationService {
	base := cfg.WhatsAppBase
	if base == "" {
		base = "https://wa.me/"
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &NotificationService{
		bookings:     bookings,
		eventBus:     eventBus,
		telegram:     telegram,
		staffChatID:  staffChatID,
		businessName: cfg.BusinessName,
		whatsAppBase: base,
		logger:       logger,
	}
}

// NormalizePhone reduces a Turkish phone number to the international digits
// wa.me expects.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "0"):
		return "9" + digits
	case strings.HasPrefix(digits, "90"):
		return digits
	default:
		return "90" + digits
	}
}

// ConfirmationMessage is the text sent to the customer once staff confirm.
func (s *NotificationService) ConfirmationMessage(b *models.Booking) string {
	return fmt.Sprintf(
		"Merhaba %s, %s'daki %s rezervasyonunuz %s tarihinde saat %s için onaylanmıştır. Görüşmek üzere! 🏄‍♂️🤙",
		b.Customer.FullName, s.businessName, models.ActivityLabel(b.Activity), b.Date, b.Time,
	)
}

// ConfirmationLink returns the wa.me deep link for booking id and records
// that the confirmation went out.
func (s *NotificationService) ConfirmationLink(ctx context.Context, id, actor string) (string, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return "", err
	}

	phone := NormalizePhone(b.Customer.Phone)
	if phone == "" {
		return "", ErrMissingPhone
	}

	text := strings.ReplaceAll(url.QueryEscape(s.ConfirmationMessage(b)), "+", "%20")
	link := s.whatsAppBase + phone + "?text=" + text

	if s.eventBus != nil {
		payload := events.BookingEventPayload{
			BookingID:      b.ID,
			CustomerName:   b.Customer.FullName,
			Phone:          b.Customer.Phone,
			Activity:       b.Activity,
			Date:           b.Date,
			Time:           b.Time,
			Duration:       b.Duration,
			Status:         b.Status,
			InstructorName: b.InstructorName,
			ChangedBy:      actor,
			Channel:        ChannelWhatsApp,
		}
		if err := s.eventBus.PublishJSON(events.EventNotificationSent, payload); err != nil {
			s.logger.Error().Err(err).Str("booking_id", b.ID).Msg("publish notification event error")
		}
	}
	return link, nil
}

// NotifyStaff posts a summary of a new customer request to the staff chat.
func (s *NotificationService) NotifyStaff(p events.BookingEventPayload) error {
	if s.telegram == nil || s.staffChatID == 0 {
		return ErrNotifierDisabled
	}

	text := fmt.Sprintf(
		"Yeni rezervasyon talebi\n%s (%s)\n%s - %s %s, %d saat",
		p.CustomerName, p.Phone, models.ActivityLabel(p.Activity), p.Date, p.Time, p.Duration,
	)
	msg := tgbotapi.NewMessage(s.staffChatID, text)
	if _, err := s.telegram.Send(msg); err != nil {
		return fmt.Errorf("failed to send staff notification: %w", err)
	}
	return nil
}

// Attach forwards web submissions to NotifyStaff. Sends run in their own
// goroutine so a slow Telegram API never delays the request.
func (s *NotificationService) Attach(bus EventSubscriber) func() {
	if s.telegram == nil || s.staffChatID == 0 {
		return func() {}
	}
	return bus.SubscribeMany([]string{events.EventBookingCreated}, func(event *events.Event) error {
		var p events.BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		if p.Channel != ChannelWeb {
			return nil
		}
		go func() {
			if err := s.NotifyStaff(p); err != nil {
				s.logger.Warn().Err(err).Str("booking_id", p.BookingID).Msg("staff notification failed")
			}
		}()
		return nil
	})
}
