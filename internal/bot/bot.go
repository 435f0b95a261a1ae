package bot

import (
	"context"
	"time"

	"surfside/internal/availability"
	"surfside/internal/domain"
	"surfside/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

// BookingService is what the staff bot reads and changes.
type BookingService interface {
	Today() string
	BookingsByDate(ctx context.Context, date string) ([]*models.Booking, error)
	ActionableBookings(ctx context.Context) ([]*models.Booking, error)
	UpdateStatus(ctx context.Context, id string, version int64, status, actor string) (*models.Booking, error)
	SlotGrid(ctx context.Context, activity, date string, duration int) ([]availability.SlotStatus, error)
}

type RosterReader interface {
	Roster(ctx context.Context) ([]*models.Instructor, error)
}

// Bot is the staff console on Telegram. It only answers the configured
// staff chat.
type Bot struct {
	tgService   domain.TelegramService
	bookings    BookingService
	instructors RosterReader
	staffChatID int64
	logger      *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	bookings BookingService,
	instructors RosterReader,
	staffChatID int64,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}
	l := logger.With().Str("component", "staff_bot").Logger()
	return &Bot{
		tgService:   tgService,
		bookings:    bookings,
		instructors: instructors,
		staffChatID: staffChatID,
		logger:      &l,
	}
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	l := b.logger.With().Str("request_id", uuid.New().String()).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		chatID := chatOf(update)
		if chatID == 0 {
			return
		}
		if !b.isStaff(chatID) {
			l.Warn().Int64("chat_id", chatID).Msg("update from unknown chat ignored")
			return
		}

		switch {
		case update.CallbackQuery != nil:
			b.handleCallbackQuery(updateCtx, update)
		case update.Message != nil && update.Message.IsCommand():
			b.handleCommand(updateCtx, update.Message)
		}
	})
}

func (b *Bot) isStaff(chatID int64) bool {
	return b.staffChatID != 0 && chatID == b.staffChatID
}

func chatOf(update tgbotapi.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.tgService.Send(msg); err != nil {
		b.logger.Error().Err(err).Msg("telegram send failed")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	b.send(msg)
}
