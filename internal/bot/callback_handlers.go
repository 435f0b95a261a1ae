package bot

import (
	"context"
	"strings"

	"surfside/internal/metrics"
	"surfside/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	callbackConfirm = "onayla:"
	callbackCancel  = "iptal:"
)

func actionKeyboard(bookingID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Onayla", callbackConfirm+bookingID),
			tgbotapi.NewInlineKeyboardButtonData("❌ İptal", callbackCancel+bookingID),
		),
	)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data

	var id, status string
	switch {
	case strings.HasPrefix(data, callbackConfirm):
		id, status = strings.TrimPrefix(data, callbackConfirm), models.StatusConfirmed
	case strings.HasPrefix(data, callbackCancel):
		id, status = strings.TrimPrefix(data, callbackCancel), models.StatusCancelled
	default:
		b.answer(callback.ID, "")
		return
	}

	bk, err := b.bookings.UpdateStatus(ctx, id, 0, status, actorOf(callback.From))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("booking_id", id).Str("status", status).Msg("status change from bot failed")
		metrics.ObserveBotCommand("status", "error")
		b.answer(callback.ID, "Hata")
		b.reply(callback.Message.Chat.ID, errorMessage(err))
		return
	}
	metrics.ObserveBotCommand("status", "ok")
	b.answer(callback.ID, models.StatusLabel(bk.Status))

	edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, formatBooking(bk))
	b.send(edit)
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.tgService.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Warn().Err(err).Msg("callback answer failed")
	}
}

func actorOf(u *tgbotapi.User) string {
	if u == nil {
		return "telegram"
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
