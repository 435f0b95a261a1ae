package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"surfside/internal/metrics"
	"surfside/internal/models"
	"surfside/internal/report"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const (
	cmdStart     = "start"
	cmdHelp      = "yardim"
	cmdToday     = "bugun"
	cmdPending   = "bekleyen"
	cmdReport    = "rapor"
	cmdAvailable = "musait"
)

const helpText = `Surf Side personel botu

/bugun [YYYY-AA-GG] - günün programı
/bekleyen - onay veya eğitmen bekleyen rezervasyonlar
/rapor [YYYY-AA-GG] - günlük program Excel dosyası
/musait <Kitesurf|Wingfoil|CoastalRowing> [YYYY-AA-GG] [süre] - müsait saatler`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	args := strings.Fields(msg.CommandArguments())
	chatID := msg.Chat.ID

	var err error
	switch command {
	case cmdStart, cmdHelp:
		b.reply(chatID, helpText)
	case cmdToday:
		err = b.handleToday(ctx, chatID, args)
	case cmdPending:
		err = b.handlePending(ctx, chatID)
	case cmdReport:
		err = b.handleReport(ctx, chatID, args)
	case cmdAvailable:
		err = b.handleAvailable(ctx, chatID, args)
	default:
		b.reply(chatID, "Bilinmeyen komut. /yardim yazın.")
		metrics.ObserveBotCommand("unknown", "ok")
		return
	}

	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("command", command).Msg("bot command failed")
		b.reply(chatID, errorMessage(err))
		metrics.ObserveBotCommand(command, "error")
		return
	}
	metrics.ObserveBotCommand(command, "ok")
}

func (b *Bot) dateArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return b.bookings.Today()
}

func (b *Bot) handleToday(ctx context.Context, chatID int64, args []string) error {
	date := b.dateArg(args, 0)
	bookings, err := b.bookings.BookingsByDate(ctx, date)
	if err != nil {
		return err
	}
	b.reply(chatID, formatDay(date, bookings))
	return nil
}

func (b *Bot) handlePending(ctx context.Context, chatID int64) error {
	bookings, err := b.bookings.ActionableBookings(ctx)
	if err != nil {
		return err
	}
	if len(bookings) == 0 {
		b.reply(chatID, "Bekleyen rezervasyon yok. 🤙")
		return nil
	}

	for _, bk := range bookings {
		msg := tgbotapi.NewMessage(chatID, formatBooking(bk))
		if bk.Status == models.StatusPending {
			msg.ReplyMarkup = actionKeyboard(bk.ID)
		}
		b.send(msg)
	}
	return nil
}

func (b *Bot) handleReport(ctx context.Context, chatID int64, args []string) error {
	date := b.dateArg(args, 0)
	bookings, err := b.bookings.BookingsByDate(ctx, date)
	if err != nil {
		return err
	}
	roster, err := b.instructors.Roster(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(report.BuildDaily(date, bookings, roster), &buf); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("gunluk_program_%s.xlsx", date),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "Günlük program " + date
	b.send(doc)
	return nil
}

func (b *Bot) handleAvailable(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 || !models.IsValidActivity(args[0]) {
		b.reply(chatID, "Kullanım: /musait <Kitesurf|Wingfoil|CoastalRowing> [YYYY-AA-GG] [süre]")
		return nil
	}
	activity := args[0]
	date := b.dateArg(args, 1)
	duration := models.MinDuration
	if len(args) > 2 && args[2] == "2" {
		duration = models.MaxDuration
	}

	grid, err := b.bookings.SlotGrid(ctx, activity, date, duration)
	if err != nil {
		return err
	}

	var free []string
	for _, st := range grid {
		if st.Available {
			free = append(free, st.Time)
		}
	}
	header := fmt.Sprintf("%s %s (%d saat)", models.ActivityLabel(activity), date, duration)
	if len(free) == 0 {
		b.reply(chatID, header+"\nMüsait saat yok.")
		return nil
	}
	b.reply(chatID, header+"\nMüsait: "+strings.Join(free, ", "))
	return nil
}
