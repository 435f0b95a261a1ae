package bot

import "surfside/internal/metrics"

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ObserveBotCommand("update", "panic")
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}
