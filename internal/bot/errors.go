package bot

import (
	"errors"

	"surfside/internal/database"
	"surfside/internal/service"
)

func errorMessage(err error) string {
	if err == nil {
		return ""
	}

	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		return "⚠️ " + conflict.Instructor + " bu saatte başka bir derste. Önce eğitmeni değiştirin."
	}

	switch {
	case errors.Is(err, database.ErrBookingNotFound):
		return "⚠️ Rezervasyon bulunamadı, silinmiş olabilir."
	case errors.Is(err, database.ErrConcurrentModification):
		return "⚠️ Rezervasyon başka biri tarafından değiştirildi. Listeyi yenileyip tekrar deneyin."
	case errors.Is(err, service.ErrInvalidBooking):
		return "⚠️ Geçersiz istek: " + err.Error()
	}
	return "❌ İşlem sırasında bir hata oluştu. Lütfen daha sonra tekrar deneyin."
}
