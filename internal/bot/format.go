package bot

import (
	"fmt"
	"sort"
	"strings"

	"surfside/internal/models"
)

func formatBooking(bk *models.Booking) string {
	instructor := bk.InstructorName
	if instructor == "" {
		instructor = "atanmadı"
	}
	return fmt.Sprintf("%s %s (%d saat) - %s\n%s, %s\nEğitmen: %s\nDurum: %s",
		bk.Date, bk.Time, bk.Duration, models.ActivityLabel(bk.Activity),
		bk.Customer.FullName, bk.Customer.Phone,
		instructor, models.StatusLabel(bk.Status),
	)
}

// formatDay lists the non-cancelled bookings of date by start time.
func formatDay(date string, bookings []*models.Booking) string {
	active := make([]*models.Booking, 0, len(bookings))
	for _, bk := range bookings {
		if bk.Status != models.StatusCancelled {
			active = append(active, bk)
		}
	}
	if len(active) == 0 {
		return fmt.Sprintf("%s için rezervasyon yok.", date)
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Time < active[j].Time })

	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 %s (%d rezervasyon)\n", date, len(active))
	for _, bk := range active {
		instructor := bk.InstructorName
		if instructor == "" {
			instructor = "-"
		}
		mark := "✅"
		if bk.Status == models.StatusPending {
			mark = "⏳"
		}
		fmt.Fprintf(&sb, "\n%s %s +%dsa %s | %s | %s", mark, bk.Time, bk.Duration,
			models.ActivityLabel(bk.Activity), bk.Customer.FullName, instructor)
	}
	return sb.String()
}
