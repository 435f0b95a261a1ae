package availability

import "surfside/internal/models"

// Reasons reported on an unavailable SlotStatus.
const (
	ReasonFull       = "full"
	ReasonExceedsDay = "exceeds_day"
)

// SlotStatus is the verdict for one start time of the day.
type SlotStatus struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// SlotGrid evaluates every slot of the day for activity and duration.
// Slots whose range would run past the end of the day are never available.
func SlotGrid(
	activity, date string,
	duration int,
	bookings []*models.Booking,
	instructors []*models.Instructor,
) []SlotStatus {
	out := make([]SlotStatus, 0, len(models.TimeSlots))
	for _, slot := range models.TimeSlots {
		status := SlotStatus{Time: slot, Available: true}
		if _, end, ok := Range(slot, duration); ok && end > models.DayEndHour {
			status.Available = false
			status.Reason = ReasonExceedsDay
		} else if !IsSlotAvailableForActivity(activity, date, slot, duration, bookings, instructors) {
			status.Available = false
			status.Reason = ReasonFull
		}
		out = append(out, status)
	}
	return out
}

// FitsDay reports whether [slot, slot+duration) ends no later than the last slot.
func FitsDay(slot string, duration int) bool {
	start, end, ok := Range(slot, duration)
	return ok && start >= models.FirstSlotHour && end <= models.DayEndHour
}
