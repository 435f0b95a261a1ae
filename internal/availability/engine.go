// Package availability decides whether hourly slots can be booked.
//
// Every function here is pure: callers pass the booking and roster snapshots
// they hold and get a verdict back. Only Confirmed bookings occupy time.
package availability

import (
	"strings"

	"surfside/internal/models"
)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return max(aStart, bStart) < min(aEnd, bEnd)
}

// Range converts a start slot and duration into [start, end) hours.
func Range(slot string, duration int) (start, end int, ok bool) {
	start, ok = models.ParseHour(slot)
	if !ok || duration <= 0 {
		return 0, 0, false
	}
	return start, start + duration, true
}

// IsSlotAvailableForActivity reports whether at least one instructor qualified
// for activity is free during every hour of [slot, slot+duration) on date.
//
// Missing activity, date or slot yields true so forms can render before a
// selection is complete. An activity nobody teaches yields false.
func IsSlotAvailableForActivity(
	activity, date, slot string,
	duration int,
	bookings []*models.Booking,
	instructors []*models.Instructor,
) bool {
	if activity == "" || date == "" || slot == "" {
		return true
	}

	qualified := qualifiedNames(activity, instructors)
	if len(qualified) == 0 {
		return false
	}
	capacity := len(qualified)

	start, end, ok := Range(slot, duration)
	if !ok {
		return true
	}

	for hour := start; hour < end; hour++ {
		busy := make(map[string]struct{}, capacity)
		for _, b := range bookings {
			if !occupies(b, date) {
				continue
			}
			if _, ok := qualified[b.InstructorName]; !ok {
				continue
			}
			bStart, bEnd, ok := b.Range()
			if !ok {
				continue
			}
			if hour >= bStart && hour < bEnd {
				busy[b.InstructorName] = struct{}{}
			}
		}
		if len(busy) >= capacity {
			return false
		}
	}
	return true
}

// IsInstructorBusy reports whether name already holds a Confirmed booking on
// date overlapping [slot, slot+duration). The booking with excludeID is
// ignored so an edited booking never conflicts with itself. A blank name is
// never busy.
func IsInstructorBusy(
	name, date, slot string,
	duration int,
	bookings []*models.Booking,
	excludeID string,
) bool {
	return len(Conflicts(name, date, slot, duration, bookings, excludeID)) > 0
}

// Conflicts returns the Confirmed bookings that make name busy in the range.
func Conflicts(
	name, date, slot string,
	duration int,
	bookings []*models.Booking,
	excludeID string,
) []*models.Booking {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	start, end, ok := Range(slot, duration)
	if !ok {
		return nil
	}

	var out []*models.Booking
	for _, b := range bookings {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if !occupies(b, date) || b.InstructorName != name {
			continue
		}
		bStart, bEnd, ok := b.Range()
		if !ok {
			continue
		}
		if Overlaps(start, end, bStart, bEnd) {
			out = append(out, b)
		}
	}
	return out
}

// FreeInstructors lists, in roster order, the instructors qualified for
// activity who are not busy in the range. An empty activity skips the
// qualification filter.
func FreeInstructors(
	activity, date, slot string,
	duration int,
	bookings []*models.Booking,
	instructors []*models.Instructor,
	excludeID string,
) []string {
	out := make([]string, 0, len(instructors))
	for _, inst := range instructors {
		if activity != "" && !inst.CanTeach(activity) {
			continue
		}
		if IsInstructorBusy(inst.Name, date, slot, duration, bookings, excludeID) {
			continue
		}
		out = append(out, inst.Name)
	}
	return out
}

func occupies(b *models.Booking, date string) bool {
	return b != nil && b.Status == models.StatusConfirmed && b.Date == date && b.InstructorName != ""
}

func qualifiedNames(activity string, instructors []*models.Instructor) map[string]struct{} {
	out := make(map[string]struct{})
	for _, inst := range instructors {
		if inst != nil && inst.CanTeach(activity) {
			out[inst.Name] = struct{}{}
		}
	}
	return out
}
