package availability

import (
	"testing"

	"surfside/internal/models"

	"github.com/stretchr/testify/assert"
)

const day = "2024-06-01"

func confirmed(id, instructor, slot string, duration int) *models.Booking {
	return &models.Booking{
		ID:             id,
		Activity:       models.ActivityKitesurf,
		Date:           day,
		Time:           slot,
		Duration:       duration,
		Status:         models.StatusConfirmed,
		InstructorName: instructor,
	}
}

func roster(specs map[string][]string) []*models.Instructor {
	var out []*models.Instructor
	for _, name := range []string{"A", "B", "C"} {
		if s, ok := specs[name]; ok {
			out = append(out, &models.Instructor{Name: name, Specialties: s})
		}
	}
	return out
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(10, 12, 11, 12))
	assert.True(t, Overlaps(10, 11, 10, 11))
	assert.False(t, Overlaps(9, 10, 10, 11))
	assert.False(t, Overlaps(12, 13, 10, 12))
}

func TestIsSlotAvailableForActivity(t *testing.T) {
	kite := []string{models.ActivityKitesurf}

	t.Run("OtherQualifiedInstructorFree", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite, "B": kite})
		bookings := []*models.Booking{confirmed("1", "A", "10:00", 2)}
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "11:00", 1, bookings, instructors))
	})

	t.Run("BookingEndingAtStartDoesNotBlock", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite, "B": kite})
		bookings := []*models.Booking{
			confirmed("1", "A", "10:00", 2),
			confirmed("2", "B", "09:00", 1),
		}
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "11:00", 1, bookings, instructors))
	})

	t.Run("SingleInstructorBusy", func(t *testing.T) {
		wing := []string{models.ActivityWingfoil}
		instructors := roster(map[string][]string{"A": wing, "B": kite})
		bookings := []*models.Booking{confirmed("1", "A", "14:00", 1)}
		assert.False(t, IsSlotAvailableForActivity(models.ActivityWingfoil, day, "14:00", 1, bookings, instructors))
		assert.True(t, IsSlotAvailableForActivity(models.ActivityWingfoil, day, "15:00", 1, bookings, instructors))
	})

	t.Run("AllBusyInOneHourOfRange", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite, "B": kite})
		bookings := []*models.Booking{
			confirmed("1", "A", "12:00", 1),
			confirmed("2", "B", "12:00", 1),
		}
		assert.False(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "11:00", 2, bookings, instructors))
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "10:00", 2, bookings, instructors))
	})

	t.Run("DistinctInstructorsCounted", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite, "B": kite})
		bookings := []*models.Booking{
			confirmed("1", "A", "10:00", 1),
			confirmed("2", "A", "10:00", 1),
		}
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "10:00", 1, bookings, instructors))
	})

	t.Run("PendingAndCancelledNeverBlock", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite})
		pending := confirmed("1", "A", "10:00", 2)
		pending.Status = models.StatusPending
		cancelled := confirmed("2", "A", "10:00", 2)
		cancelled.Status = models.StatusCancelled
		bookings := []*models.Booking{pending, cancelled}
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "10:00", 2, bookings, instructors))
	})

	t.Run("OtherDateAndUnassignedIgnored", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite})
		other := confirmed("1", "A", "10:00", 1)
		other.Date = "2024-06-02"
		unassigned := confirmed("2", "", "10:00", 1)
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "10:00", 1,
			[]*models.Booking{other, unassigned}, instructors))
	})

	t.Run("UnqualifiedInstructorBookingIgnored", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite, "B": {models.ActivityWingfoil}})
		bookings := []*models.Booking{confirmed("1", "B", "10:00", 1)}
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "10:00", 1, bookings, instructors))
	})

	t.Run("NoQualifiedInstructorsFailsClosed", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite})
		assert.False(t, IsSlotAvailableForActivity(models.ActivityCoastalRowing, day, "10:00", 1, nil, instructors))
		assert.False(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "10:00", 1, nil, nil))
	})

	t.Run("IncompleteSelectionFailsOpen", func(t *testing.T) {
		assert.True(t, IsSlotAvailableForActivity("", day, "10:00", 1, nil, nil))
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, "", "10:00", 1, nil, nil))
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "", 1, nil, nil))
	})

	t.Run("CapacityThreshold", func(t *testing.T) {
		instructors := roster(map[string][]string{"A": kite, "B": kite, "C": kite})
		bookings := []*models.Booking{
			confirmed("1", "A", "16:00", 2),
			confirmed("2", "B", "16:00", 2),
		}
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "16:00", 2, bookings, instructors))
		bookings = append(bookings, confirmed("3", "C", "17:00", 1))
		assert.False(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "16:00", 2, bookings, instructors))
		assert.True(t, IsSlotAvailableForActivity(models.ActivityKitesurf, day, "16:00", 1, bookings, instructors))
	})
}

func TestIsInstructorBusy(t *testing.T) {
	own := confirmed("own", "A", "10:00", 2)
	bookings := []*models.Booking{own}

	t.Run("OverlappingConfirmed", func(t *testing.T) {
		assert.True(t, IsInstructorBusy("A", day, "10:00", 1, bookings, ""))
		assert.True(t, IsInstructorBusy("A", day, "11:00", 2, bookings, ""))
		assert.True(t, IsInstructorBusy("A", day, "09:00", 2, bookings, ""))
	})

	t.Run("AdjacentRangesFree", func(t *testing.T) {
		assert.False(t, IsInstructorBusy("A", day, "12:00", 1, bookings, ""))
		assert.False(t, IsInstructorBusy("A", day, "09:00", 1, bookings, ""))
	})

	t.Run("SelfExcluded", func(t *testing.T) {
		assert.False(t, IsInstructorBusy("A", day, "10:00", 1, bookings, "own"))
		assert.False(t, IsInstructorBusy("A", day, "11:00", 2, bookings, "own"))
	})

	t.Run("OtherInstructorOrDate", func(t *testing.T) {
		assert.False(t, IsInstructorBusy("B", day, "10:00", 1, bookings, ""))
		assert.False(t, IsInstructorBusy("A", "2024-06-02", "10:00", 1, bookings, ""))
	})

	t.Run("NameMatchIsExact", func(t *testing.T) {
		assert.False(t, IsInstructorBusy("a", day, "10:00", 1, bookings, ""))
	})

	t.Run("NonConfirmedIgnored", func(t *testing.T) {
		pending := confirmed("p", "B", "10:00", 1)
		pending.Status = models.StatusPending
		cancelled := confirmed("c", "B", "10:00", 1)
		cancelled.Status = models.StatusCancelled
		assert.False(t, IsInstructorBusy("B", day, "10:00", 1, []*models.Booking{pending, cancelled}, ""))
	})

	t.Run("BlankNameNeverBusy", func(t *testing.T) {
		unassigned := confirmed("u", "", "10:00", 1)
		assert.False(t, IsInstructorBusy("", day, "10:00", 1, []*models.Booking{unassigned}, ""))
		assert.False(t, IsInstructorBusy("   ", day, "10:00", 1, []*models.Booking{unassigned}, ""))
	})

	t.Run("Conflicts", func(t *testing.T) {
		second := confirmed("second", "A", "13:00", 1)
		got := Conflicts("A", day, "11:00", 2, []*models.Booking{own, second}, "")
		assert.Equal(t, []*models.Booking{own}, got)
		assert.Empty(t, Conflicts("A", day, "12:00", 1, []*models.Booking{own, second}, ""))
	})
}

func TestNoDoubleBookingProperty(t *testing.T) {
	// Accept every request IsInstructorBusy allows and check no two accepted
	// Confirmed bookings of one instructor overlap.
	var accepted []*models.Booking
	id := 0
	for _, slot := range models.TimeSlots {
		for duration := models.MinDuration; duration <= models.MaxDuration; duration++ {
			if !FitsDay(slot, duration) {
				continue
			}
			if IsInstructorBusy("A", day, slot, duration, accepted, "") {
				continue
			}
			id++
			accepted = append(accepted, confirmed(string(rune('a'+id)), "A", slot, duration))
		}
	}

	for i := range accepted {
		for j := i + 1; j < len(accepted); j++ {
			aStart, aEnd, _ := accepted[i].Range()
			bStart, bEnd, _ := accepted[j].Range()
			assert.False(t, Overlaps(aStart, aEnd, bStart, bEnd), "%s and %s overlap", accepted[i].Time, accepted[j].Time)
		}
	}
	assert.NotEmpty(t, accepted)
}

func TestFreeInstructors(t *testing.T) {
	kite := []string{models.ActivityKitesurf}
	instructors := roster(map[string][]string{"A": kite, "B": kite, "C": {models.ActivityWingfoil}})
	bookings := []*models.Booking{confirmed("1", "A", "10:00", 2)}

	assert.Equal(t, []string{"B"}, FreeInstructors(models.ActivityKitesurf, day, "11:00", 1, bookings, instructors, ""))
	assert.Equal(t, []string{"A", "B"}, FreeInstructors(models.ActivityKitesurf, day, "11:00", 1, bookings, instructors, "1"))
	assert.Equal(t, []string{"B", "C"}, FreeInstructors("", day, "10:00", 1, bookings, instructors, ""))
}

func TestSlotGrid(t *testing.T) {
	kite := []string{models.ActivityKitesurf}
	instructors := roster(map[string][]string{"A": kite})
	bookings := []*models.Booking{confirmed("1", "A", "10:00", 1)}

	grid := SlotGrid(models.ActivityKitesurf, day, 2, bookings, instructors)
	assert.Len(t, grid, len(models.TimeSlots))

	byTime := make(map[string]SlotStatus, len(grid))
	for _, s := range grid {
		byTime[s.Time] = s
	}
	assert.Equal(t, SlotStatus{Time: "09:00", Available: false, Reason: ReasonFull}, byTime["09:00"])
	assert.Equal(t, SlotStatus{Time: "10:00", Available: false, Reason: ReasonFull}, byTime["10:00"])
	assert.True(t, byTime["11:00"].Available)
	assert.True(t, byTime["18:00"].Available)
	assert.Equal(t, SlotStatus{Time: "19:00", Available: false, Reason: ReasonExceedsDay}, byTime["19:00"])
}

func TestFitsDay(t *testing.T) {
	assert.True(t, FitsDay("09:00", 2))
	assert.True(t, FitsDay("19:00", 1))
	assert.False(t, FitsDay("19:00", 2))
	assert.False(t, FitsDay("08:00", 1))
	assert.False(t, FitsDay("bad", 1))
}
