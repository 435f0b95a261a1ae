package report

import (
	"bytes"
	"strconv"
	"testing"

	"surfside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const day = "2026-07-15"

func roster() []*models.Instructor {
	return []*models.Instructor{
		{Name: "Samican", Specialties: []string{models.ActivityKitesurf}},
		{Name: "Ata", Specialties: []string{models.ActivityWingfoil}},
	}
}

func booking(id, instructor, slot string, duration int, status string) *models.Booking {
	return &models.Booking{
		ID:             id,
		Customer:       models.Customer{FullName: "Guest " + id, Phone: "05321234567"},
		Activity:       models.ActivityKitesurf,
		Date:           day,
		Time:           slot,
		Duration:       duration,
		Status:         status,
		InstructorName: instructor,
	}
}

func rowAt(t *testing.T, r *DailyReport, slot string) Row {
	t.Helper()
	for _, row := range r.Rows {
		if row.Time == slot {
			return row
		}
	}
	t.Fatalf("no row for %s", slot)
	return Row{}
}

func TestBuildDaily(t *testing.T) {
	bookings := []*models.Booking{
		booking("a", "Samican", "10:00", 2, models.StatusConfirmed),
		booking("b", "Ata", "10:00", 1, models.StatusConfirmed),
		booking("c", "Ata", "14:00", 1, models.StatusPending),
		booking("d", "", "15:00", 1, models.StatusConfirmed),
		booking("e", "Ghost", "09:00", 1, models.StatusConfirmed),
		booking("f", "Samican", "16:00", 1, models.StatusCancelled),
	}
	other := booking("g", "Samican", "09:00", 1, models.StatusConfirmed)
	other.Date = "2026-07-16"
	bookings = append(bookings, other)

	r := BuildDaily(day, bookings, roster())

	assert.Equal(t, []string{"Samican", "Ata"}, r.Instructors)
	assert.Len(t, r.Rows, len(models.TimeSlots))
	assert.Equal(t, 4, r.Total)

	ten := rowAt(t, r, "10:00")
	require.NotNil(t, ten.Cells[0])
	assert.Equal(t, "a", ten.Cells[0].BookingID)
	assert.False(t, ten.Cells[0].Continuation)
	require.NotNil(t, ten.Cells[1])
	assert.Equal(t, "b", ten.Cells[1].BookingID)

	eleven := rowAt(t, r, "11:00")
	require.NotNil(t, eleven.Cells[0])
	assert.True(t, eleven.Cells[0].Continuation)
	assert.Nil(t, eleven.Cells[1])

	assert.Nil(t, rowAt(t, r, "14:00").Cells[1], "pending bookings are not scheduled")
	assert.Nil(t, rowAt(t, r, "16:00").Cells[0], "cancelled bookings are not scheduled")

	require.Len(t, r.Unassigned, 2)
	assert.Equal(t, "e", r.Unassigned[0].ID)
	assert.Equal(t, "d", r.Unassigned[1].ID)
}

func TestBuildDailyEmpty(t *testing.T) {
	r := BuildDaily(day, nil, nil)
	assert.Empty(t, r.Instructors)
	assert.Len(t, r.Rows, len(models.TimeSlots))
	assert.NotNil(t, r.Unassigned)
	assert.Zero(t, r.Total)
}

func TestWriteXLSX(t *testing.T) {
	r := BuildDaily(day, []*models.Booking{
		booking("a", "Samican", "10:00", 2, models.StatusConfirmed),
		booking("d", "", "15:00", 1, models.StatusConfirmed),
	}, roster())

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(r, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	header, err := f.GetCellValue(SheetName, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Saat", header)

	name, err := f.GetCellValue(SheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "Ata", name)

	// 10:00 is the second slot, so row 4.
	cell, err := f.GetCellValue(SheetName, "B4")
	require.NoError(t, err)
	assert.Contains(t, cell, "Guest a")

	merged, err := f.GetMergeCells(SheetName)
	require.NoError(t, err)
	var found bool
	for _, m := range merged {
		if m.GetStartAxis() == "B4" {
			assert.Equal(t, "B5", m.GetEndAxis())
			found = true
		}
	}
	assert.True(t, found, "two hour booking should be merged")

	unassignedRow := 3 + len(models.TimeSlots) + 1
	label, err := f.GetCellValue(SheetName, "A"+strconv.Itoa(unassignedRow))
	require.NoError(t, err)
	assert.Equal(t, "Eğitmen atanmamış", label)
}

func TestSaveXLSX(t *testing.T) {
	r := BuildDaily(day, nil, roster())
	path, err := SaveXLSX(r, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, path, "gunluk_program_"+day+".xlsx")

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
