package report

import (
	"sort"

	"surfside/internal/models"
)

// Cell is one instructor column of one hour row.
type Cell struct {
	BookingID    string `json:"booking_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Activity     string `json:"activity"`
	Duration     int    `json:"duration"`
	// Continuation marks an hour covered by a booking that started earlier.
	Continuation bool `json:"continuation,omitempty"`
}

type Row struct {
	Time  string  `json:"time"`
	Cells []*Cell `json:"cells"` // aligned with DailyReport.Instructors; nil is free
}

// DailyReport is the printable schedule of one day.
type DailyReport struct {
	Date        string            `json:"date"`
	Instructors []string          `json:"instructors"`
	Rows        []Row             `json:"rows"`
	Unassigned  []*models.Booking `json:"unassigned"`
	Total       int               `json:"total"`
}

// BuildDaily lays out the confirmed bookings of date as hour rows by
// instructor columns. Confirmed bookings whose instructor is missing or not
// on the roster go to Unassigned.
func BuildDaily(date string, bookings []*models.Booking, instructors []*models.Instructor) *DailyReport {
	r := &DailyReport{
		Date:        date,
		Instructors: make([]string, 0, len(instructors)),
		Rows:        make([]Row, 0, len(models.TimeSlots)),
		Unassigned:  []*models.Booking{},
	}

	column := make(map[string]int, len(instructors))
	for _, in := range instructors {
		if _, dup := column[in.Name]; dup {
			continue
		}
		column[in.Name] = len(r.Instructors)
		r.Instructors = append(r.Instructors, in.Name)
	}

	byHour := make(map[int][]*Cell, len(models.TimeSlots))
	for _, b := range bookings {
		if b.Date != date || !b.IsConfirmed() {
			continue
		}
		r.Total++

		col, onRoster := column[b.InstructorName]
		start, end, ok := b.Range()
		if !b.HasInstructor() || !onRoster || !ok {
			r.Unassigned = append(r.Unassigned, b)
			continue
		}

		for h := start; h < end; h++ {
			cells := byHour[h]
			if cells == nil {
				cells = make([]*Cell, len(r.Instructors))
				byHour[h] = cells
			}
			if cells[col] != nil && !cells[col].Continuation {
				continue
			}
			cells[col] = &Cell{
				BookingID:    b.ID,
				CustomerName: b.Customer.FullName,
				Phone:        b.Customer.Phone,
				Activity:     b.Activity,
				Duration:     b.Duration,
				Continuation: h != start,
			}
		}
	}

	for _, slot := range models.TimeSlots {
		h, _ := models.ParseHour(slot)
		cells := byHour[h]
		if cells == nil {
			cells = make([]*Cell, len(r.Instructors))
		}
		r.Rows = append(r.Rows, Row{Time: slot, Cells: cells})
	}

	sort.SliceStable(r.Unassigned, func(i, j int) bool { return r.Unassigned[i].Time < r.Unassigned[j].Time })
	return r
}
