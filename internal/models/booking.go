package models

import (
	"strconv"
	"strings"
	"time"
)

type Customer struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (c Customer) Trimmed() Customer {
	return Customer{
		FullName: strings.TrimSpace(c.FullName),
		Phone:    strings.TrimSpace(c.Phone),
		Email:    strings.TrimSpace(c.Email),
	}
}

type Booking struct {
	ID             string    `json:"id"`
	Customer       Customer  `json:"customer"`
	Activity       string    `json:"activity"`
	Date           string    `json:"date"` // YYYY-MM-DD, local wall clock
	Time           string    `json:"time"` // HH:00
	Duration       int       `json:"duration"`
	Status         string    `json:"status"` // pending, confirmed, cancelled
	InstructorName string    `json:"instructor_name,omitempty"`
	CreatedAt      int64     `json:"created_at"` // epoch millis
	UpdatedAt      time.Time `json:"updated_at"`
	Version        int64     `json:"version"`
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

func (b *Booking) HasInstructor() bool {
	return strings.TrimSpace(b.InstructorName) != ""
}

// Range returns the occupied half-open hour interval [start, end).
func (b *Booking) Range() (start, end int, ok bool) {
	start, ok = ParseHour(b.Time)
	if !ok || b.Duration <= 0 {
		return 0, 0, false
	}
	return start, start + b.Duration, true
}

// ParseHour converts "HH:MM" into an hour. Only whole hours are accepted.
func ParseHour(value string) (int, bool) {
	value = strings.TrimSpace(value)
	hh, mm, found := strings.Cut(value, ":")
	if !found || mm != "00" {
		return 0, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}

// FormatHour is the inverse of ParseHour.
func FormatHour(hour int) string {
	if hour < 10 {
		return "0" + strconv.Itoa(hour) + ":00"
	}
	return strconv.Itoa(hour) + ":00"
}

// BookingFilter narrows booking listings. Empty fields match everything.
type BookingFilter struct {
	Date           string
	Status         string
	Activity       string
	InstructorName string
	Limit          int
}

// BookingPatch carries staff edits. Nil fields are left untouched.
type BookingPatch struct {
	FullName       *string `json:"full_name,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Activity       *string `json:"activity,omitempty"`
	Date           *string `json:"date,omitempty"`
	Time           *string `json:"time,omitempty"`
	Duration       *int    `json:"duration,omitempty"`
	InstructorName *string `json:"instructor_name,omitempty"`
}

// Apply writes the patch onto b and reports whether the occupied slot or
// the instructor changed.
func (p BookingPatch) Apply(b *Booking) (slotChanged bool) {
	if p.FullName != nil {
		b.Customer.FullName = *p.FullName
	}
	if p.Phone != nil {
		b.Customer.Phone = *p.Phone
	}
	if p.Email != nil {
		b.Customer.Email = *p.Email
	}
	if p.Activity != nil {
		b.Activity = *p.Activity
	}
	if p.Date != nil && *p.Date != b.Date {
		b.Date = *p.Date
		slotChanged = true
	}
	if p.Time != nil && *p.Time != b.Time {
		b.Time = *p.Time
		slotChanged = true
	}
	if p.Duration != nil && *p.Duration != b.Duration {
		b.Duration = *p.Duration
		slotChanged = true
	}
	if p.InstructorName != nil {
		name := strings.TrimSpace(*p.InstructorName)
		if name != b.InstructorName {
			b.InstructorName = name
			slotChanged = true
		}
	}
	return slotChanged
}
