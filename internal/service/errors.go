package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"surfside/internal/models"
)

var (
	ErrInvalidBooking   = errors.New("invalid booking")
	ErrSlotNotAvailable = errors.New("slot is not available")
	ErrInstructorBusy   = errors.New("instructor is busy")
	ErrInvalidRoster    = errors.New("invalid instructor roster")
	ErrRateLimited      = errors.New("too many requests")
	ErrFormNotFound     = errors.New("form session not found")
	ErrFormIncomplete   = errors.New("form is incomplete")
	ErrNotifierDisabled = errors.New("staff notifications are disabled")
	ErrMissingPhone     = errors.New("customer phone is missing")
)

// ValidationError lists the offending fields of a rejected booking.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidBooking, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidBooking
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func invalidField(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ConflictError reports the confirmed bookings that keep an instructor busy.
type ConflictError struct {
	Instructor string
	Conflicts  []*models.Booking
}

func (e *ConflictError) Error() string {
	slots := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		slots = append(slots, fmt.Sprintf("%s %s (%dh)", b.Date, b.Time, b.Duration))
	}
	return fmt.Sprintf("%s: %s at %s", ErrInstructorBusy, e.Instructor, strings.Join(slots, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrInstructorBusy
}
