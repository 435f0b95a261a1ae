package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"surfside/internal/availability"
	"surfside/internal/domain"
	"surfside/internal/events"
	"surfside/internal/metrics"
	"surfside/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	ChannelWeb   = "web"
	ChannelAdmin = "admin"
	ChannelGRPC  = "grpc"
)

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	sheetsWorker   domain.SyncWorker
	maxBookingDays int
	location       *time.Location
	now            func() time.Time
	logger         *zerolog.Logger
}

func NewBookingService(
	repo domain.Repository,
	eventBus domain.EventPublisher,
	sheetsWorker domain.SyncWorker,
	maxBookingDays int,
	location *time.Location,
	logger *zerolog.Logger,
) *BookingService {
	if maxBookingDays <= 0 {
		maxBookingDays = models.DefaultMaxBookingDays
	}
	if location == nil {
		location = time.Local
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		sheetsWorker:   sheetsWorker,
		maxBookingDays: maxBookingDays,
		location:       location,
		now:            time.Now,
		logger:         logger,
	}
}

// Today returns the current local date in YYYY-MM-DD form.
func (s *BookingService) Today() string {
	return s.now().In(s.location).Format(models.DateLayout)
}

// ValidateBooking checks everything the availability engine assumes is well formed.
func (s *BookingService) ValidateBooking(b *models.Booking) error {
	return s.validate(b, true)
}

func (s *BookingService) validate(b *models.Booking, checkDateWindow bool) error {
	verr := &ValidationError{}

	if strings.TrimSpace(b.Customer.FullName) == "" {
		verr.add("full_name", "required")
	}
	if strings.TrimSpace(b.Customer.Phone) == "" {
		verr.add("phone", "required")
	}
	if strings.TrimSpace(b.Customer.Email) == "" {
		verr.add("email", "required")
	}
	if !models.IsValidActivity(b.Activity) {
		verr.add("activity", "unknown activity")
	}
	if !models.IsValidSlot(b.Time) {
		verr.add("time", "not a bookable slot")
	}
	if b.Duration < models.MinDuration || b.Duration > models.MaxDuration {
		verr.add("duration", "must be 1 or 2 hours")
	} else if models.IsValidSlot(b.Time) && !availability.FitsDay(b.Time, b.Duration) {
		verr.add("duration", "ends after the last slot")
	}

	day, err := time.ParseInLocation(models.DateLayout, b.Date, s.location)
	switch {
	case err != nil:
		verr.add("date", "must be YYYY-MM-DD")
	case checkDateWindow:
		today, _ := time.ParseInLocation(models.DateLayout, s.Today(), s.location)
		if day.Before(today) {
			verr.add("date", "is in the past")
		} else if day.After(today.AddDate(0, 0, s.maxBookingDays)) {
			verr.add("date", "is too far in the future")
		}
	}

	return verr.orNil()
}

// SubmitRequest stores a customer request as Pending once the activity still
// has a free qualified instructor for the whole range.
func (s *BookingService) SubmitRequest(ctx context.Context, b *models.Booking) error {
	b.Customer = b.Customer.Trimmed()
	b.Status = models.StatusPending
	b.InstructorName = ""
	if err := s.ValidateBooking(b); err != nil {
		metrics.ObserveBooking("submit", "invalid")
		return err
	}

	b.ID = uuid.NewString()
	b.CreatedAt = s.now().UnixMilli()

	guard := func(day []*models.Booking, roster []*models.Instructor) error {
		if !availability.IsSlotAvailableForActivity(b.Activity, b.Date, b.Time, b.Duration, day, roster) {
			return ErrSlotNotAvailable
		}
		return nil
	}

	if err := s.repo.CreateBookingChecked(ctx, b, guard); err != nil {
		metrics.ObserveBooking("submit", resultOf(err))
		return err
	}
	metrics.ObserveBooking("submit", "ok")

	s.publishEvent(events.EventBookingCreated, b, b.Customer.FullName, ChannelWeb)
	s.enqueueSync(ctx, b, models.SyncTaskUpsert)
	return nil
}

// CreateManualBooking stores a staff entry that is confirmed and already has
// an instructor.
func (s *BookingService) CreateManualBooking(ctx context.Context, b *models.Booking, actor string) error {
	b.Customer = b.Customer.Trimmed()
	if b.Customer.Email == "" {
		b.Customer.Email = models.ManualBookingEmail
	}
	b.Status = models.StatusConfirmed
	b.InstructorName = strings.TrimSpace(b.InstructorName)

	if err := s.validate(b, false); err != nil {
		metrics.ObserveBooking("manual", "invalid")
		return err
	}
	if b.InstructorName == "" {
		metrics.ObserveBooking("manual", "invalid")
		return invalidField("instructor_name", "required")
	}

	b.ID = uuid.NewString()
	b.CreatedAt = s.now().UnixMilli()

	if err := s.repo.CreateBookingChecked(ctx, b, s.instructorGuard(b, "")); err != nil {
		metrics.ObserveBooking("manual", resultOf(err))
		return err
	}
	metrics.ObserveBooking("manual", "ok")

	s.publishEvent(events.EventBookingCreated, b, actor, ChannelAdmin)
	s.enqueueSync(ctx, b, models.SyncTaskUpsert)
	return nil
}

// UpdateStatus moves a booking to status. Confirming a booking that already
// names an instructor re-checks that instructor. A zero version means the
// caller did not read the booking first and accepts the stored one.
func (s *BookingService) UpdateStatus(ctx context.Context, id string, version int64, status, actor string) (*models.Booking, error) {
	if !models.IsValidStatus(status) {
		return nil, invalidField("status", "unknown status")
	}

	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	fromVersion := versionOr(version, b)

	b.Status = status
	var guard domain.Guard
	if b.IsConfirmed() && b.HasInstructor() {
		guard = s.instructorGuard(b, b.InstructorName)
	}

	if err := s.repo.UpdateBookingChecked(ctx, b, fromVersion, guard); err != nil {
		metrics.ObserveBooking("status", resultOf(err))
		return nil, err
	}
	metrics.ObserveBooking("status", "ok")

	s.publishEvent(events.EventBookingStatusChanged, b, actor, ChannelAdmin)
	s.enqueueSync(ctx, b, models.SyncTaskUpdateStatus)
	return b, nil
}

// AssignInstructor sets or clears the instructor. Clearing is never blocked.
func (s *BookingService) AssignInstructor(ctx context.Context, id string, version int64, name, actor string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	fromVersion := versionOr(version, b)
	previous := b.InstructorName

	b.InstructorName = strings.TrimSpace(name)
	var guard domain.Guard
	if b.HasInstructor() {
		guard = s.instructorGuard(b, previous)
	}

	if err := s.repo.UpdateBookingChecked(ctx, b, fromVersion, guard); err != nil {
		metrics.ObserveBooking("assign", resultOf(err))
		return nil, err
	}
	metrics.ObserveBooking("assign", "ok")

	s.publishEvent(events.EventInstructorAssigned, b, actor, ChannelAdmin)
	s.enqueueSync(ctx, b, models.SyncTaskUpsert)
	return b, nil
}

// EditBooking applies a staff patch. The instructor is re-checked only when
// the occupied range or the instructor itself changed.
func (s *BookingService) EditBooking(ctx context.Context, id string, version int64, patch models.BookingPatch, actor string) (*models.Booking, error) {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	fromVersion := versionOr(version, b)
	originalDate, previous := b.Date, b.InstructorName

	slotChanged := patch.Apply(b)
	b.Customer = b.Customer.Trimmed()

	if err := s.validate(b, b.Date != originalDate); err != nil {
		metrics.ObserveBooking("edit", "invalid")
		return nil, err
	}

	var guard domain.Guard
	if slotChanged && b.HasInstructor() {
		guard = s.instructorGuard(b, previous)
	}

	if err := s.repo.UpdateBookingChecked(ctx, b, fromVersion, guard); err != nil {
		metrics.ObserveBooking("edit", resultOf(err))
		return nil, err
	}
	metrics.ObserveBooking("edit", "ok")

	s.publishEvent(events.EventBookingEdited, b, actor, ChannelAdmin)
	s.enqueueSync(ctx, b, models.SyncTaskUpsert)
	return b, nil
}

func (s *BookingService) DeleteBooking(ctx context.Context, id, actor string) error {
	b, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteBooking(ctx, id); err != nil {
		metrics.ObserveBooking("delete", resultOf(err))
		return err
	}
	metrics.ObserveBooking("delete", "ok")

	s.publishEvent(events.EventBookingDeleted, b, actor, ChannelAdmin)
	s.enqueueSync(ctx, b, models.SyncTaskDelete)
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, filter)
}

// ActionableBookings lists pending requests and confirmed ones still lacking an instructor.
func (s *BookingService) ActionableBookings(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListActionableBookings(ctx)
}

func (s *BookingService) BookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	return s.repo.GetBookingsByDate(ctx, date)
}

// CheckSlot answers the customer question for one slot. Selections missing
// the activity, date or time are reported available.
func (s *BookingService) CheckSlot(ctx context.Context, activity, date, slot string, duration int) (availability.SlotStatus, error) {
	status := availability.SlotStatus{Time: slot, Available: true}
	if err := checkRange(slot, duration); err != nil {
		return status, err
	}
	if slot != "" && !availability.FitsDay(slot, duration) {
		status.Available = false
		status.Reason = availability.ReasonExceedsDay
		metrics.ObserveCheck("slot", false)
		return status, nil
	}

	day, roster, err := s.snapshot(ctx, date)
	if err != nil {
		return status, err
	}
	if !availability.IsSlotAvailableForActivity(activity, date, slot, duration, day, roster) {
		status.Available = false
		status.Reason = availability.ReasonFull
	}
	metrics.ObserveCheck("slot", status.Available)
	return status, nil
}

// SlotGrid evaluates every slot of date for activity.
func (s *BookingService) SlotGrid(ctx context.Context, activity, date string, duration int) ([]availability.SlotStatus, error) {
	if err := checkRange("", duration); err != nil {
		return nil, err
	}
	day, roster, err := s.snapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	return availability.SlotGrid(activity, date, duration, day, roster), nil
}

// CheckInstructor reports whether name already has a confirmed booking
// overlapping the range, ignoring excludeID.
func (s *BookingService) CheckInstructor(ctx context.Context, name, date, slot string, duration int, excludeID string) (bool, []*models.Booking, error) {
	if err := checkRange(slot, duration); err != nil {
		return false, nil, err
	}
	day, err := s.repo.GetBookingsByDate(ctx, date)
	if err != nil {
		return false, nil, err
	}
	conflicts := availability.Conflicts(name, date, slot, duration, day, excludeID)
	metrics.ObserveCheck("instructor", len(conflicts) == 0)
	return len(conflicts) > 0, conflicts, nil
}

// FreeInstructors lists roster members free for the range. An empty activity
// skips the specialty filter.
func (s *BookingService) FreeInstructors(ctx context.Context, activity, date, slot string, duration int, excludeID string) ([]string, error) {
	if err := checkRange(slot, duration); err != nil {
		return nil, err
	}
	day, roster, err := s.snapshot(ctx, date)
	if err != nil {
		return nil, err
	}
	return availability.FreeInstructors(activity, date, slot, duration, day, roster, excludeID), nil
}

func (s *BookingService) snapshot(ctx context.Context, date string) ([]*models.Booking, []*models.Instructor, error) {
	var day []*models.Booking
	if date != "" {
		var err error
		if day, err = s.repo.GetBookingsByDate(ctx, date); err != nil {
			return nil, nil, err
		}
	}
	roster, err := s.repo.ListInstructors(ctx)
	if err != nil {
		return nil, nil, err
	}
	return day, roster, nil
}

// checkRange rejects a duration or start time the engine would silently
// treat as free. An empty slot is left to the engine.
func checkRange(slot string, duration int) error {
	verr := &ValidationError{}
	if slot != "" && !models.IsValidSlot(slot) {
		verr.add("time", "not a bookable slot")
	}
	if duration < models.MinDuration || duration > models.MaxDuration {
		verr.add("duration", "must be 1 or 2 hours")
	}
	return verr.orNil()
}

// instructorGuard rejects b when its instructor is already confirmed elsewhere
// in the same range, or when a newly set instructor is off the roster.
// A stale name kept from before a roster change only gets the busy check.
func (s *BookingService) instructorGuard(b *models.Booking, previous string) domain.Guard {
	return func(day []*models.Booking, roster []*models.Instructor) error {
		if b.InstructorName != previous && !onRoster(b.InstructorName, roster) {
			return invalidField("instructor_name", "unknown instructor")
		}
		if conflicts := availability.Conflicts(b.InstructorName, b.Date, b.Time, b.Duration, day, b.ID); len(conflicts) > 0 {
			return &ConflictError{Instructor: b.InstructorName, Conflicts: conflicts}
		}
		return nil
	}
}

func onRoster(name string, roster []*models.Instructor) bool {
	for _, in := range roster {
		if in.Name == name {
			return true
		}
	}
	return false
}

func versionOr(version int64, b *models.Booking) int64 {
	if version > 0 {
		return version
	}
	return b.Version
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, ErrSlotNotAvailable), errors.Is(err, ErrInstructorBusy):
		return "conflict"
	case errors.Is(err, ErrInvalidBooking):
		return "invalid"
	default:
		return "error"
	}
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, changedBy, channel string) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:      b.ID,
		CustomerName:   b.Customer.FullName,
		Phone:          b.Customer.Phone,
		Activity:       b.Activity,
		Date:           b.Date,
		Time:           b.Time,
		Duration:       b.Duration,
		Status:         b.Status,
		InstructorName: b.InstructorName,
		ChangedBy:      changedBy,
		Channel:        channel,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}

func (s *BookingService) enqueueSync(ctx context.Context, b *models.Booking, taskType string) {
	if s.sheetsWorker == nil {
		return
	}

	var status string
	if taskType == models.SyncTaskUpdateStatus {
		status = b.Status
	}

	if err := s.sheetsWorker.EnqueueTask(ctx, taskType, b.ID, b, status); err != nil {
		s.logger.Error().Err(err).Str("booking_id", b.ID).Str("task", taskType).Msg("sheets enqueue error")
	}
}
