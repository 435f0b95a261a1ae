package service

import (
	"context"
	"fmt"
	"time"

	"surfside/internal/availability"
	"surfside/internal/domain"
	"surfside/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestSubmitter is the part of BookingService the customer form drives.
type RequestSubmitter interface {
	ValidateBooking(b *models.Booking) error
	CheckSlot(ctx context.Context, activity, date, slot string, duration int) (availability.SlotStatus, error)
	SubmitRequest(ctx context.Context, b *models.Booking) error
}

// SlotSelection is the second step of the customer form.
type SlotSelection struct {
	Activity string `json:"activity"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
}

// FormService keeps multi-step customer drafts and turns a finished draft
// into a booking request.
type FormService struct {
	state      domain.StateRepository
	bookings   RequestSubmitter
	rateLimit  int
	rateWindow time.Duration
	now        func() time.Time
	logger     *zerolog.Logger
}

func NewFormService(state domain.StateRepository, bookings RequestSubmitter, rateLimit int, rateWindow time.Duration, logger *zerolog.Logger) *FormService {
	if rateLimit <= 0 {
		rateLimit = models.RateLimitRequests
	}
	if rateWindow <= 0 {
		rateWindow = time.Duration(models.RateLimitWindow) * time.Second
	}
	return &FormService{
		state:      state,
		bookings:   bookings,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
		now:        time.Now,
		logger:     logger,
	}
}

// Start opens (or resets) a draft. An empty sessionID gets a fresh one.
func (s *FormService) Start(ctx context.Context, sessionID string) (*models.FormState, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state := &models.FormState{
		SessionID: sessionID,
		Step:      models.FormStepCustomer,
		Data:      make(map[string]interface{}),
		UpdatedAt: s.now(),
	}
	if err := s.state.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *FormService) Get(ctx context.Context, sessionID string) (*models.FormState, error) {
	state, err := s.state.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrFormNotFound
	}
	return state, nil
}

func (s *FormService) Discard(ctx context.Context, sessionID string) error {
	return s.state.ClearState(ctx, sessionID)
}

// SaveCustomer stores step one and advances the draft to slot selection.
func (s *FormService) SaveCustomer(ctx context.Context, sessionID string, customer models.Customer) (*models.FormState, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	customer = customer.Trimmed()
	verr := &ValidationError{}
	if customer.FullName == "" {
		verr.add("full_name", "required")
	}
	if customer.Phone == "" {
		verr.add("phone", "required")
	}
	if customer.Email == "" {
		verr.add("email", "required")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	state.Set("full_name", customer.FullName)
	state.Set("phone", customer.Phone)
	state.Set("email", customer.Email)
	state.Step = models.FormStepSlot
	return s.save(ctx, state)
}

// SaveSlot stores step two after a validation pass and an advisory
// availability check. The authoritative check happens on submit.
func (s *FormService) SaveSlot(ctx context.Context, sessionID string, sel SlotSelection) (*models.FormState, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step != models.FormStepSlot {
		return nil, fmt.Errorf("%w: customer details first", ErrFormIncomplete)
	}

	draft := &models.Booking{
		Customer: state.Customer(),
		Activity: sel.Activity,
		Date:     sel.Date,
		Time:     sel.Time,
		Duration: sel.Duration,
	}
	if err := s.bookings.ValidateBooking(draft); err != nil {
		return nil, err
	}

	status, err := s.bookings.CheckSlot(ctx, sel.Activity, sel.Date, sel.Time, sel.Duration)
	if err != nil {
		return nil, err
	}
	if !status.Available {
		return nil, ErrSlotNotAvailable
	}

	state.Set("activity", sel.Activity)
	state.Set("date", sel.Date)
	state.Set("time", sel.Time)
	state.Set("duration", sel.Duration)
	return s.save(ctx, state)
}

// Submit turns a complete draft into a pending request and drops the draft.
func (s *FormService) Submit(ctx context.Context, sessionID, clientKey string) (*models.Booking, error) {
	state, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step != models.FormStepSlot || state.GetString("time") == "" {
		return nil, fmt.Errorf("%w: slot not selected", ErrFormIncomplete)
	}

	b := &models.Booking{
		Customer: state.Customer(),
		Activity: state.GetString("activity"),
		Date:     state.GetString("date"),
		Time:     state.GetString("time"),
		Duration: state.GetInt("duration"),
	}
	if err := s.SubmitBooking(ctx, clientKey, b); err != nil {
		return nil, err
	}

	if err := s.state.ClearState(ctx, sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("failed to clear form state")
	}
	return b, nil
}

// SubmitBooking is the single-shot variant used by the plain JSON endpoint.
func (s *FormService) SubmitBooking(ctx context.Context, clientKey string, b *models.Booking) error {
	allowed, err := s.state.CheckRateLimit(ctx, "submit:"+clientKey, s.rateLimit, s.rateWindow)
	if err != nil {
		s.logger.Error().Err(err).Str("client", clientKey).Msg("rate limit check failed")
	} else if !allowed {
		return ErrRateLimited
	}
	return s.bookings.SubmitRequest(ctx, b)
}

func (s *FormService) save(ctx context.Context, state *models.FormState) (*models.FormState, error) {
	state.UpdatedAt = s.now()
	if err := s.state.SetState(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
