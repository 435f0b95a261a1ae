package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"surfside/internal/models"
	"surfside/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestFormService(t *testing.T, repo *fakeRepo, limit int) *FormService {
	t.Helper()
	bookings, _, _ := newTestBookingService(t, repo)
	state := repository.NewMemoryStateRepository(time.Hour)
	svc := NewFormService(state, bookings, limit, time.Minute, testLogger())
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestFormService_Flow(t *testing.T) {
	repo := newFakeRepo(instructor("A", models.ActivityKitesurf))
	svc := newTestFormService(t, repo, 10)
	ctx := context.Background()

	state, err := svc.Start(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, state.SessionID)
	assert.Equal(t, models.FormStepCustomer, state.Step)
	session := state.SessionID

	t.Run("SlotBeforeCustomer", func(t *testing.T) {
		_, err := svc.SaveSlot(ctx, session, SlotSelection{Activity: models.ActivityKitesurf, Date: testDate, Time: "10:00", Duration: 1})
		assert.ErrorIs(t, err, ErrFormIncomplete)
	})

	t.Run("SubmitBeforeSlot", func(t *testing.T) {
		_, err := svc.Submit(ctx, session, "1.2.3.4")
		assert.ErrorIs(t, err, ErrFormIncomplete)
	})

	t.Run("CustomerValidation", func(t *testing.T) {
		_, err := svc.SaveCustomer(ctx, session, models.Customer{FullName: " ", Phone: "0532"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "full_name")
		assert.Contains(t, verr.Fields, "email")
	})

	t.Run("Customer", func(t *testing.T) {
		state, err := svc.SaveCustomer(ctx, session, models.Customer{FullName: " Deniz ", Phone: "0532", Email: "d@example.com"})
		require.NoError(t, err)
		assert.Equal(t, models.FormStepSlot, state.Step)
		assert.Equal(t, "Deniz", state.GetString("full_name"))
	})

	t.Run("SlotTaken", func(t *testing.T) {
		repo.put(confirmedBooking("a-10", "A", "10:00", 1))
		_, err := svc.SaveSlot(ctx, session, SlotSelection{Activity: models.ActivityKitesurf, Date: testDate, Time: "10:00", Duration: 1})
		assert.ErrorIs(t, err, ErrSlotNotAvailable)
	})

	t.Run("SlotInvalid", func(t *testing.T) {
		_, err := svc.SaveSlot(ctx, session, SlotSelection{Activity: models.ActivityKitesurf, Date: testDate, Time: "19:00", Duration: 2})
		assert.ErrorIs(t, err, ErrInvalidBooking)
	})

	t.Run("Submit", func(t *testing.T) {
		_, err := svc.SaveSlot(ctx, session, SlotSelection{Activity: models.ActivityKitesurf, Date: testDate, Time: "11:00", Duration: 2})
		require.NoError(t, err)

		b, err := svc.Submit(ctx, session, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, b.Status)
		assert.Equal(t, "11:00", b.Time)
		assert.Equal(t, 2, b.Duration)
		assert.Equal(t, "Deniz", b.Customer.FullName)

		_, err = svc.Get(ctx, session)
		assert.ErrorIs(t, err, ErrFormNotFound)
	})

	t.Run("Discard", func(t *testing.T) {
		st, err := svc.Start(ctx, "named")
		require.NoError(t, err)
		assert.Equal(t, "named", st.SessionID)
		require.NoError(t, svc.Discard(ctx, "named"))
		_, err = svc.Get(ctx, "named")
		assert.ErrorIs(t, err, ErrFormNotFound)
	})
}

func TestFormService_RateLimit(t *testing.T) {
	repo := newFakeRepo(instructor("A", models.ActivityKitesurf))
	svc := newTestFormService(t, repo, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.SubmitBooking(ctx, "9.9.9.9", request(models.ActivityKitesurf, "09:00", 1)))
	}
	err := svc.SubmitBooking(ctx, "9.9.9.9", request(models.ActivityKitesurf, "09:00", 1))
	assert.ErrorIs(t, err, ErrRateLimited)

	assert.NoError(t, svc.SubmitBooking(ctx, "8.8.8.8", request(models.ActivityKitesurf, "09:00", 1)))
}

func TestFormService_RateLimitStoreDown(t *testing.T) {
	state := new(mockStateRepo)
	state.On("CheckRateLimit", mock.Anything, "submit:k", 10, time.Minute).Return(false, errors.New("redis down")).Once()

	bookings, _, _ := newTestBookingService(t, newFakeRepo(instructor("A", models.ActivityKitesurf)))
	svc := NewFormService(state, bookings, 10, time.Minute, testLogger())

	assert.NoError(t, svc.SubmitBooking(context.Background(), "k", request(models.ActivityKitesurf, "09:00", 1)))
	state.AssertExpectations(t)
}
