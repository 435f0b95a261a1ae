package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"surfside/internal/domain"
	"surfside/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverStateRepository routes calls to primary until it errors, then to
// fallback. Reads probe primary again once recoveryInterval has passed.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverStateRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	r.isDown.Store(true)
	r.touch()
}

func (r *FailoverStateRepository) touch() {
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverStateRepository) shouldProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Since(r.lastCheck) > recoveryInterval
}

func (r *FailoverStateRepository) GetState(ctx context.Context, sessionID string) (*models.FormState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetState(ctx, sessionID)
		if err == nil {
			return state, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		state, err := r.primary.GetState(ctx, sessionID)
		if err == nil {
			r.logger.Info().Msg("Primary state repository recovered")
			r.isDown.Store(false)
			return state, nil
		}
		r.touch()
	}

	return r.fallback.GetState(ctx, sessionID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.FormState) error {
	if !r.isDown.Load() {
		err := r.primary.SetState(ctx, state)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, sessionID string) error {
	if !r.isDown.Load() {
		err := r.primary.ClearState(ctx, sessionID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearState(ctx, sessionID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}
