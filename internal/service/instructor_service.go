package service

import (
	"context"
	"fmt"
	"strings"

	"surfside/internal/config"
	"surfside/internal/domain"
	"surfside/internal/events"
	"surfside/internal/models"

	"github.com/rs/zerolog"
)

// RosterEventPayload is published after the roster is replaced.
type RosterEventPayload struct {
	Names     []string `json:"names"`
	ChangedBy string   `json:"changed_by"`
}

type InstructorService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	defaults []*models.Instructor
	logger   *zerolog.Logger
}

// NewInstructorService seeds an empty store with defaults on first use.
func NewInstructorService(repo domain.Repository, eventBus domain.EventPublisher, defaults []*models.Instructor, logger *zerolog.Logger) *InstructorService {
	if len(defaults) == 0 {
		defaults = models.DefaultInstructors()
	}
	return &InstructorService{
		repo:     repo,
		eventBus: eventBus,
		defaults: defaults,
		logger:   logger,
	}
}

// EnsureRoster stores the default roster when none exists yet.
func (s *InstructorService) EnsureRoster(ctx context.Context) error {
	seeded, err := s.repo.EnsureInstructors(ctx, s.defaults)
	if err != nil {
		return fmt.Errorf("failed to seed instructors: %w", err)
	}
	if seeded {
		s.logger.Info().Int("count", len(s.defaults)).Msg("default roster stored")
	}
	return nil
}

func (s *InstructorService) Roster(ctx context.Context) ([]*models.Instructor, error) {
	roster, err := s.repo.ListInstructors(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) > 0 {
		return roster, nil
	}
	if err := s.EnsureRoster(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListInstructors(ctx)
}

// SaveRoster replaces the roster. Bookings keep whatever instructor names
// they already carry.
func (s *InstructorService) SaveRoster(ctx context.Context, roster []*models.Instructor, actor string) ([]*models.Instructor, error) {
	cleaned := make([]*models.Instructor, 0, len(roster))
	for _, in := range roster {
		if in == nil {
			continue
		}
		cleaned = append(cleaned, &models.Instructor{
			Name:        strings.TrimSpace(in.Name),
			Specialties: dedupe(in.Specialties),
		})
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one instructor is required", ErrInvalidRoster)
	}
	if err := config.ValidateInstructors(cleaned); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRoster, err)
	}

	if err := s.repo.ReplaceInstructors(ctx, cleaned); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cleaned))
	for _, in := range cleaned {
		names = append(names, in.Name)
	}
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventRosterUpdated, RosterEventPayload{Names: names, ChangedBy: actor}); err != nil {
			s.logger.Error().Err(err).Msg("publish roster event error")
		}
	}
	s.logger.Info().Strs("instructors", names).Str("actor", actor).Msg("roster updated")
	return cleaned, nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
