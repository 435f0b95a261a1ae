package service

import (
	"context"
	"testing"

	"surfside/internal/events"
	"surfside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestInstructorService(t *testing.T) {
	ctx := context.Background()

	t.Run("RosterSeedsDefaults", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewInstructorService(repo, nil, nil, testLogger())

		roster, err := svc.Roster(ctx)
		require.NoError(t, err)
		require.Len(t, roster, len(models.DefaultInstructorNames))
		assert.Equal(t, "Samican", roster[0].Name)
	})

	t.Run("SaveRoster", func(t *testing.T) {
		repo := newFakeRepo()
		bus := new(mockEventBus)
		bus.On("PublishJSON", events.EventRosterUpdated, mock.Anything).Return(nil).Once()
		svc := NewInstructorService(repo, bus, nil, testLogger())

		saved, err := svc.SaveRoster(ctx, []*models.Instructor{
			{Name: " Zeynep ", Specialties: []string{models.ActivityWingfoil, models.ActivityWingfoil, " "}},
			nil,
			{Name: "Ata", Specialties: []string{models.ActivityKitesurf}},
		}, "admin")
		require.NoError(t, err)
		require.Len(t, saved, 2)
		assert.Equal(t, "Zeynep", saved[0].Name)
		assert.Equal(t, []string{models.ActivityWingfoil}, saved[0].Specialties)

		roster, _ := repo.ListInstructors(ctx)
		assert.Len(t, roster, 2)
		bus.AssertExpectations(t)
	})

	t.Run("RejectsInvalid", func(t *testing.T) {
		svc := NewInstructorService(newFakeRepo(), nil, nil, testLogger())

		cases := map[string][]*models.Instructor{
			"empty":     {},
			"blank":     {{Name: "  "}},
			"duplicate": {{Name: "Ata"}, {Name: " Ata"}},
			"specialty": {{Name: "Ata", Specialties: []string{"Snorkel"}}},
		}
		for name, roster := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := svc.SaveRoster(ctx, roster, "admin")
				assert.ErrorIs(t, err, ErrInvalidRoster)
			})
		}
	})
}
