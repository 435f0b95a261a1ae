package repository

import (
	"context"
	"testing"
	"time"

	"surfside/internal/config"
	"surfside/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStateRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisStateRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetState", func(t *testing.T) {
		state := &models.FormState{
			SessionID: "abc",
			Step:      models.FormStepSlot,
			Data:      map[string]interface{}{"full_name": "Deniz", "duration": 2},
		}

		err := repo.SetState(ctx, state)
		require.NoError(t, err)
		assert.True(t, s.Exists("form_state:abc"))
		assert.Equal(t, time.Hour, s.TTL("form_state:abc"))

		got, err := repo.GetState(ctx, "abc")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.FormStepSlot, got.Step)
		assert.Equal(t, "Deniz", got.GetString("full_name"))
		assert.Equal(t, 2, got.GetInt("duration"))
	})

	t.Run("MissingState", func(t *testing.T) {
		got, err := repo.GetState(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptState", func(t *testing.T) {
		require.NoError(t, s.Set("form_state:bad", "{not json"))
		_, err := repo.GetState(ctx, "bad")
		assert.Error(t, err)
	})

	t.Run("ClearState", func(t *testing.T) {
		err := repo.ClearState(ctx, "abc")
		require.NoError(t, err)

		got, _ := repo.GetState(ctx, "abc")
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "10.0.0.1"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStateRepository(nil, time.Hour)
		_, err := repo.GetState(ctx, "abc")
		assert.ErrorIs(t, err, errNilClient)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("PingAfterShutdown", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		c := redis.NewClient(&redis.Options{Addr: down.Addr()})
		down.Close()
		assert.Error(t, Ping(ctx, c))
		assert.NoError(t, Close(c))
	})
}
