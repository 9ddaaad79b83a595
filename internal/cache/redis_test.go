package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trial-lifecycle/internal/config"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := models.SubscriptionView{
		PlanID:        models.PlanTrial,
		Status:        models.StatusActive,
		IsTrial:       true,
		DaysRemaining: 42,
	}
	err := cache.Set("subscription:view:user-1", expected, time.Minute)
	require.NoError(t, err)

	var actual models.SubscriptionView
	found, err := cache.Get("subscription:view:user-1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out models.SubscriptionView
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("subscription:view:user-1", models.SubscriptionView{}, time.Minute))
	require.NoError(t, cache.Invalidate("subscription:view:user-1"))

	var out models.SubscriptionView
	found, err := cache.Get("subscription:view:user-1", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
