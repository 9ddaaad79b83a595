package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/trial-lifecycle/internal/migrations"
	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx)
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		storage.DB.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return storage, cleanup
}

func testRecord(userID string, start time.Time) models.TrialRecord {
	return models.TrialRecord{
		UserID:        userID,
		Email:         userID + "@example.com",
		DisplayName:   "Test User",
		TrialStart:    start,
		TrialEnd:      start.AddDate(0, 0, 90),
		DaysRemaining: 90,
	}
}

func TestStorage_SaveLoadRemove(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	start := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	first := testRecord("user-1", start)
	second := testRecord("user-2", start.Add(time.Hour))

	require.NoError(t, storage.Save(ctx, first))
	require.NoError(t, storage.Save(ctx, second))

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "user-1", loaded[0].UserID)
	assert.Equal(t, "user-2", loaded[1].UserID)
	assert.True(t, loaded[0].TrialEnd.Equal(first.TrialEnd))
	assert.Empty(t, loaded[0].NotifiedThresholds)

	first.Expired = true
	first.DaysRemaining = 0
	first.NotifiedThresholds = []int{10, 5, 1}
	require.NoError(t, storage.Save(ctx, first))

	loaded, err = storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2, "upsert must not create a second row")
	assert.True(t, loaded[0].Expired)
	assert.Equal(t, []int{10, 5, 1}, loaded[0].NotifiedThresholds)

	require.NoError(t, storage.Remove(ctx, "user-1"))
	loaded, err = storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "user-2", loaded[0].UserID)

	require.NoError(t, storage.Remove(ctx, "missing"), "removing a missing record is not an error")
}

func TestStorage_NotificationHistory(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	ctx := context.Background()
	createdAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i, kind := range []string{models.KindTrialExpiring, models.KindTrialReminder, models.KindTrialExpired} {
		event := models.NotificationEvent{
			ID:            uuid.NewString(),
			UserID:        "user-1",
			Email:         "user-1@example.com",
			DisplayName:   "Test User",
			Kind:          kind,
			Message:       "notification " + kind,
			DaysRemaining: 10 - i,
			CreatedAt:     createdAt.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, storage.Append(ctx, event))
	}

	events, err := storage.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.KindTrialExpiring, events[0].Kind)
	assert.Equal(t, models.KindTrialExpired, events[2].Kind)
	assert.True(t, events[0].CreatedAt.Equal(createdAt))

	events, err = storage.ListByUser(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCheckDatabaseReady(t *testing.T) {
	storage, cleanup := setupTestStorage(t)
	defer cleanup()

	require.NoError(t, CheckDatabaseReady(storage))
}
