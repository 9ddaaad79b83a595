package registry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/trial-lifecycle/internal/models"
	"github.com/magabrotheeeer/trial-lifecycle/internal/registry"
)

func newRecord(userID string) models.TrialRecord {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return models.TrialRecord{
		UserID:     userID,
		Email:      userID + "@example.com",
		TrialStart: start,
		TrialEnd:   start.AddDate(0, 0, 90),
	}
}

func TestRegistry_PutGetRemove(t *testing.T) {
	ctx := context.Background()
	r := registry.New()

	require.NoError(t, r.Put(ctx, newRecord("alice")))
	require.NoError(t, r.Put(ctx, newRecord("bob")))
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", got.UserID)

	removed, ok, err := r.Remove(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", removed.UserID)

	_, ok = r.Get("alice")
	assert.False(t, ok)

	_, ok, err = r.Remove(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok, "second remove finds nothing")
}

func TestRegistry_AllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := registry.New()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, r.Put(ctx, newRecord(id)))
	}

	var ids []string
	for _, record := range r.All() {
		ids = append(ids, record.UserID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, []string{"c", "a", "b"}, r.UserIDs())
}

func TestRegistry_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	r := registry.New()

	record := newRecord("alice")
	record.NotifiedThresholds = []int{10}
	require.NoError(t, r.Put(ctx, record))

	got, ok := r.Get("alice")
	require.True(t, ok)
	got.NotifiedThresholds[0] = 99
	got.Expired = true

	fresh, _ := r.Get("alice")
	assert.Equal(t, []int{10}, fresh.NotifiedThresholds)
	assert.False(t, fresh.Expired)
}

func TestRegistry_GetOrCreate_Concurrent(t *testing.T) {
	ctx := context.Background()
	r := registry.New()

	const workers = 32
	created := make(chan models.TrialRecord, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			record, isNew, err := r.GetOrCreate(ctx, "alice", func() models.TrialRecord {
				rec := newRecord("alice")
				rec.TrialStart = rec.TrialStart.Add(time.Duration(n) * time.Millisecond)
				return rec
			})
			assert.NoError(t, err)
			if isNew {
				created <- record
			}
		}(i)
	}
	wg.Wait()
	close(created)

	var winners []models.TrialRecord
	for record := range created {
		winners = append(winners, record)
	}
	require.Len(t, winners, 1, "exactly one goroutine may create the record")

	got, ok := r.Get("alice")
	require.True(t, ok)
	assert.Equal(t, winners[0].TrialStart, got.TrialStart, "record must not be overwritten by losers")
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UpdateSkipsMissingRecord(t *testing.T) {
	ctx := context.Background()
	r := registry.New()

	_, ok, err := r.Update(ctx, "ghost", func(rec models.TrialRecord) models.TrialRecord {
		t.Fatal("fn must not be called for a missing record")
		return rec
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_UpdateAppliesUnderLock(t *testing.T) {
	ctx := context.Background()
	r := registry.New()
	require.NoError(t, r.Put(ctx, newRecord("alice")))

	updated, ok, err := r.Update(ctx, "alice", func(rec models.TrialRecord) models.TrialRecord {
		rec.NotifiedThresholds = append(rec.NotifiedThresholds, 10)
		return rec
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{10}, updated.NotifiedThresholds)

	got, _ := r.Get("alice")
	assert.Equal(t, []int{10}, got.NotifiedThresholds)
}

func TestRegistry_UpdatePanicLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	r := registry.New()
	require.NoError(t, r.Put(ctx, newRecord("alice")))

	require.Panics(t, func() {
		_, _, _ = r.Update(ctx, "alice", func(models.TrialRecord) models.TrialRecord {
			panic("boom")
		})
	})

	got, ok := r.Get("alice")
	require.True(t, ok)
	assert.Empty(t, got.NotifiedThresholds)

	// Реестр не остался заблокированным после паники.
	require.NoError(t, r.Put(ctx, newRecord("bob")))
}

type fakeStore struct {
	mu      sync.Mutex
	saved   []string
	removed []string
	initial []models.TrialRecord
}

func (s *fakeStore) Load(context.Context) ([]models.TrialRecord, error) {
	return s.initial, nil
}

func (s *fakeStore) Save(_ context.Context, record models.TrialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, record.UserID)
	return nil
}

func (s *fakeStore) Remove(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, userID)
	return nil
}

func TestRegistry_StoreHooks(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{initial: []models.TrialRecord{newRecord("alice")}}

	r, err := registry.NewWithStore(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Put(ctx, newRecord("bob")))
	_, _, err = r.Remove(ctx, "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{"bob"}, store.saved)
	assert.Equal(t, []string{"alice"}, store.removed)
}
