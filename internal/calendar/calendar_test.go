package calendar

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trade-journal-go/internal/cache"
	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memEntryStore struct {
	entries map[string]*models.CacheEntry
}

func (m *memEntryStore) LatestCacheEntry(key string) (*models.CacheEntry, error) {
	return m.entries[key], nil
}

func (m *memEntryStore) SaveCacheEntry(entry *models.CacheEntry) error {
	m.entries[entry.Key] = entry
	return nil
}

func (m *memEntryStore) DeleteCacheEntries(key string) error {
	delete(m.entries, key)
	return nil
}

func (m *memEntryStore) ClearCache() error {
	m.entries = map[string]*models.CacheEntry{}
	return nil
}

const calendarJSON = `[
  {"time":"2024-03-08T13:30:00Z","currency":"USD","impact":"high","title":"Non-Farm Payrolls"},
  {"time":"2024-03-12T12:30:00Z","currency":"USD","impact":"high","title":"CPI"}
]`

func TestEventsFetchAndCache(t *testing.T) {
	hits := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(calendarJSON))
	}))
	defer upstream.Close()

	store := &memEntryStore{entries: map[string]*models.CacheEntry{}}
	svc := New(upstream.URL, time.Hour, cache.New(store, zap.NewNop()), zap.NewNop())

	events, source, err := svc.Events()
	require.NoError(t, err)
	assert.Equal(t, cache.SourceAPI, source)
	require.Len(t, events, 2)
	assert.Equal(t, "Non-Farm Payrolls", events[0].Title)

	// Second call within TTL is served from cache
	events, source, err = svc.Events()
	require.NoError(t, err)
	assert.Equal(t, cache.SourceCache, source)
	assert.Len(t, events, 2)
	assert.Equal(t, 1, hits)
}

func TestEventsStaleFallback(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	store := &memEntryStore{entries: map[string]*models.CacheEntry{
		"economic-calendar": {
			Key:        "economic-calendar",
			Payload:    calendarJSON,
			FetchedAt:  time.Now().Add(-48 * time.Hour), // long expired
			TTLSeconds: 3600,
		},
	}}
	svc := New(upstream.URL, time.Hour, cache.New(store, zap.NewNop()), zap.NewNop())

	events, source, err := svc.Events()
	require.NoError(t, err)
	assert.Equal(t, cache.SourceStaleFallback, source)
	assert.Len(t, events, 2)
}

func TestRefreshDuringOutageKeepsStaleEvents(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	store := &memEntryStore{entries: map[string]*models.CacheEntry{
		"economic-calendar": {
			Key:        "economic-calendar",
			Payload:    calendarJSON,
			FetchedAt:  time.Now().Add(-48 * time.Hour),
			TTLSeconds: 3600,
		},
	}}
	svc := New(upstream.URL, time.Hour, cache.New(store, zap.NewNop()), zap.NewNop())

	events, source, err := svc.Events()
	require.NoError(t, err)
	assert.Equal(t, cache.SourceStaleFallback, source)
	require.Len(t, events, 2)

	// The scheduled refresh fails against the down upstream...
	assert.Error(t, svc.Refresh())

	// ...but must not have deleted the snapshot it could not replace
	events, source, err = svc.Events()
	require.NoError(t, err)
	assert.Equal(t, cache.SourceStaleFallback, source)
	assert.Len(t, events, 2)
}

func TestEventsNoDataAnywhere(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	store := &memEntryStore{entries: map[string]*models.CacheEntry{}}
	svc := New(upstream.URL, time.Hour, cache.New(store, zap.NewNop()), zap.NewNop())

	events, _, err := svc.Events()
	assert.Empty(t, events)
	assert.ErrorIs(t, err, models.ErrNoCacheData)
}
