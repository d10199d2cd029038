package cache

import (
	"fmt"
	"time"

	"trade-journal-go/internal/models"

	"go.uber.org/zap"
)

// Source tells the caller where a payload came from.
type Source string

const (
	SourceCache         Source = "cache"
	SourceAPI           Source = "api"
	SourceStaleFallback Source = "stale-fallback"
)

// Fetcher retrieves a fresh payload from the upstream.
type Fetcher func() (string, error)

// FetchResult is the outcome of one TTL-gated fetch. When no live payload and
// no cached payload of any age exist, Payload is empty and Err is set; the
// caller renders "no data" instead of crashing.
type FetchResult struct {
	Payload string
	Source  Source
	Err     error
}

// EntryStore is the slice of the persistence gateway the cache needs.
type EntryStore interface {
	LatestCacheEntry(key string) (*models.CacheEntry, error)
	SaveCacheEntry(entry *models.CacheEntry) error
	DeleteCacheEntries(key string) error
	ClearCache() error
}

// Service is a TTL-gated external-data cache with staleness fallback, shared
// by every component that fetches from a rate-limited upstream. Entries are
// persisted so the fallback survives restarts.
type Service struct {
	store  EntryStore
	logger *zap.Logger
	now    func() time.Time
}

// New creates a cache service.
func New(store EntryStore, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// FetchWithCache returns a valid cached payload when one exists, otherwise
// calls the fetcher. A fetcher failure falls back to the most recent cache
// entry regardless of TTL, tagged stale-fallback.
func (s *Service) FetchWithCache(key string, ttl time.Duration, fetcher Fetcher) FetchResult {
	entry := s.latest(key)
	if entry != nil && entry.IsValid(s.now()) {
		return FetchResult{Payload: entry.Payload, Source: SourceCache}
	}
	return s.fetchAndStore(key, ttl, fetcher, entry)
}

// Refresh bypasses the TTL gate: the fetcher is always called and a fresh
// payload replaces the stored snapshot. On failure the existing snapshot is
// left untouched, so the stale fallback stays available.
func (s *Service) Refresh(key string, ttl time.Duration, fetcher Fetcher) FetchResult {
	return s.fetchAndStore(key, ttl, fetcher, s.latest(key))
}

func (s *Service) latest(key string) *models.CacheEntry {
	entry, err := s.store.LatestCacheEntry(key)
	if err != nil {
		s.logger.Warn("Cache lookup failed, falling through to upstream", zap.String("key", key), zap.Error(err))
		return nil
	}
	return entry
}

// fetchAndStore calls the fetcher and persists its result. fallback is the
// newest stored entry of any age, used when the fetch fails.
func (s *Service) fetchAndStore(key string, ttl time.Duration, fetcher Fetcher, fallback *models.CacheEntry) FetchResult {
	payload, fetchErr := fetcher()
	if fetchErr == nil {
		saved := &models.CacheEntry{
			Key:        key,
			Payload:    payload,
			FetchedAt:  s.now(),
			TTLSeconds: int(ttl / time.Second),
			Source:     string(SourceAPI),
		}
		if err := s.store.SaveCacheEntry(saved); err != nil {
			s.logger.Warn("Failed to persist cache entry", zap.String("key", key), zap.Error(err))
		}
		return FetchResult{Payload: payload, Source: SourceAPI}
	}

	s.logger.Warn("Upstream fetch failed",
		zap.String("key", key),
		zap.Error(fetchErr),
	)
	if fallback != nil {
		return FetchResult{Payload: fallback.Payload, Source: SourceStaleFallback}
	}
	return FetchResult{
		Source: SourceStaleFallback,
		Err:    fmt.Errorf("%w: %v", models.ErrNoCacheData, fetchErr),
	}
}

// Invalidate drops the cached payloads of one key.
func (s *Service) Invalidate(key string) error {
	return s.store.DeleteCacheEntries(key)
}

// Clear drops every cached payload.
func (s *Service) Clear() error {
	return s.store.ClearCache()
}
