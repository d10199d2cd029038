package calendar

import (
	"encoding/json"
	"fmt"
	"time"

	"trade-journal-go/internal/cache"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const cacheKey = "economic-calendar"

// Event is one scheduled economic release.
type Event struct {
	Time     time.Time `json:"time"`
	Currency string    `json:"currency"`
	Impact   string    `json:"impact"`
	Title    string    `json:"title"`
}

// Service serves the economic calendar through the freshness cache, so the
// rate-limited upstream is hit at most once per TTL and an outage degrades to
// the last known payload instead of an empty screen.
type Service struct {
	client *resty.Client
	cache  *cache.Service
	logger *zap.Logger
	url    string
	ttl    time.Duration
}

// New creates a calendar service.
func New(url string, ttl time.Duration, cacheSvc *cache.Service, logger *zap.Logger) *Service {
	return &Service{
		client: resty.New(),
		cache:  cacheSvc,
		logger: logger,
		url:    url,
		ttl:    ttl,
	}
}

// Events returns upcoming calendar events plus the source tag of the payload
// (cache, api or stale-fallback). With no data anywhere the event slice is
// empty and the error explicit.
func (s *Service) Events() ([]Event, cache.Source, error) {
	res := s.cache.FetchWithCache(cacheKey, s.ttl, s.fetch)
	if res.Err != nil {
		return nil, res.Source, res.Err
	}

	var events []Event
	if err := json.Unmarshal([]byte(res.Payload), &events); err != nil {
		return nil, res.Source, fmt.Errorf("failed to decode calendar payload: %w", err)
	}
	return events, res.Source, nil
}

// Refresh fetches a fresh payload and replaces the cached one on success.
// A failed fetch leaves the existing snapshot in place so Events can still
// serve the stale fallback through an outage.
func (s *Service) Refresh() error {
	res := s.cache.Refresh(cacheKey, s.ttl, s.fetch)
	if res.Err != nil {
		return res.Err
	}
	if res.Source != cache.SourceAPI {
		return fmt.Errorf("calendar refresh kept the prior payload (source %s)", res.Source)
	}
	s.logger.Debug("Calendar refreshed", zap.String("source", string(res.Source)))
	return nil
}

func (s *Service) fetch() (string, error) {
	resp, err := s.client.R().Get(s.url)
	if err != nil {
		return "", fmt.Errorf("calendar request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("calendar request failed with status %s", resp.Status())
	}
	return resp.String(), nil
}
