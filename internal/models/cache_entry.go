package models

import (
	"time"

	"gorm.io/gorm"
)

// CacheEntry is one persisted snapshot of an external payload, e.g. the
// economic calendar. It outlives the process so stale fallback keeps working
// across restarts.
type CacheEntry struct {
	gorm.Model `json:"-"`
	Key        string `gorm:"index" json:"key"`

	Payload    string    `json:"payload"`
	FetchedAt  time.Time `json:"fetched_at"`
	TTLSeconds int       `json:"ttl_seconds"`
	Source     string    `json:"source"`
}

// IsValid reports whether the entry is still within its TTL at the given time.
func (e *CacheEntry) IsValid(now time.Time) bool {
	return now.Sub(e.FetchedAt) < time.Duration(e.TTLSeconds)*time.Second
}
