package models

import (
	"time"

	"gorm.io/gorm"
)

// Payout represents a withdrawal confirmed by a provider, usually scraped
// from an email receipt.
type Payout struct {
	gorm.Model `json:"-"`
	PayoutID   string `gorm:"uniqueIndex" json:"payout_id"`
	UserID     string `gorm:"index" json:"user_id"`

	Login    string    `json:"login"`
	Provider string    `json:"provider"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`

	SourceKind SourceKind `json:"source_kind"`
}
