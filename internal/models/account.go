package models

import "gorm.io/gorm"

// Account represents a trading account or prop-firm evaluation that trades
// belong to. An account exclusively owns its trades by foreign key; deleting
// it cascades to delete them.
type Account struct {
	gorm.Model `json:"-"`
	AccountID  string `gorm:"uniqueIndex" json:"account_id"`
	UserID     string `gorm:"index" json:"user_id"`

	Name           string  `json:"name"`
	Broker         string  `json:"broker"`
	Currency       string  `json:"currency"`
	InitialBalance float64 `json:"initial_balance"`
	IsDemo         bool    `json:"is_demo"`
	IsActive       bool    `gorm:"default:true" json:"is_active"`

	SourceKind SourceKind `json:"source_kind"`
}
