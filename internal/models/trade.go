package models

import (
	"time"

	"gorm.io/gorm"
)

// Trade represents one executed position in the ledger.
// The Pnl* fields are derived and recomputed whenever price, quantity,
// commission or direction changes; they are nil while the trade is open so
// callers can distinguish "no data" from zero profit.
type Trade struct {
	gorm.Model `json:"-"`
	TradeID    string `gorm:"uniqueIndex" json:"trade_id"`
	UserID     string `gorm:"index" json:"user_id"`
	AccountID  string `gorm:"index" json:"account_id"`

	Symbol    string      `json:"symbol"`
	AssetType AssetType   `json:"asset_type"`
	Direction Direction   `json:"direction"`
	Quantity  float64     `json:"quantity"`
	Status    TradeStatus `json:"status"`

	EntryTime time.Time  `json:"entry_time"`
	ExitTime  *time.Time `json:"exit_time,omitempty"`

	EntryPrice float64  `json:"entry_price"`
	ExitPrice  *float64 `json:"exit_price,omitempty"`
	Commission float64  `json:"commission"`

	PnlGross   *float64 `json:"pnl_gross,omitempty"`
	PnlNet     *float64 `json:"pnl_net,omitempty"`
	PnlPercent *float64 `json:"pnl_percent,omitempty"`

	Tags  []string `gorm:"serializer:json" json:"tags,omitempty"`
	Notes string   `json:"notes,omitempty"`

	SourceKind SourceKind `json:"source_kind"`
	DedupKey   string     `gorm:"index" json:"-"`
}

// IsClosed reports whether the trade has been exited.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// Recompute refreshes the derived P&L fields from the price legs.
// Open trades get nil derived fields.
func (t *Trade) Recompute() error {
	if !t.IsClosed() || t.ExitPrice == nil {
		t.PnlGross, t.PnlNet, t.PnlPercent = nil, nil, nil
		return nil
	}
	pnl, err := ComputePnl(t.Direction, t.EntryPrice, *t.ExitPrice, t.Quantity, t.Commission)
	if err != nil {
		return err
	}
	t.PnlGross, t.PnlNet, t.PnlPercent = &pnl.Gross, &pnl.Net, &pnl.Percent
	return nil
}
