package models

import (
	"fmt"
	"time"
)

// CandidateKind tags the variant carried by an ImportCandidate.
type CandidateKind string

const (
	CandidateTrade   CandidateKind = "trade"
	CandidateAccount CandidateKind = "account"
	CandidatePayout  CandidateKind = "payout"
)

// ImportCandidate is an ephemeral normalized record produced by a source
// normalizer. It is consumed by the reconciler within one import operation
// and never persisted as-is. Exactly one of Trade, Account and Payout is set,
// matching Kind.
type ImportCandidate struct {
	Kind       CandidateKind
	SourceKind SourceKind
	DedupKey   string

	Trade   *TradeCandidate
	Account *AccountCandidate
	Payout  *PayoutCandidate
}

// TradeCandidate carries everything a Trade needs minus the store-assigned id.
type TradeCandidate struct {
	AccountID  string
	Symbol     string
	AssetType  AssetType
	Direction  Direction
	Quantity   float64
	Status     TradeStatus
	EntryTime  time.Time
	ExitTime   *time.Time
	EntryPrice float64
	ExitPrice  *float64
	Commission float64
	Tags       []string
	Notes      string
}

// AccountCandidate is an account-opened event scraped from a provider notice.
type AccountCandidate struct {
	Login    string
	Provider string
	Size     float64
	Date     time.Time
}

// PayoutCandidate is a payout confirmation scraped from a provider receipt.
type PayoutCandidate struct {
	Login    string
	Provider string
	Amount   float64
	Date     time.Time
}

// TradeDedupKey derives the natural key that identifies one real-world
// execution: symbol, direction, entry time rounded to the minute, entry price
// and quantity.
func TradeDedupKey(symbol string, direction Direction, entryTime time.Time, entryPrice, quantity float64) string {
	return fmt.Sprintf("%s|%s|%s|%.6f|%.6f",
		symbol, direction, entryTime.UTC().Truncate(time.Minute).Format("2006-01-02T15:04"), entryPrice, quantity)
}

// PayoutDedupKey derives the natural key of a payout event: login, amount and
// the calendar day of the confirmation.
func PayoutDedupKey(login string, amount float64, date time.Time) string {
	return fmt.Sprintf("%s|%.2f|%s", login, amount, date.UTC().Format("2006-01-02"))
}
