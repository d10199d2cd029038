package models

import "fmt"

// AssetType classifies the instrument a trade was taken on.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetOption AssetType = "option"
	AssetCrypto AssetType = "crypto"
	AssetFuture AssetType = "future"
	AssetForex  AssetType = "forex"
)

// Direction is the side of a position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// ParseDirection converts a raw string into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionLong, DirectionShort:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// TradeStatus marks whether a position is still open.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)

// SourceKind records where an imported record came from.
type SourceKind string

const (
	SourceManual      SourceKind = "manual"
	SourceGenericCSV  SourceKind = "generic_csv"
	SourceShareScrape SourceKind = "share_scrape"
	SourceEmailScrape SourceKind = "email_scrape"
)

// BrokerSource builds the source kind for a broker-specific CSV import.
func BrokerSource(brokerID string) SourceKind {
	return SourceKind("broker_csv:" + brokerID)
}
