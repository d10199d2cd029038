package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTrade rejects a single record whose numeric invariants are broken
// (quantity <= 0, price <= 0). It never fails a whole batch.
var ErrInvalidTrade = errors.New("invalid trade")

// ErrScrapeFormat means an upstream page or email no longer matches the
// extraction rules. The scrape fails closed rather than trusting a partial
// numeric extraction.
var ErrScrapeFormat = errors.New("scrape format mismatch")

// ErrNoCacheData means an upstream fetch failed and no cached payload of any
// age exists to fall back on.
var ErrNoCacheData = errors.New("no cached data available")

// UnknownBrokerFormatError means no registered broker schema matched the
// supplied or detected CSV headers. It fails the whole file.
type UnknownBrokerFormatError struct {
	Headers []string
}

func (e *UnknownBrokerFormatError) Error() string {
	return fmt.Sprintf("no broker schema matches headers [%s]", strings.Join(e.Headers, ", "))
}
