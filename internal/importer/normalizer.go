package importer

import (
	"fmt"

	"trade-journal-go/internal/models"
)

// Context carries the import-wide identifiers every normalizer needs.
type Context struct {
	UserID    string
	AccountID string
}

// ParseError records one unparsable row or message during normalization.
// It is collected and the batch continues; it never aborts the call.
type ParseError struct {
	Line    int
	Field   string
	Message string
}

func (e ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: field %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Result is the uniform output of every source normalizer, so the reconciler
// stays source-agnostic. Candidates and row-level errors coexist: a batch
// succeeds partially rather than failing whole.
type Result struct {
	Candidates []models.ImportCandidate
	Errors     []ParseError
}

func (r *Result) addError(line int, field, format string, args ...any) {
	r.Errors = append(r.Errors, ParseError{Line: line, Field: field, Message: fmt.Sprintf(format, args...)})
}

// tradeCandidate wraps a TradeCandidate into a tagged ImportCandidate with
// its derived dedup key.
func tradeCandidate(tc *models.TradeCandidate, source models.SourceKind) models.ImportCandidate {
	return models.ImportCandidate{
		Kind:       models.CandidateTrade,
		SourceKind: source,
		DedupKey:   models.TradeDedupKey(tc.Symbol, tc.Direction, tc.EntryTime, tc.EntryPrice, tc.Quantity),
		Trade:      tc,
	}
}
