package importer

import (
	"strings"

	"trade-journal-go/internal/models"

	"github.com/google/uuid"
)

// ExistingSet is a snapshot of the already-persisted ledger the reconciler
// dedups against, keyed by the natural dedup keys of each record kind.
type ExistingSet struct {
	TradeKeys    map[string]bool
	AccountNames []string
	PayoutKeys   map[string]bool
}

// NewExistingSet builds the dedup snapshot from persisted records.
func NewExistingSet(trades []models.Trade, accounts []models.Account, payouts []models.Payout) ExistingSet {
	set := ExistingSet{
		TradeKeys:  make(map[string]bool, len(trades)),
		PayoutKeys: make(map[string]bool, len(payouts)),
	}
	for _, t := range trades {
		set.TradeKeys[models.TradeDedupKey(t.Symbol, t.Direction, t.EntryTime, t.EntryPrice, t.Quantity)] = true
	}
	for _, a := range accounts {
		set.AccountNames = append(set.AccountNames, a.Name)
	}
	for _, p := range payouts {
		set.PayoutKeys[models.PayoutDedupKey(p.Login, p.Amount, p.Date)] = true
	}
	return set
}

// ReconcileResult is the keep/drop decision for one batch of candidates.
// Skipped duplicates are a normal outcome, counted rather than erroring.
type ReconcileResult struct {
	Trades   []models.Trade
	Accounts []models.Account
	Payouts  []models.Payout
	Skipped  int
	Errors   []ParseError
}

// Reconcile decides keep or drop for every candidate, comparing against the
// persisted set and against earlier candidates in the same batch. Dropping
// duplicates silently is what makes re-running the same import idempotent.
// Trade candidates get their derived P&L computed here so nothing ever
// reaches the store with stale figures.
func Reconcile(userID string, candidates []models.ImportCandidate, existing ExistingSet) ReconcileResult {
	var res ReconcileResult
	seen := make(map[string]bool, len(candidates))

	for i, c := range candidates {
		batchKey := string(c.Kind) + "|" + c.DedupKey
		if seen[batchKey] {
			res.Skipped++
			continue
		}

		switch c.Kind {
		case models.CandidateTrade:
			if existing.TradeKeys[c.DedupKey] {
				res.Skipped++
				continue
			}
			trade, perr := buildTrade(userID, c, i+1)
			if perr != nil {
				res.Errors = append(res.Errors, *perr)
				continue
			}
			res.Trades = append(res.Trades, *trade)

		case models.CandidateAccount:
			if matchesExistingAccount(c.Account.Login, existing.AccountNames) {
				res.Skipped++
				continue
			}
			res.Accounts = append(res.Accounts, models.Account{
				AccountID:      uuid.NewString(),
				UserID:         userID,
				Name:           c.Account.Login,
				Broker:         c.Account.Provider,
				Currency:       "USD",
				InitialBalance: c.Account.Size,
				IsActive:       true,
				SourceKind:     c.SourceKind,
			})

		case models.CandidatePayout:
			if existing.PayoutKeys[c.DedupKey] {
				res.Skipped++
				continue
			}
			res.Payouts = append(res.Payouts, models.Payout{
				PayoutID:   uuid.NewString(),
				UserID:     userID,
				Login:      c.Payout.Login,
				Provider:   c.Payout.Provider,
				Amount:     c.Payout.Amount,
				Date:       c.Payout.Date,
				SourceKind: c.SourceKind,
			})
		}

		seen[batchKey] = true
	}

	return res
}

func buildTrade(userID string, c models.ImportCandidate, line int) (*models.Trade, *ParseError) {
	tc := c.Trade
	trade := &models.Trade{
		TradeID:    uuid.NewString(),
		UserID:     userID,
		AccountID:  tc.AccountID,
		Symbol:     tc.Symbol,
		AssetType:  tc.AssetType,
		Direction:  tc.Direction,
		Quantity:   tc.Quantity,
		Status:     tc.Status,
		EntryTime:  tc.EntryTime,
		ExitTime:   tc.ExitTime,
		EntryPrice: tc.EntryPrice,
		ExitPrice:  tc.ExitPrice,
		Commission: tc.Commission,
		Tags:       tc.Tags,
		Notes:      tc.Notes,
		SourceKind: c.SourceKind,
		DedupKey:   c.DedupKey,
	}
	if err := trade.Recompute(); err != nil {
		return nil, &ParseError{Line: line, Message: err.Error()}
	}
	return trade, nil
}

// matchesExistingAccount reports whether a scraped login refers to an account
// the user already has. Providers abbreviate account names in receipts, so a
// substring match in either direction counts.
func matchesExistingAccount(login string, names []string) bool {
	loweredLogin := strings.ToLower(login)
	if loweredLogin == "" {
		return false
	}
	for _, name := range names {
		loweredName := strings.ToLower(name)
		// An empty stored name is a substring of everything; never match on it.
		if loweredName == "" {
			continue
		}
		if strings.Contains(loweredName, loweredLogin) || strings.Contains(loweredLogin, loweredName) {
			return true
		}
	}
	return false
}
