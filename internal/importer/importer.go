package importer

import (
	"fmt"
	"time"

	"trade-journal-go/internal/models"
	"trade-journal-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImportResult tells the caller what one import operation actually did.
// Partial success is normal and legible: row errors ride along with the
// created count instead of failing the operation.
type ImportResult struct {
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Errors  []ParseError `json:"errors"`
}

// Importer runs the commit half of the pipeline: reconcile normalized
// candidates against the ledger, then commit the keepers in chunks.
//
// Two imports racing on the same account can both pass the duplicate check
// against a stale read before either commits. The store offers no
// cross-document transaction to close that window; the race is an accepted
// trade-off.
type Importer struct {
	store  *store.Store
	logger *zap.Logger
}

// New creates an Importer.
func New(s *store.Store, logger *zap.Logger) *Importer {
	return &Importer{store: s, logger: logger}
}

// Commit reconciles candidates against the user's persisted ledger and
// commits whatever survives. Row errors accumulated during normalization are
// carried through into the result.
func (imp *Importer) Commit(ctx Context, normalized Result) (ImportResult, error) {
	result := ImportResult{Errors: normalized.Errors}

	if err := imp.ensureAccount(ctx); err != nil {
		return result, err
	}

	existing, err := imp.loadExisting(ctx)
	if err != nil {
		return result, err
	}

	reconciled := Reconcile(ctx.UserID, normalized.Candidates, existing)
	result.Skipped = reconciled.Skipped
	result.Errors = append(result.Errors, reconciled.Errors...)

	for _, batch := range []store.BatchResult{
		imp.store.CreateTrades(reconciled.Trades),
		imp.store.CreateAccounts(reconciled.Accounts),
		imp.store.CreatePayouts(reconciled.Payouts),
	} {
		result.Created += batch.Committed
		for _, err := range batch.Errors {
			result.Errors = append(result.Errors, ParseError{Message: err.Error()})
		}
	}

	imp.logger.Info("Import committed",
		zap.String("user_id", ctx.UserID),
		zap.String("account_id", ctx.AccountID),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// loadExisting snapshots the persisted records the reconciler dedups against.
func (imp *Importer) loadExisting(ctx Context) (ExistingSet, error) {
	trades, err := imp.store.TradesByAccount(ctx.UserID, ctx.AccountID)
	if err != nil {
		return ExistingSet{}, fmt.Errorf("failed to load existing trades: %w", err)
	}
	accounts, err := imp.store.Accounts(ctx.UserID)
	if err != nil {
		return ExistingSet{}, fmt.Errorf("failed to load existing accounts: %w", err)
	}
	payouts, err := imp.store.Payouts(ctx.UserID)
	if err != nil {
		return ExistingSet{}, fmt.Errorf("failed to load existing payouts: %w", err)
	}
	return NewExistingSet(trades, accounts, payouts), nil
}

// ensureAccount creates the target account implicitly when an import
// references one the user does not have yet.
func (imp *Importer) ensureAccount(ctx Context) error {
	if ctx.AccountID == "" {
		return nil
	}
	accounts, err := imp.store.Accounts(ctx.UserID)
	if err != nil {
		return fmt.Errorf("failed to check target account: %w", err)
	}
	for _, a := range accounts {
		if a.AccountID == ctx.AccountID {
			return nil
		}
	}

	imp.logger.Info("Target account not found, creating it",
		zap.String("user_id", ctx.UserID),
		zap.String("account_id", ctx.AccountID),
	)
	batch := imp.store.CreateAccounts([]models.Account{{
		AccountID:  ctx.AccountID,
		UserID:     ctx.UserID,
		Name:       ctx.AccountID,
		Currency:   "USD",
		IsActive:   true,
		SourceKind: models.SourceManual,
	}})
	if batch.Failed > 0 {
		return fmt.Errorf("failed to create account %s: %w", ctx.AccountID, batch.Errors[0])
	}
	return nil
}

// NewManualTrade builds a ledger trade from a hand-entered form, running the
// same invariants and P&L derivation an imported trade gets.
func NewManualTrade(userID string, tc models.TradeCandidate) (*models.Trade, error) {
	if tc.ExitTime != nil && tc.ExitTime.Before(tc.EntryTime) {
		return nil, fmt.Errorf("%w: exit time %s precedes entry time %s",
			models.ErrInvalidTrade, tc.ExitTime.Format(time.RFC3339), tc.EntryTime.Format(time.RFC3339))
	}
	c := tradeCandidate(&tc, models.SourceManual)
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
		SourceKind: models.SourceManual,
		DedupKey:   c.DedupKey,
	}
	if err := trade.Recompute(); err != nil {
		return nil, err
	}
	return trade, nil
}
