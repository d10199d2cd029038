package importer

import (
	"testing"
	"time"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateAt(symbol string, entry time.Time, price, qty float64) models.ImportCandidate {
	exitTime := entry.Add(30 * time.Minute)
	exitPrice := price + 1
	return tradeCandidate(&models.TradeCandidate{
		AccountID:  "acct-1",
		Symbol:     symbol,
		AssetType:  models.AssetStock,
		Direction:  models.DirectionLong,
		Quantity:   qty,
		Status:     models.StatusClosed,
		EntryTime:  entry,
		ExitTime:   &exitTime,
		EntryPrice: price,
		ExitPrice:  &exitPrice,
	}, models.SourceGenericCSV)
}

func TestReconcileDropsPersistedDuplicates(t *testing.T) {
	entry := time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)

	persisted := models.Trade{
		Symbol:     "AAPL",
		Direction:  models.DirectionLong,
		EntryTime:  entry,
		EntryPrice: 185.50,
		Quantity:   100,
	}
	existing := NewExistingSet([]models.Trade{persisted}, nil, nil)

	candidates := []models.ImportCandidate{
		candidateAt("AAPL", entry, 185.50, 100),       // duplicate of persisted
		candidateAt("AAPL", entry.Add(time.Nanosecond), 185.50, 100), // same minute, still duplicate
		candidateAt("MSFT", entry, 400.00, 10),        // new
	}

	res := Reconcile("u1", candidates, existing)

	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "MSFT", res.Trades[0].Symbol)
	assert.Equal(t, "u1", res.Trades[0].UserID)
	assert.NotEmpty(t, res.Trades[0].TradeID)
	// Derived fields are computed before insert
	require.NotNil(t, res.Trades[0].PnlNet)
	assert.InDelta(t, 10.0, *res.Trades[0].PnlNet, 0.0001)
}

func TestReconcileDropsWithinBatchDuplicates(t *testing.T) {
	entry := time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)
	candidates := []models.ImportCandidate{
		candidateAt("AAPL", entry, 185.50, 100),
		candidateAt("AAPL", entry, 185.50, 100),
	}

	res := Reconcile("u1", candidates, NewExistingSet(nil, nil, nil))

	assert.Len(t, res.Trades, 1)
	assert.Equal(t, 1, res.Skipped)
}

func TestReconcileAccountsByLoginSubstring(t *testing.T) {
	existing := NewExistingSet(nil, []models.Account{
		{Name: "Topstep TS-50K-123"},
	}, nil)

	candidates := []models.ImportCandidate{
		{
			Kind:       models.CandidateAccount,
			SourceKind: models.SourceEmailScrape,
			DedupKey:   "TS-50K-123",
			Account:    &models.AccountCandidate{Login: "TS-50K-123", Provider: "topstep.com", Size: 50000},
		},
		{
			Kind:       models.CandidateAccount,
			SourceKind: models.SourceEmailScrape,
			DedupKey:   "APEX-991",
			Account:    &models.AccountCandidate{Login: "APEX-991", Provider: "apextraderfunding.com", Size: 50000},
		},
	}

	res := Reconcile("u1", candidates, existing)

	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "APEX-991", res.Accounts[0].Name)
	assert.True(t, res.Accounts[0].IsActive)
}

func TestReconcileIgnoresEmptyAccountNames(t *testing.T) {
	// A row with a blank name must not swallow every scraped account.
	existing := NewExistingSet(nil, []models.Account{
		{Name: ""},
	}, nil)

	candidates := []models.ImportCandidate{
		{
			Kind:       models.CandidateAccount,
			SourceKind: models.SourceEmailScrape,
			DedupKey:   "APEX-991",
			Account:    &models.AccountCandidate{Login: "APEX-991", Provider: "apextraderfunding.com", Size: 50000},
		},
	}

	res := Reconcile("u1", candidates, existing)

	assert.Equal(t, 0, res.Skipped)
	require.Len(t, res.Accounts, 1)
	assert.Equal(t, "APEX-991", res.Accounts[0].Name)
}

func TestReconcilePayoutsByAmountAndDay(t *testing.T) {
	day := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	existing := NewExistingSet(nil, nil, []models.Payout{
		{Login: "TS-50K-123", Amount: 1250, Date: day},
	})

	candidates := []models.ImportCandidate{
		{
			Kind:       models.CandidatePayout,
			SourceKind: models.SourceEmailScrape,
			DedupKey:   models.PayoutDedupKey("TS-50K-123", 1250, day.Add(3*time.Hour)), // same day, other hour
			Payout:     &models.PayoutCandidate{Login: "TS-50K-123", Amount: 1250, Date: day.Add(3 * time.Hour)},
		},
		{
			Kind:       models.CandidatePayout,
			SourceKind: models.SourceEmailScrape,
			DedupKey:   models.PayoutDedupKey("TS-50K-123", 900, day),
			Payout:     &models.PayoutCandidate{Login: "TS-50K-123", Amount: 900, Date: day},
		},
	}

	res := Reconcile("u1", candidates, existing)

	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Payouts, 1)
	assert.Equal(t, 900.0, res.Payouts[0].Amount)
}

func TestReconcileInvalidTradeBecomesError(t *testing.T) {
	entry := time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC)
	bad := candidateAt("AAPL", entry, 185.50, 100)
	bad.Trade.Quantity = -1

	res := Reconcile("u1", []models.ImportCandidate{bad}, NewExistingSet(nil, nil, nil))

	assert.Empty(t, res.Trades)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "quantity")
}
