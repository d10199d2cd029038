package importer

import (
	"strings"
	"testing"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const genericCSV = `symbol,direction,entry_time,exit_time,entry_price,exit_price,quantity,commission,tags,notes
AAPL,long,2024-03-04 09:31:00,2024-03-04 10:15:00,185.50,188.20,100,2,breakout;gap,took the open drive
ES,short,2024-03-04 11:00:00,2024-03-04 11:05:00,4850.25,4855.50,1,4.04,,
NQ,long,2024-03-04 12:00:00,,17000.00,,2,,,still holding
`

func TestNormalizeGenericCSV(t *testing.T) {
	res, err := NormalizeGenericCSV(strings.NewReader(genericCSV), Context{UserID: "u1", AccountID: "acct-1"})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	require.Len(t, res.Candidates, 3)

	first := res.Candidates[0]
	assert.Equal(t, models.CandidateTrade, first.Kind)
	assert.Equal(t, models.SourceGenericCSV, first.SourceKind)
	assert.NotEmpty(t, first.DedupKey)

	tc := first.Trade
	assert.Equal(t, "AAPL", tc.Symbol)
	assert.Equal(t, models.DirectionLong, tc.Direction)
	assert.Equal(t, models.StatusClosed, tc.Status)
	assert.Equal(t, 185.50, tc.EntryPrice)
	require.NotNil(t, tc.ExitPrice)
	assert.Equal(t, 188.20, *tc.ExitPrice)
	assert.Equal(t, 2.0, tc.Commission)
	assert.Equal(t, []string{"breakout", "gap"}, tc.Tags)
	assert.Equal(t, "acct-1", tc.AccountID)

	// Row without exit legs stays open
	open := res.Candidates[2].Trade
	assert.Equal(t, models.StatusOpen, open.Status)
	assert.Nil(t, open.ExitPrice)
	assert.Nil(t, open.ExitTime)
}

func TestNormalizeGenericCSVPartialSuccess(t *testing.T) {
	csv := `symbol,direction,entry_time,exit_time,entry_price,exit_price,quantity
AAPL,long,2024-03-04 09:31:00,2024-03-04 10:15:00,185.50,188.20,100
AAPL,sideways,2024-03-04 09:31:00,,185.50,,100
MSFT,long,not-a-date,,400.00,,10
TSLA,short,2024-03-04 09:31:00,2024-03-04 10:15:00,180.00,175.00,-5
NVDA,long,2024-03-04 14:00:00,2024-03-04 15:00:00,900.00,910.00,10
`
	res, err := NormalizeGenericCSV(strings.NewReader(csv), Context{})
	require.NoError(t, err)

	// Malformed rows become errors, the batch continues
	assert.Len(t, res.Candidates, 2)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, "direction", res.Errors[0].Field)
	assert.Equal(t, "entry_time", res.Errors[1].Field)
	assert.Equal(t, "quantity", res.Errors[2].Field)
	assert.Equal(t, 3, res.Errors[0].Line)
}

func TestNormalizeGenericCSVMissingColumn(t *testing.T) {
	csv := "symbol,direction\nAAPL,long\n"
	_, err := NormalizeGenericCSV(strings.NewReader(csv), Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_time")
}

func TestNormalizeGenericCSVExitBeforeEntry(t *testing.T) {
	csv := `symbol,direction,entry_time,exit_time,entry_price,exit_price,quantity
AAPL,long,2024-03-04 10:15:00,2024-03-04 09:31:00,185.50,188.20,100
`
	res, err := NormalizeGenericCSV(strings.NewReader(csv), Context{})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "before entry")
}
