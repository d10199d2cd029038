package stats

import (
	"testing"
	"time"

	"trade-journal-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrade(symbol string, direction models.Direction, net float64, entry time.Time) models.Trade {
	gross := net
	return models.Trade{
		Symbol:    symbol,
		Direction: direction,
		Status:    models.StatusClosed,
		EntryTime: entry,
		PnlGross:  &gross,
		PnlNet:    &net,
	}
}

func TestAggregateCounts(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade("AAPL", models.DirectionLong, 268, base),
		closedTrade("ES", models.DirectionShort, -9.29, base.Add(time.Hour)),
		closedTrade("AAPL", models.DirectionLong, 50, base.Add(2*time.Hour)),
		{Symbol: "NQ", Direction: models.DirectionLong, Status: models.StatusOpen, EntryTime: base.Add(3 * time.Hour)},
	}

	s := Aggregate(trades)

	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 1, s.OpenTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.Equal(t, 1, s.LosingTrades)
	assert.InDelta(t, 318, s.GrossProfit, 0.0001)
	assert.InDelta(t, 9.29, s.GrossLoss, 0.0001)
	// Open trade excluded from the win rate denominator
	assert.InDelta(t, 100.0*2/3, s.WinRate, 0.0001)
	require.False(t, s.ProfitFactor.Infinite)
	assert.InDelta(t, 34.23, s.ProfitFactor.Value, 0.01)
	assert.InDelta(t, 159, s.AvgWinner, 0.0001)
	assert.InDelta(t, -9.29, s.AvgLoser, 0.0001)
	assert.InDelta(t, 268, s.LargestWinner, 0.0001)
	assert.InDelta(t, -9.29, s.LargestLoser, 0.0001)
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil)

	assert.Zero(t, s.TotalTrades)
	assert.Zero(t, s.WinRate)
	assert.False(t, s.ProfitFactor.Infinite)
	assert.Zero(t, s.ProfitFactor.Value)
	assert.Empty(t, s.BySymbol)
}

func TestProfitFactor(t *testing.T) {
	testCases := []struct {
		name        string
		grossProfit float64
		grossLoss   float64
		expected    ProfitFactor
	}{
		{"No losers is the infinite sentinel", 100, 0, ProfitFactor{Infinite: true}},
		{"Both zero is zero, not infinite", 0, 0, ProfitFactor{}},
		{"Finite ratio", 300, 150, ProfitFactor{Value: 2}},
		{"Only losers", 0, 50, ProfitFactor{Value: 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, profitFactor(tc.grossProfit, tc.grossLoss))
		})
	}
}

func TestStreaks(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	nets := []float64{10, 20, -5, -5, -5, 30, 40}

	trades := make([]models.Trade, 0, len(nets))
	for i, net := range nets {
		trades = append(trades, closedTrade("ES", models.DirectionLong, net, base.Add(time.Duration(i)*time.Minute)))
	}

	s := Aggregate(trades)

	assert.Equal(t, 2, s.Streaks.Current)
	assert.Equal(t, 2, s.Streaks.BestWinning)
	assert.Equal(t, 3, s.Streaks.WorstLosing)
}

func TestBreakdowns(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	trades := []models.Trade{
		closedTrade("AAPL", models.DirectionLong, 100, base),
		closedTrade("AAPL", models.DirectionLong, -40, base.Add(time.Minute)),
		closedTrade("ES", models.DirectionShort, 25, base.Add(26*time.Hour)),
	}

	s := Aggregate(trades)

	aapl := s.BySymbol["AAPL"]
	assert.Equal(t, 2, aapl.Count)
	assert.InDelta(t, 60, aapl.Pnl, 0.0001)
	assert.InDelta(t, 50, aapl.WinRate, 0.0001)

	assert.Equal(t, 2, s.ByDirection["long"].Count)
	assert.Equal(t, 1, s.ByDirection["short"].Count)
	assert.Len(t, s.ByDate, 2)

	hour := base.Local().Hour()
	assert.GreaterOrEqual(t, s.ByHour[hour].Count, 1)
}

func TestTopSymbolTrim(t *testing.T) {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	var trades []models.Trade
	symbols := []string{"A", "B", "C"}
	for i, sym := range symbols {
		trades = append(trades, closedTrade(sym, models.DirectionLong, float64((i+1)*10), base))
	}

	trimmed := trimToTop(breakdown(trades, func(t models.Trade) string { return t.Symbol }), 2)

	assert.Len(t, trimmed, 2)
	assert.Contains(t, trimmed, "C")
	assert.Contains(t, trimmed, "B")
	assert.NotContains(t, trimmed, "A")
}
