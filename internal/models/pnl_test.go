package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePnl(t *testing.T) {
	testCases := []struct {
		name       string
		direction  Direction
		entry      float64
		exit       float64
		quantity   float64
		commission float64
		expected   Pnl
		expectErr  bool
	}{
		{
			name:       "Long winner",
			direction:  DirectionLong,
			entry:      185.50,
			exit:       188.20,
			quantity:   100,
			commission: 2,
			expected:   Pnl{Gross: 270.00, Net: 268.00, Percent: 1.4555},
		},
		{
			name:       "Short loser",
			direction:  DirectionShort,
			entry:      4850.25,
			exit:       4855.50,
			quantity:   1,
			commission: 4.04,
			expected:   Pnl{Gross: -5.25, Net: -9.29, Percent: -0.1082},
		},
		{
			name:      "Short winner",
			direction: DirectionShort,
			entry:     100,
			exit:      90,
			quantity:  10,
			expected:  Pnl{Gross: 100, Net: 100, Percent: 10},
		},
		{
			name:      "Zero quantity",
			direction: DirectionLong,
			entry:     100,
			exit:      110,
			quantity:  0,
			expectErr: true,
		},
		{
			name:      "Negative entry price",
			direction: DirectionLong,
			entry:     -1,
			exit:      110,
			quantity:  10,
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pnl, err := ComputePnl(tc.direction, tc.entry, tc.exit, tc.quantity, tc.commission)

			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidTrade)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.expected.Gross, pnl.Gross, 0.0001)
			assert.InDelta(t, tc.expected.Net, pnl.Net, 0.0001)
			assert.InDelta(t, tc.expected.Percent, pnl.Percent, 0.001)
			// Net is always gross minus commission
			assert.InDelta(t, pnl.Gross-tc.commission, pnl.Net, 0.0001)
		})
	}
}

func TestTradeRecompute(t *testing.T) {
	exitPrice := 188.20
	exitTime := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)

	t.Run("Closed trade gets derived fields", func(t *testing.T) {
		trade := Trade{
			Direction:  DirectionLong,
			Quantity:   100,
			Status:     StatusClosed,
			EntryTime:  exitTime.Add(-time.Hour),
			ExitTime:   &exitTime,
			EntryPrice: 185.50,
			ExitPrice:  &exitPrice,
			Commission: 2,
		}
		require.NoError(t, trade.Recompute())
		require.NotNil(t, trade.PnlNet)
		assert.InDelta(t, 268.00, *trade.PnlNet, 0.0001)
	})

	t.Run("Open trade has absent derived fields, not zero", func(t *testing.T) {
		trade := Trade{
			Direction:  DirectionLong,
			Quantity:   100,
			Status:     StatusOpen,
			EntryPrice: 185.50,
			PnlGross:   &exitPrice, // stale leftovers must be cleared
		}
		require.NoError(t, trade.Recompute())
		assert.Nil(t, trade.PnlGross)
		assert.Nil(t, trade.PnlNet)
		assert.Nil(t, trade.PnlPercent)
	})
}
