package models

import "fmt"

// Pnl holds the derived profit-and-loss figures of one closed trade.
type Pnl struct {
	Gross   float64
	Net     float64
	Percent float64
}

// ComputePnl calculates gross, net and percent return for one trade leg pair.
// Long positions profit when exit > entry, shorts when exit < entry.
func ComputePnl(direction Direction, entryPrice, exitPrice, quantity, commission float64) (Pnl, error) {
	if quantity <= 0 {
		return Pnl{}, fmt.Errorf("%w: quantity %v must be positive", ErrInvalidTrade, quantity)
	}
	if entryPrice <= 0 {
		return Pnl{}, fmt.Errorf("%w: entry price %v must be positive", ErrInvalidTrade, entryPrice)
	}

	var gross float64
	if direction == DirectionShort {
		gross = (entryPrice - exitPrice) * quantity
	} else {
		gross = (exitPrice - entryPrice) * quantity
	}

	return Pnl{
		Gross:   gross,
		Net:     gross - commission,
		Percent: gross / (entryPrice * quantity) * 100,
	}, nil
}
