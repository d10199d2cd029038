package stats

import (
	"sort"
	"time"

	"trade-journal-go/internal/models"
)

// ProfitFactor is the ratio of total winning P&L to total losing P&L. The
// infinite case (no losers, some winners) is a tagged value rather than a raw
// floating-point Inf, which does not survive JSON encoding.
type ProfitFactor struct {
	Infinite bool    `json:"infinite"`
	Value    float64 `json:"value"`
}

// Bucket is one cell of a breakdown dimension.
type Bucket struct {
	Count   int     `json:"count"`
	Pnl     float64 `json:"pnl"`
	WinRate float64 `json:"win_rate"`
}

// Streaks are run lengths of consecutive winners or losers in entry-time
// order. Current is positive during a winning run, negative during a losing
// one.
type Streaks struct {
	Current     int `json:"current"`
	BestWinning int `json:"best_winning"`
	WorstLosing int `json:"worst_losing"`
}

// Summary is the aggregate view of a trade collection.
type Summary struct {
	TotalTrades   int `json:"total_trades"`
	OpenTrades    int `json:"open_trades"`
	WinningTrades int `json:"winning_trades"`
	LosingTrades  int `json:"losing_trades"`

	WinRate      float64      `json:"win_rate"`
	NetPnl       float64      `json:"net_pnl"`
	GrossProfit  float64      `json:"gross_profit"`
	GrossLoss    float64      `json:"gross_loss"`
	ProfitFactor ProfitFactor `json:"profit_factor"`

	AvgWinner     float64 `json:"avg_winner"`
	AvgLoser      float64 `json:"avg_loser"`
	LargestWinner float64 `json:"largest_winner"`
	LargestLoser  float64 `json:"largest_loser"`

	Streaks Streaks `json:"streaks"`

	BySymbol    map[string]Bucket `json:"by_symbol"`
	ByDirection map[string]Bucket `json:"by_direction"`
	ByHour      map[int]Bucket    `json:"by_hour"`
	ByDate      map[string]Bucket `json:"by_date"`
}

// topSymbols bounds the symbol breakdown to the biggest movers.
const topSymbols = 10

// Aggregate folds a trade collection into a Summary. It is total over
// well-formed input: an empty collection yields the zero summary, and open
// trades (nil PnlNet) are counted but excluded from win rate and streaks.
func Aggregate(trades []models.Trade) Summary {
	s := Summary{
		BySymbol:    make(map[string]Bucket),
		ByDirection: make(map[string]Bucket),
		ByHour:      make(map[int]Bucket),
		ByDate:      make(map[string]Bucket),
	}

	closed := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		s.TotalTrades++
		if t.PnlNet == nil {
			s.OpenTrades++
			continue
		}
		closed = append(closed, t)

		net := *t.PnlNet
		s.NetPnl += net
		switch {
		case net > 0:
			s.WinningTrades++
			s.GrossProfit += net
			if net > s.LargestWinner {
				s.LargestWinner = net
			}
		case net < 0:
			s.LosingTrades++
			s.GrossLoss += -net
			if net < s.LargestLoser {
				s.LargestLoser = net
			}
		}
	}

	closedCount := len(closed)
	if closedCount > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(closedCount) * 100
	}
	if s.WinningTrades > 0 {
		s.AvgWinner = s.GrossProfit / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoser = -s.GrossLoss / float64(s.LosingTrades)
	}
	s.ProfitFactor = profitFactor(s.GrossProfit, s.GrossLoss)
	s.Streaks = streaks(closed)

	s.ByDirection = breakdown(closed, func(t models.Trade) string { return string(t.Direction) })
	s.ByDate = breakdown(closed, func(t models.Trade) string { return t.EntryTime.Format("2006-01-02") })
	s.BySymbol = trimToTop(breakdown(closed, func(t models.Trade) string { return t.Symbol }), topSymbols)

	for _, t := range closed {
		hour := t.EntryTime.Local().Hour()
		s.ByHour[hour] = addToBucket(s.ByHour[hour], *t.PnlNet)
	}
	finalizeIntBuckets(s.ByHour, closed)

	return s
}

func profitFactor(grossProfit, grossLoss float64) ProfitFactor {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return ProfitFactor{Infinite: true}
		}
		return ProfitFactor{}
	}
	return ProfitFactor{Value: grossProfit / grossLoss}
}

// streaks scans closed trades in entry-time order and tracks run lengths of
// consecutive winners/losers. Break-even trades end any run.
func streaks(closed []models.Trade) Streaks {
	ordered := make([]models.Trade, len(closed))
	copy(ordered, closed)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].EntryTime.Before(ordered[j].EntryTime) })

	var st Streaks
	run := 0
	for _, t := range ordered {
		net := *t.PnlNet
		switch {
		case net > 0:
			if run > 0 {
				run++
			} else {
				run = 1
			}
			if run > st.BestWinning {
				st.BestWinning = run
			}
		case net < 0:
			if run < 0 {
				run--
			} else {
				run = -1
			}
			if -run > st.WorstLosing {
				st.WorstLosing = -run
			}
		default:
			run = 0
		}
	}
	st.Current = run
	return st
}

func breakdown(closed []models.Trade, key func(models.Trade) string) map[string]Bucket {
	wins := make(map[string]int)
	out := make(map[string]Bucket)
	for _, t := range closed {
		k := key(t)
		out[k] = addToBucket(out[k], *t.PnlNet)
		if *t.PnlNet > 0 {
			wins[k]++
		}
	}
	for k, b := range out {
		if b.Count > 0 {
			b.WinRate = float64(wins[k]) / float64(b.Count) * 100
		}
		out[k] = b
	}
	return out
}

func addToBucket(b Bucket, net float64) Bucket {
	b.Count++
	b.Pnl += net
	return b
}

func finalizeIntBuckets(buckets map[int]Bucket, closed []models.Trade) {
	wins := make(map[int]int)
	for _, t := range closed {
		if *t.PnlNet > 0 {
			wins[t.EntryTime.Local().Hour()]++
		}
	}
	for k, b := range buckets {
		if b.Count > 0 {
			b.WinRate = float64(wins[k]) / float64(b.Count) * 100
		}
		buckets[k] = b
	}
}

// trimToTop keeps the n keys with the largest absolute P&L.
func trimToTop(buckets map[string]Bucket, n int) map[string]Bucket {
	if len(buckets) <= n {
		return buckets
	}
	type kv struct {
		key    string
		absPnl float64
	}
	ranked := make([]kv, 0, len(buckets))
	for k, b := range buckets {
		abs := b.Pnl
		if abs < 0 {
			abs = -abs
		}
		ranked = append(ranked, kv{key: k, absPnl: abs})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].absPnl > ranked[j].absPnl })

	out := make(map[string]Bucket, n)
	for _, r := range ranked[:n] {
		out[r.key] = buckets[r.key]
	}
	return out
}

// DateRange filters trades to those entered within [from, to).
func DateRange(trades []models.Trade, from, to time.Time) []models.Trade {
	out := make([]models.Trade, 0, len(trades))
	for _, t := range trades {
		if !t.EntryTime.Before(from) && t.EntryTime.Before(to) {
			out = append(out, t)
		}
	}
	return out
}
