// internal/pnl/calculator.go

// Package pnl computes realized profit-and-loss from a flat trade
// list using lifetime weighted averages per pair. It deliberately
// does no lot matching (FIFO/LIFO): for every pair the average sell
// proceeds are compared against the average buy cost, fees included.
package pnl

// Side is the direction of a fill.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Trade is one executed fill. Ordering within a pair does not matter;
// the calculation aggregates rather than streams.
type Trade struct {
	Pair   string
	Side   Side
	Price  float64
	Amount float64
	Fee    float64
}

// PairPnL is the realized result for one pair.
type PairPnL struct {
	AvgBuyPrice     float64
	AvgSellPrice    float64
	TotalBuyAmount  float64
	TotalSellAmount float64
	Absolute        float64
	Percent         float64
}

// Result maps contributing pairs to their PnL plus the aggregate.
// NoTrades distinguishes "the account has never traded" from "traded
// but no pair has both buys and sells yet": the latter yields an
// empty PerPair with NoTrades false.
type Result struct {
	PerPair  map[string]PairPnL
	Total    float64
	NoTrades bool
}

// Calculate partitions trades by pair and derives weighted-average
// realized PnL. Fees increase buy cost and reduce sell proceeds. A
// pair contributes only when it has both a positive sell amount and a
// positive average buy price; otherwise it is omitted entirely, not
// zeroed.
func Calculate(trades []Trade) Result {
	if len(trades) == 0 {
		return Result{NoTrades: true}
	}

	type bucket struct {
		buys  []Trade
		sells []Trade
	}
	pairs := make(map[string]*bucket)
	for _, t := range trades {
		b, ok := pairs[t.Pair]
		if !ok {
			b = &bucket{}
			pairs[t.Pair] = b
		}
		if t.Side == Buy {
			b.buys = append(b.buys, t)
		} else {
			b.sells = append(b.sells, t)
		}
	}

	res := Result{PerPair: make(map[string]PairPnL)}
	for pair, b := range pairs {
		var buyAmount, buyCost float64
		for _, t := range b.buys {
			buyAmount += t.Amount
			buyCost += t.Price*t.Amount + t.Fee
		}
		avgBuy := 0.0
		if buyAmount > 0 {
			avgBuy = buyCost / buyAmount
		}

		var sellAmount, sellValue float64
		for _, t := range b.sells {
			sellAmount += t.Amount
			sellValue += t.Price*t.Amount - t.Fee
		}
		avgSell := 0.0
		if sellAmount > 0 {
			avgSell = sellValue / sellAmount
		}

		if sellAmount <= 0 || avgBuy <= 0 {
			continue
		}

		perUnit := avgSell - avgBuy
		p := PairPnL{
			AvgBuyPrice:     avgBuy,
			AvgSellPrice:    avgSell,
			TotalBuyAmount:  buyAmount,
			TotalSellAmount: sellAmount,
			Absolute:        perUnit * sellAmount,
			Percent:         perUnit / avgBuy * 100,
		}
		res.PerPair[pair] = p
		res.Total += p.Absolute
	}
	return res
}
