// internal/indodax/types.go
package indodax

import (
	"strconv"
	"strings"
)

// Side is the order direction as Indodax spells it on the wire.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two accepted sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// AmountUnit selects how the amount of a buy order is denominated:
// in IDR (spend this much quote currency) or in the coin itself.
// Sells are always denominated in the coin.
type AmountUnit string

const (
	AmountIDR  AmountUnit = "idr"
	AmountCoin AmountUnit = "coin"
)

// Number handles Indodax numeric fields, which arrive either as JSON
// numbers or as quoted strings depending on the endpoint.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float64 returns the plain value.
func (n Number) Float64() float64 { return float64(n) }

// OrderID tolerates both string and integer order ids.
type OrderID string

func (o *OrderID) UnmarshalJSON(data []byte) error {
	*o = OrderID(strings.Trim(string(data), `"`))
	return nil
}

func (o OrderID) String() string { return string(o) }

// Ticker is a single pair's market snapshot. Buy is the highest bid,
// Sell the lowest ask.
type Ticker struct {
	High string `json:"high"`
	Low  string `json:"low"`
	Last string `json:"last"`
	Buy  string `json:"buy"`
	Sell string `json:"sell"`
}

// LastPrice returns the last traded price, 0 if unparseable.
func (t Ticker) LastPrice() float64 { return parsePrice(t.Last) }

// Bid returns the highest buy price, 0 if unparseable.
func (t Ticker) Bid() float64 { return parsePrice(t.Buy) }

// Ask returns the lowest sell price, 0 if unparseable.
func (t Ticker) Ask() float64 { return parsePrice(t.Sell) }

func parsePrice(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// TickerSnapshot is the result of a ticker query. For a single-pair
// query the map holds exactly that pair.
type TickerSnapshot struct {
	Tickers map[string]Ticker
}

// Pair looks up a pair in the snapshot.
func (s TickerSnapshot) Pair(pair string) (Ticker, bool) {
	t, ok := s.Tickers[pair]
	return t, ok
}

// BalanceInfo is the spendable part of a getInfo response, keyed by
// lowercase asset symbol ("idr", "btc", ...).
type BalanceInfo struct {
	Balance map[string]Number `json:"balance"`
	Hold    map[string]Number `json:"balance_hold"`
}

// Available returns the spendable balance for an asset, 0 if absent.
func (b BalanceInfo) Available(asset string) float64 {
	return b.Balance[strings.ToLower(asset)].Float64()
}

// Order is one open order as returned by openOrders.
type Order struct {
	OrderID      OrderID `json:"order_id"`
	Pair         string  `json:"pair"`
	Type         Side    `json:"type"`
	Price        Number  `json:"price"`
	RemainAmount Number  `json:"remain_amount"`
	SubmitTime   Number  `json:"submit_time"`
}

// Trade is one executed fill from tradeHistory.
type Trade struct {
	Pair      string `json:"pair"`
	Type      Side   `json:"type"`
	Price     Number `json:"price"`
	Amount    Number `json:"amount"`
	Fee       Number `json:"fee"`
	TradeTime Number `json:"trade_time"`
}

// OrderResult is the receipt for a placed order.
type OrderResult struct {
	OrderID    OrderID `json:"order_id"`
	ReceiveIDR Number  `json:"receive_idr"`
	SpendIDR   Number  `json:"spend_idr"`
}

// CancelResult is the receipt for a cancelled order.
type CancelResult struct {
	OrderID OrderID `json:"order_id"`
	Pair    string  `json:"pair"`
	Type    Side    `json:"type"`
}

// CoinFromPair extracts the base coin symbol from a "<coin>_idr" pair.
func CoinFromPair(pair string) string {
	if i := strings.Index(pair, "_"); i > 0 {
		return pair[:i]
	}
	return pair
}
