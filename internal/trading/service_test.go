package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"indodax-bot/internal/indodax"
)

// mockExchange records calls and serves canned data.
type mockExchange struct {
	balances map[string]indodax.Number
	tickers  map[string]indodax.Ticker
	trades   []indodax.Trade
	orders   []indodax.Order

	balanceErr error
	tickerErr  error
	historyErr error
	orderErr   error

	placed []placedOrder
}

type placedOrder struct {
	pair   string
	side   indodax.Side
	price  float64
	amount float64
	unit   indodax.AmountUnit
}

func (m *mockExchange) GetTicker(_ context.Context, pair string) (indodax.TickerSnapshot, error) {
	if m.tickerErr != nil {
		return indodax.TickerSnapshot{}, m.tickerErr
	}
	if pair == "" {
		return indodax.TickerSnapshot{Tickers: m.tickers}, nil
	}
	t, ok := m.tickers[pair]
	if !ok {
		return indodax.TickerSnapshot{}, &indodax.ExchangeError{Op: "ticker", Message: "invalid pair"}
	}
	return indodax.TickerSnapshot{Tickers: map[string]indodax.Ticker{pair: t}}, nil
}

func (m *mockExchange) GetBalance(context.Context) (indodax.BalanceInfo, error) {
	if m.balanceErr != nil {
		return indodax.BalanceInfo{}, m.balanceErr
	}
	return indodax.BalanceInfo{Balance: m.balances}, nil
}

func (m *mockExchange) CreateOrder(_ context.Context, pair string, side indodax.Side, price, amount float64, unit indodax.AmountUnit) (indodax.OrderResult, error) {
	if m.orderErr != nil {
		return indodax.OrderResult{}, m.orderErr
	}
	m.placed = append(m.placed, placedOrder{pair, side, price, amount, unit})
	return indodax.OrderResult{OrderID: "9001"}, nil
}

func (m *mockExchange) GetOpenOrders(context.Context, string) ([]indodax.Order, error) {
	return m.orders, nil
}

func (m *mockExchange) CancelOrder(_ context.Context, pair, orderID string, side indodax.Side) (indodax.CancelResult, error) {
	return indodax.CancelResult{OrderID: indodax.OrderID(orderID), Pair: pair, Type: side}, nil
}

func (m *mockExchange) GetTradeHistory(context.Context, string, int) ([]indodax.Trade, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	return m.trades, nil
}

func newService(m *mockExchange) *Service {
	return New(m, zap.NewNop())
}

func TestBuyAllIDRPlacesMarketBuy(t *testing.T) {
	m := &mockExchange{
		balances: map[string]indodax.Number{"idr": 1_000_000},
		tickers: map[string]indodax.Ticker{
			"sol_idr": {Last: "2500000", Buy: "2490000", Sell: "2510000"},
		},
	}
	svc := newService(m)

	receipt, err := svc.BuyAllIDR(context.Background(), "sol")
	require.NoError(t, err)
	require.Len(t, m.placed, 1)

	order := m.placed[0]
	assert.Equal(t, "sol_idr", order.pair)
	assert.Equal(t, indodax.SideBuy, order.side)
	assert.Equal(t, 2510000.0, order.price, "buys go out at the ask")
	assert.Equal(t, 1_000_000.0, order.amount)
	assert.Equal(t, indodax.AmountIDR, order.unit)

	assert.Equal(t, "9001", receipt.OrderID)
	assert.InDelta(t, 1_000_000*0.998/2510000, receipt.Estimate, 1e-9)
}

func TestBuyAllIDRRejectsSmallBalance(t *testing.T) {
	m := &mockExchange{
		balances: map[string]indodax.Number{"idr": 9_000},
		tickers: map[string]indodax.Ticker{
			"sol_idr": {Sell: "2510000"},
		},
	}
	svc := newService(m)

	_, err := svc.BuyAllIDR(context.Background(), "sol")
	var inputErr *indodax.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Empty(t, m.placed, "no order may be placed on a rejected balance")
}

func TestBuyAllIDRRejectsUnsupportedCoin(t *testing.T) {
	m := &mockExchange{}
	svc := newService(m)

	_, err := svc.BuyAllIDR(context.Background(), "shiba")
	var inputErr *indodax.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Empty(t, m.placed)
}

func TestSellAllPlacesMarketSell(t *testing.T) {
	m := &mockExchange{
		balances: map[string]indodax.Number{"idr": 50_000, "sol": 3.5},
		tickers: map[string]indodax.Ticker{
			"sol_idr": {Buy: "2490000", Sell: "2510000"},
		},
	}
	svc := newService(m)

	receipt, err := svc.SellAll(context.Background(), "SOL")
	require.NoError(t, err)
	require.Len(t, m.placed, 1)

	order := m.placed[0]
	assert.Equal(t, indodax.SideSell, order.side)
	assert.Equal(t, 2490000.0, order.price, "sells go out at the bid")
	assert.Equal(t, 3.5, order.amount)
	assert.Equal(t, indodax.AmountCoin, order.unit)
	assert.InDelta(t, 3.5*2490000, receipt.Estimate, 1e-9)
}

func TestSellAllRejectsEmptyBalance(t *testing.T) {
	m := &mockExchange{
		balances: map[string]indodax.Number{"idr": 50_000},
	}
	svc := newService(m)

	_, err := svc.SellAll(context.Background(), "sol")
	var inputErr *indodax.InputError
	require.ErrorAs(t, err, &inputErr)
}

func TestBalanceDetailValuesHoldings(t *testing.T) {
	m := &mockExchange{
		balances: map[string]indodax.Number{
			"idr": 500_000,
			"btc": 0.01,
			"sol": 2,
			"eth": 0, // zero holdings stay off the report
		},
		tickers: map[string]indodax.Ticker{
			"btc_idr": {Last: "1000000000"},
			"sol_idr": {Last: "2500000"},
		},
	}
	svc := newService(m)

	detail, err := svc.BalanceDetail(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 500_000.0, detail.IDR)
	require.Len(t, detail.Assets, 2)
	// 500_000 + 0.01*1e9 + 2*2.5e6
	assert.InDelta(t, 500_000+10_000_000+5_000_000, detail.TotalIDR, 1e-6)
}

func TestBalanceDetailPropagatesFetchFailure(t *testing.T) {
	m := &mockExchange{
		balanceErr: &indodax.TransportError{Op: "getInfo", Err: errors.New("timeout")},
		tickers:    map[string]indodax.Ticker{},
	}
	svc := newService(m)

	_, err := svc.BalanceDetail(context.Background())
	var transErr *indodax.TransportError
	require.ErrorAs(t, err, &transErr)
}

func TestPricesKeepsBoardOrder(t *testing.T) {
	m := &mockExchange{
		tickers: map[string]indodax.Ticker{
			"btc_idr": {Last: "1000000000"},
			"sol_idr": {Last: "2500000"},
			"xyz_idr": {Last: "1"}, // not a main pair
		},
	}
	svc := newService(m)

	board, err := svc.Prices(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Prices, 2)
	assert.Equal(t, "BTC", board.Prices[0].Coin, "board follows MainPairs order")
	assert.Equal(t, "SOL", board.Prices[1].Coin)
}

func TestProfitReportPropagatesHistoryFailure(t *testing.T) {
	m := &mockExchange{
		historyErr: &indodax.TransportError{Op: "tradeHistory", Err: errors.New("connection reset")},
	}
	svc := newService(m)

	_, err := svc.ProfitReport(context.Background())
	var transErr *indodax.TransportError
	require.ErrorAs(t, err, &transErr, "a broken feed must surface as an error, not a zeroed report")
}

func TestProfitReportComputesFromHistory(t *testing.T) {
	m := &mockExchange{
		trades: []indodax.Trade{
			{Pair: "btc_idr", Type: indodax.SideBuy, Price: 100, Amount: 2, Fee: 1},
			{Pair: "btc_idr", Type: indodax.SideBuy, Price: 200, Amount: 2, Fee: 1},
			{Pair: "btc_idr", Type: indodax.SideSell, Price: 300, Amount: 4, Fee: 2},
		},
	}
	svc := newService(m)

	report, err := svc.ProfitReport(context.Background())
	require.NoError(t, err)
	assert.False(t, report.NoTrades)
	assert.InDelta(t, 596, report.Total, 1e-9)
}

func TestProfitReportEmptyHistory(t *testing.T) {
	svc := newService(&mockExchange{})

	report, err := svc.ProfitReport(context.Background())
	require.NoError(t, err)
	assert.True(t, report.NoTrades)
}
