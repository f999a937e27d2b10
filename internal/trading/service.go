// internal/trading/service.go

// Package trading orchestrates exchange operations into the account
// level actions the chat layer exposes: price boards, balance
// valuation, all-in market orders and realized PnL reports. It holds
// no state between calls; every result is recomputed from live
// exchange data.
package trading

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"indodax-bot/internal/indodax"
	"indodax-bot/internal/pnl"
)

// MinIDRNotional is the exchange's minimum IDR order size.
const MinIDRNotional = 10_000

// feeBuffer shaves the estimated coin amount shown for an all-in buy
// so the projection stays under the real fill after fees.
const feeBuffer = 0.998

// MainPairs are the pairs shown on the price board, by volume.
var MainPairs = []string{
	"usdt_idr", "eth_idr", "btc_idr", "sol_idr", "xrp_idr",
	"doge_idr", "link_idr", "ada_idr", "bnb_idr", "usdc_idr",
}

// SupportedCoins is the whitelist for all-in buy/sell shortcuts.
var SupportedCoins = []string{
	"usdt", "eth", "btc", "sol", "xrp", "doge", "link", "ada", "bnb",
	"usdc", "trx", "ltc", "avax", "dot", "bch", "sui", "hbar", "arb",
	"pol", "xlm",
}

// IsSupportedCoin reports whether coin is on the whitelist.
func IsSupportedCoin(coin string) bool {
	coin = strings.ToLower(coin)
	for _, c := range SupportedCoins {
		if c == coin {
			return true
		}
	}
	return false
}

// Exchange is the slice of the signed client this service needs.
type Exchange interface {
	GetTicker(ctx context.Context, pair string) (indodax.TickerSnapshot, error)
	GetBalance(ctx context.Context) (indodax.BalanceInfo, error)
	CreateOrder(ctx context.Context, pair string, side indodax.Side, price, amount float64, unit indodax.AmountUnit) (indodax.OrderResult, error)
	GetOpenOrders(ctx context.Context, pair string) ([]indodax.Order, error)
	CancelOrder(ctx context.Context, pair, orderID string, side indodax.Side) (indodax.CancelResult, error)
	GetTradeHistory(ctx context.Context, pair string, count int) ([]indodax.Trade, error)
}

// Service wires the exchange into account-level operations.
type Service struct {
	exchange Exchange
	logger   *zap.Logger
}

// New creates a Service.
func New(exchange Exchange, logger *zap.Logger) *Service {
	return &Service{
		exchange: exchange,
		logger:   logger.Named("trading"),
	}
}

// PairPrice is one row of the price board.
type PairPrice struct {
	Pair string
	Coin string
	Last float64
}

// PriceBoard is the current prices of the main pairs.
type PriceBoard struct {
	Prices []PairPrice
	At     time.Time
}

// Prices fetches the full ticker map and keeps the main pairs, in
// board order.
func (s *Service) Prices(ctx context.Context) (PriceBoard, error) {
	snap, err := s.exchange.GetTicker(ctx, "")
	if err != nil {
		return PriceBoard{}, err
	}

	board := PriceBoard{At: time.Now()}
	for _, pair := range MainPairs {
		t, ok := snap.Pair(pair)
		if !ok {
			continue
		}
		board.Prices = append(board.Prices, PairPrice{
			Pair: pair,
			Coin: strings.ToUpper(indodax.CoinFromPair(pair)),
			Last: t.LastPrice(),
		})
	}
	return board, nil
}

// Price fetches the current snapshot for a single coin against IDR.
func (s *Service) Price(ctx context.Context, coin string) (PairPrice, error) {
	coin = strings.ToLower(coin)
	pair := coin + "_idr"
	snap, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return PairPrice{}, err
	}
	t, ok := snap.Pair(pair)
	if !ok {
		return PairPrice{}, &indodax.ExchangeError{Op: "ticker", Message: "no ticker for " + pair}
	}
	return PairPrice{Pair: pair, Coin: strings.ToUpper(coin), Last: t.LastPrice()}, nil
}

// AssetBalance is one nonzero coin holding valued in IDR where a
// market price exists.
type AssetBalance struct {
	Coin     string
	Amount   float64
	IDRValue float64
	Priced   bool
}

// BalanceDetail is the full account valuation.
type BalanceDetail struct {
	IDR      float64
	Assets   []AssetBalance
	TotalIDR float64
}

// BalanceDetail fetches balances and the full ticker map concurrently
// and values every nonzero holding at its last price. The two calls
// share no state, so running them in parallel is safe.
func (s *Service) BalanceDetail(ctx context.Context) (BalanceDetail, error) {
	var (
		info indodax.BalanceInfo
		snap indodax.TickerSnapshot
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = s.exchange.GetBalance(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		snap, err = s.exchange.GetTicker(gCtx, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return BalanceDetail{}, err
	}

	detail := BalanceDetail{IDR: info.Available("idr")}
	detail.TotalIDR = detail.IDR

	coins := make([]string, 0, len(info.Balance))
	for coin := range info.Balance {
		if coin == "idr" {
			continue
		}
		coins = append(coins, coin)
	}
	sort.Strings(coins)

	for _, coin := range coins {
		amount := info.Available(coin)
		if amount <= 0 {
			continue
		}
		asset := AssetBalance{Coin: strings.ToUpper(coin), Amount: amount}
		if t, ok := snap.Pair(coin + "_idr"); ok {
			asset.IDRValue = amount * t.LastPrice()
			asset.Priced = true
			detail.TotalIDR += asset.IDRValue
		}
		detail.Assets = append(detail.Assets, asset)
	}
	return detail, nil
}

// OrderReceipt summarizes a placed order for the operator.
type OrderReceipt struct {
	Pair     string
	Coin     string
	Side     indodax.Side
	Price    float64
	Amount   float64 // in the order's own unit
	Estimate float64 // counter-currency estimate
	OrderID  string
}

// BuyAllIDR spends the whole spendable IDR balance on coin at the
// current ask.
func (s *Service) BuyAllIDR(ctx context.Context, coin string) (OrderReceipt, error) {
	coin = strings.ToLower(coin)
	if !IsSupportedCoin(coin) {
		return OrderReceipt{}, indodax.NewInputError("unsupported coin %q", coin)
	}
	op := s.opLogger("buy_all_idr", coin)

	info, err := s.exchange.GetBalance(ctx)
	if err != nil {
		return OrderReceipt{}, err
	}
	idr := info.Available("idr")
	if idr <= MinIDRNotional {
		return OrderReceipt{}, indodax.NewInputError(
			"IDR balance %.0f below the %d minimum", idr, MinIDRNotional)
	}

	pair := coin + "_idr"
	ask, err := s.askPrice(ctx, pair)
	if err != nil {
		return OrderReceipt{}, err
	}

	res, err := s.exchange.CreateOrder(ctx, pair, indodax.SideBuy, ask, idr, indodax.AmountIDR)
	if err != nil {
		return OrderReceipt{}, err
	}

	receipt := OrderReceipt{
		Pair:     pair,
		Coin:     strings.ToUpper(coin),
		Side:     indodax.SideBuy,
		Price:    ask,
		Amount:   idr,
		Estimate: idr * feeBuffer / ask,
		OrderID:  res.OrderID.String(),
	}
	op.Info("All-in buy placed",
		zap.Float64("idr", idr),
		zap.Float64("ask", ask),
		zap.String("order_id", receipt.OrderID))
	return receipt, nil
}

// SellAll sells the whole spendable coin balance at the current bid.
func (s *Service) SellAll(ctx context.Context, coin string) (OrderReceipt, error) {
	coin = strings.ToLower(coin)
	if !IsSupportedCoin(coin) {
		return OrderReceipt{}, indodax.NewInputError("unsupported coin %q", coin)
	}
	op := s.opLogger("sell_all", coin)

	info, err := s.exchange.GetBalance(ctx)
	if err != nil {
		return OrderReceipt{}, err
	}
	amount := info.Available(coin)
	if amount <= 0 {
		return OrderReceipt{}, indodax.NewInputError("no %s balance to sell", strings.ToUpper(coin))
	}

	pair := coin + "_idr"
	bid, err := s.bidPrice(ctx, pair)
	if err != nil {
		return OrderReceipt{}, err
	}

	res, err := s.exchange.CreateOrder(ctx, pair, indodax.SideSell, bid, amount, indodax.AmountCoin)
	if err != nil {
		return OrderReceipt{}, err
	}

	receipt := OrderReceipt{
		Pair:     pair,
		Coin:     strings.ToUpper(coin),
		Side:     indodax.SideSell,
		Price:    bid,
		Amount:   amount,
		Estimate: amount * bid,
		OrderID:  res.OrderID.String(),
	}
	op.Info("All-out sell placed",
		zap.Float64("amount", amount),
		zap.Float64("bid", bid),
		zap.String("order_id", receipt.OrderID))
	return receipt, nil
}

// ManualBuy spends idrAmount on pair at the current ask.
func (s *Service) ManualBuy(ctx context.Context, pair string, idrAmount float64) (OrderReceipt, error) {
	if idrAmount <= 0 {
		return OrderReceipt{}, indodax.NewInputError("IDR amount must be positive")
	}
	ask, err := s.askPrice(ctx, pair)
	if err != nil {
		return OrderReceipt{}, err
	}

	res, err := s.exchange.CreateOrder(ctx, pair, indodax.SideBuy, ask, idrAmount, indodax.AmountIDR)
	if err != nil {
		return OrderReceipt{}, err
	}
	return OrderReceipt{
		Pair:     pair,
		Coin:     strings.ToUpper(indodax.CoinFromPair(pair)),
		Side:     indodax.SideBuy,
		Price:    ask,
		Amount:   idrAmount,
		Estimate: idrAmount / ask,
		OrderID:  res.OrderID.String(),
	}, nil
}

// ManualSell sells coinAmount of pair's coin at the current bid.
func (s *Service) ManualSell(ctx context.Context, pair string, coinAmount float64) (OrderReceipt, error) {
	if coinAmount <= 0 {
		return OrderReceipt{}, indodax.NewInputError("coin amount must be positive")
	}
	bid, err := s.bidPrice(ctx, pair)
	if err != nil {
		return OrderReceipt{}, err
	}

	res, err := s.exchange.CreateOrder(ctx, pair, indodax.SideSell, bid, coinAmount, indodax.AmountCoin)
	if err != nil {
		return OrderReceipt{}, err
	}
	return OrderReceipt{
		Pair:     pair,
		Coin:     strings.ToUpper(indodax.CoinFromPair(pair)),
		Side:     indodax.SideSell,
		Price:    bid,
		Amount:   coinAmount,
		Estimate: coinAmount * bid,
		OrderID:  res.OrderID.String(),
	}, nil
}

// OpenOrders lists all open orders.
func (s *Service) OpenOrders(ctx context.Context) ([]indodax.Order, error) {
	return s.exchange.GetOpenOrders(ctx, "")
}

// Cancel cancels one open order.
func (s *Service) Cancel(ctx context.Context, pair, orderID string, side indodax.Side) (indodax.CancelResult, error) {
	return s.exchange.CancelOrder(ctx, pair, orderID, side)
}

// ProfitReport fetches trade history and computes realized PnL. A
// failed fetch is returned as-is: the caller never sees a zeroed
// report for a broken feed.
func (s *Service) ProfitReport(ctx context.Context) (pnl.Result, error) {
	trades, err := s.exchange.GetTradeHistory(ctx, "", 0)
	if err != nil {
		return pnl.Result{}, fmt.Errorf("fetching trade history: %w", err)
	}

	flat := make([]pnl.Trade, 0, len(trades))
	for _, t := range trades {
		side := pnl.Buy
		if t.Type == indodax.SideSell {
			side = pnl.Sell
		}
		flat = append(flat, pnl.Trade{
			Pair:   t.Pair,
			Side:   side,
			Price:  t.Price.Float64(),
			Amount: t.Amount.Float64(),
			Fee:    t.Fee.Float64(),
		})
	}
	return pnl.Calculate(flat), nil
}

// askPrice returns the lowest ask for pair, rejecting unusable quotes.
func (s *Service) askPrice(ctx context.Context, pair string) (float64, error) {
	snap, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return 0, err
	}
	t, ok := snap.Pair(pair)
	if !ok || t.Ask() <= 0 {
		return 0, &indodax.ExchangeError{Op: "ticker", Message: "no usable ask price for " + pair}
	}
	return t.Ask(), nil
}

// bidPrice returns the highest bid for pair, rejecting unusable quotes.
func (s *Service) bidPrice(ctx context.Context, pair string) (float64, error) {
	snap, err := s.exchange.GetTicker(ctx, pair)
	if err != nil {
		return 0, err
	}
	t, ok := snap.Pair(pair)
	if !ok || t.Bid() <= 0 {
		return 0, &indodax.ExchangeError{Op: "ticker", Message: "no usable bid price for " + pair}
	}
	return t.Bid(), nil
}

// opLogger tags every log line of one trading operation with a
// correlation id so a single chat action can be traced end to end.
func (s *Service) opLogger(op, coin string) *zap.Logger {
	return s.logger.With(
		zap.String("operation", op),
		zap.String("coin", coin),
		zap.String("correlation_id", uuid.New().String()))
}
