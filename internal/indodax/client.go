// internal/indodax/client.go
package indodax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://indodax.com"
	privatePath    = "/tapi"

	// recvWindow is the server-side staleness tolerance, in
	// milliseconds, for the request timestamp.
	recvWindow = "5000"

	requestTimeout = 30 * time.Second

	methodGetInfo      = "getInfo"
	methodTrade        = "trade"
	methodOpenOrders   = "openOrders"
	methodCancelOrder  = "cancelOrder"
	methodTradeHistory = "tradeHistory"

	defaultHistoryCount = 100
)

// Credentials are the exchange API key pair. Immutable for the
// process lifetime.
type Credentials struct {
	APIKey    string
	SecretKey string
}

// Client talks to the Indodax REST surface. Private calls are signed
// with HMAC-SHA512 over the canonical query string; public market
// data goes out unauthenticated. The client performs no retries: a
// repeated call is a new request with a fresh timestamp, never a
// replay.
type Client struct {
	creds   Credentials
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different exchange host.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// New creates a Client. Missing credentials are a startup fault:
// callers should treat the error as fatal rather than retry.
func New(creds Credentials, logger *zap.Logger, opts ...Option) (*Client, error) {
	if creds.APIKey == "" || creds.SecretKey == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		creds:   creds,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: requestTimeout},
		logger:  logger.Named("indodax"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// apiEnvelope is the private-API response frame: success 0|1 plus
// either a return object or an error string.
type apiEnvelope struct {
	Success int             `json:"success"`
	Error   string          `json:"error"`
	Return  json.RawMessage `json:"return"`
}

// buildPrivateRequest merges extra with the method name, a freshly
// minted millisecond timestamp and the fixed recvWindow, then signs
// the canonical query. The timestamp is regenerated on every call.
func (c *Client) buildPrivateRequest(method string, extra map[string]string) (body string, headers map[string]string, err error) {
	params := make(map[string]string, len(extra)+3)
	for k, v := range extra {
		params[k] = v
	}
	params["method"] = method
	params["timestamp"] = strconv.FormatInt(c.now().UnixMilli(), 10)
	params["recvWindow"] = recvWindow

	body = CanonicalQuery(params)
	sig, err := c.Sign(body)
	if err != nil {
		return "", nil, err
	}

	headers = map[string]string{
		"Key":          c.creds.APIKey,
		"Sign":         sig,
		"Content-Type": "application/x-www-form-urlencoded",
	}
	return body, headers, nil
}

// privateCall executes one signed POST against /tapi and decodes the
// return object into out. Transport and exchange failures come back
// as typed errors; nothing panics past this boundary.
func (c *Client) privateCall(ctx context.Context, method string, extra map[string]string, out any) error {
	body, headers, err := c.buildPrivateRequest(method, extra)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+privatePath, strings.NewReader(body))
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("Private call failed",
			zap.String("method", method),
			zap.Error(err))
		return &TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: method, Err: err}
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &TransportError{Op: method, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if env.Success != 1 {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		c.logger.Warn("Exchange rejected call",
			zap.String("method", method),
			zap.String("error", msg))
		return &ExchangeError{Op: method, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(env.Return, out); err != nil {
			return &TransportError{Op: method, Err: fmt.Errorf("decoding return payload: %w", err)}
		}
	}
	return nil
}

// GetTicker fetches market data. With an empty pair it returns the
// full ticker map; otherwise a snapshot holding just that pair.
// Public, unauthenticated.
func (c *Client) GetTicker(ctx context.Context, pair string) (TickerSnapshot, error) {
	url := c.baseURL + "/api/ticker_all"
	if pair != "" {
		url = c.baseURL + "/api/ticker/" + pair
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TickerSnapshot{}, &TransportError{Op: "ticker", Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return TickerSnapshot{}, &TransportError{Op: "ticker", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return TickerSnapshot{}, &TransportError{Op: "ticker", Err: err}
	}

	if pair != "" {
		var single struct {
			Ticker Ticker `json:"ticker"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal(raw, &single); err != nil {
			return TickerSnapshot{}, &TransportError{Op: "ticker", Err: err}
		}
		if single.Error != "" {
			return TickerSnapshot{}, &ExchangeError{Op: "ticker", Message: single.Error}
		}
		return TickerSnapshot{Tickers: map[string]Ticker{pair: single.Ticker}}, nil
	}

	var all struct {
		Tickers map[string]Ticker `json:"tickers"`
		Error   string            `json:"error"`
	}
	if err := json.Unmarshal(raw, &all); err != nil {
		return TickerSnapshot{}, &TransportError{Op: "ticker", Err: err}
	}
	if all.Error != "" {
		return TickerSnapshot{}, &ExchangeError{Op: "ticker", Message: all.Error}
	}
	return TickerSnapshot{Tickers: all.Tickers}, nil
}

// GetBalance fetches spendable and held balances.
func (c *Client) GetBalance(ctx context.Context) (BalanceInfo, error) {
	var info BalanceInfo
	if err := c.privateCall(ctx, methodGetInfo, nil, &info); err != nil {
		return BalanceInfo{}, err
	}
	return info, nil
}

// CreateOrder places a limit order. For a buy denominated in IDR the
// amount travels under the literal key "idr"; for a coin-denominated
// buy, and for every sell, it travels under the coin symbol derived
// from the pair. Getting this key wrong silently misinterprets the
// trade size, so it is validated here rather than left to the caller.
func (c *Client) CreateOrder(ctx context.Context, pair string, side Side, price, amount float64, unit AmountUnit) (OrderResult, error) {
	if !strings.Contains(pair, "_") {
		return OrderResult{}, NewInputError("malformed pair %q", pair)
	}
	if !side.Valid() {
		return OrderResult{}, NewInputError("unknown order side %q", side)
	}
	if price <= 0 {
		return OrderResult{}, NewInputError("price must be positive, got %v", price)
	}
	if amount <= 0 {
		return OrderResult{}, NewInputError("amount must be positive, got %v", amount)
	}
	if unit != AmountIDR && unit != AmountCoin {
		return OrderResult{}, NewInputError("unknown amount unit %q", unit)
	}

	params := map[string]string{
		"pair":  pair,
		"type":  string(side),
		"price": formatAmount(price),
	}

	coin := CoinFromPair(pair)
	if side == SideBuy && unit == AmountIDR {
		params["idr"] = formatAmount(amount)
	} else {
		params[coin] = formatAmount(amount)
	}

	var res OrderResult
	if err := c.privateCall(ctx, methodTrade, params, &res); err != nil {
		return OrderResult{}, err
	}

	c.logger.Info("Order placed",
		zap.String("pair", pair),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Float64("amount", amount),
		zap.String("amount_unit", string(unit)),
		zap.String("order_id", res.OrderID.String()))
	return res, nil
}

// GetOpenOrders lists open orders, optionally restricted to one pair.
func (c *Client) GetOpenOrders(ctx context.Context, pair string) ([]Order, error) {
	params := map[string]string{}
	if pair != "" {
		params["pair"] = pair
	}

	var ret struct {
		Orders []Order `json:"orders"`
	}
	if err := c.privateCall(ctx, methodOpenOrders, params, &ret); err != nil {
		return nil, err
	}
	return ret.Orders, nil
}

// CancelOrder cancels one open order.
func (c *Client) CancelOrder(ctx context.Context, pair, orderID string, side Side) (CancelResult, error) {
	if !strings.Contains(pair, "_") {
		return CancelResult{}, NewInputError("malformed pair %q", pair)
	}
	if orderID == "" {
		return CancelResult{}, NewInputError("empty order id")
	}
	if !side.Valid() {
		return CancelResult{}, NewInputError("unknown order side %q", side)
	}

	params := map[string]string{
		"pair":     pair,
		"order_id": orderID,
		"type":     string(side),
	}

	var res CancelResult
	if err := c.privateCall(ctx, methodCancelOrder, params, &res); err != nil {
		return CancelResult{}, err
	}

	c.logger.Info("Order cancelled",
		zap.String("pair", pair),
		zap.String("order_id", orderID))
	return res, nil
}

// GetTradeHistory fetches executed fills, newest first, optionally
// restricted to one pair. A count of 0 means the default of 100.
func (c *Client) GetTradeHistory(ctx context.Context, pair string, count int) ([]Trade, error) {
	if count <= 0 {
		count = defaultHistoryCount
	}
	params := map[string]string{
		"count": strconv.Itoa(count),
	}
	if pair != "" {
		params["pair"] = pair
	}

	var ret struct {
		Trades []Trade `json:"trades"`
	}
	if err := c.privateCall(ctx, methodTradeHistory, params, &ret); err != nil {
		return nil, err
	}
	return ret.Trades, nil
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
