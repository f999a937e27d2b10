package bot

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"indodax-bot/internal/indodax"
	"indodax-bot/internal/pnl"
	"indodax-bot/internal/trading"
)

// mockTransport records every outgoing action.
type mockTransport struct {
	updates chan Message
	sent    []sentMessage
	deleted []int
}

type sentMessage struct {
	chatID   int64
	text     string
	keyboard Keyboard
}

func newMockTransport() *mockTransport {
	return &mockTransport{updates: make(chan Message, 8)}
}

func (m *mockTransport) Updates(context.Context) <-chan Message { return m.updates }

func (m *mockTransport) Send(chatID int64, text string, kb Keyboard) (int, error) {
	m.sent = append(m.sent, sentMessage{chatID, text, kb})
	return len(m.sent), nil
}

func (m *mockTransport) Delete(_ int64, messageID int) error {
	m.deleted = append(m.deleted, messageID)
	return nil
}

// mockService serves canned trading results.
type mockService struct {
	buyAllCoins  []string
	sellAllCoins []string
}

func (m *mockService) Prices(context.Context) (trading.PriceBoard, error) {
	return trading.PriceBoard{}, nil
}

func (m *mockService) Price(_ context.Context, coin string) (trading.PairPrice, error) {
	return trading.PairPrice{Pair: coin + "_idr", Coin: strings.ToUpper(coin), Last: 100}, nil
}

func (m *mockService) BalanceDetail(context.Context) (trading.BalanceDetail, error) {
	return trading.BalanceDetail{}, nil
}

func (m *mockService) BuyAllIDR(_ context.Context, coin string) (trading.OrderReceipt, error) {
	m.buyAllCoins = append(m.buyAllCoins, coin)
	return trading.OrderReceipt{Pair: coin + "_idr", Coin: strings.ToUpper(coin), Side: indodax.SideBuy, Price: 1, Amount: 1, OrderID: "1"}, nil
}

func (m *mockService) SellAll(_ context.Context, coin string) (trading.OrderReceipt, error) {
	m.sellAllCoins = append(m.sellAllCoins, coin)
	return trading.OrderReceipt{Pair: coin + "_idr", Coin: strings.ToUpper(coin), Side: indodax.SideSell, Price: 1, Amount: 1, OrderID: "2"}, nil
}

func (m *mockService) ManualBuy(_ context.Context, pair string, _ float64) (trading.OrderReceipt, error) {
	return trading.OrderReceipt{Pair: pair, Side: indodax.SideBuy, OrderID: "3"}, nil
}

func (m *mockService) ManualSell(_ context.Context, pair string, _ float64) (trading.OrderReceipt, error) {
	return trading.OrderReceipt{Pair: pair, Side: indodax.SideSell, OrderID: "4"}, nil
}

func (m *mockService) OpenOrders(context.Context) ([]indodax.Order, error) { return nil, nil }

func (m *mockService) Cancel(_ context.Context, pair, orderID string, side indodax.Side) (indodax.CancelResult, error) {
	return indodax.CancelResult{OrderID: indodax.OrderID(orderID), Pair: pair, Type: side}, nil
}

func (m *mockService) ProfitReport(context.Context) (pnl.Result, error) {
	return pnl.Result{NoTrades: true}, nil
}

const ownerID = 7

func newTestBot(t *testing.T) (*Bot, *mockTransport, *mockService) {
	t.Helper()
	transport := newMockTransport()
	svc := &mockService{}
	b := New(transport, svc, ownerID, zap.NewNop())
	return b, transport, svc
}

func ownerMessage(text string) Message {
	return Message{ChatID: 100, MessageID: 1, UserID: ownerID, FirstName: "Op", Text: text}
}

func TestOwnerGateRejectsStrangers(t *testing.T) {
	b, transport, svc := newTestBot(t)

	b.handleMessage(context.Background(), Message{ChatID: 100, MessageID: 1, UserID: 999, Text: "📈 PnL"})

	if len(transport.sent) != 1 || !strings.Contains(transport.sent[0].text, "tidak punya akses") {
		t.Fatalf("expected access denial, got %+v", transport.sent)
	}
	if len(svc.buyAllCoins)+len(svc.sellAllCoins) != 0 {
		t.Error("stranger reached the trading service")
	}
}

func TestIncomingMessagesAreDeleted(t *testing.T) {
	b, transport, _ := newTestBot(t)

	b.handleMessage(context.Background(), ownerMessage("📈 PnL"))

	if len(transport.deleted) != 1 || transport.deleted[0] != 1 {
		t.Errorf("incoming message not deleted: %v", transport.deleted)
	}
}

func TestCoinSelectionCompletesBuyAllFlow(t *testing.T) {
	b, transport, svc := newTestBot(t)
	ctx := context.Background()

	// Opening the picker arms the session and swaps the keyboard.
	b.handleMessage(ctx, ownerMessage("💰 Beli All IDR"))
	if len(transport.sent) != 1 {
		t.Fatalf("expected picker prompt, got %d messages", len(transport.sent))
	}
	if len(transport.sent[0].keyboard) != len(CoinKeyboard()) {
		t.Error("picker prompt did not carry the coin keyboard")
	}

	// The next coin tap completes the armed action.
	b.handleMessage(ctx, ownerMessage("₿ BTC"))
	if len(svc.buyAllCoins) != 1 || svc.buyAllCoins[0] != "btc" {
		t.Fatalf("BuyAllIDR calls = %v, want [btc]", svc.buyAllCoins)
	}

	// The context is consumed: another tap is just a price lookup.
	b.handleMessage(ctx, ownerMessage("₿ BTC"))
	if len(svc.buyAllCoins) != 1 {
		t.Errorf("pending action fired twice: %v", svc.buyAllCoins)
	}
	last := transport.sent[len(transport.sent)-1]
	if !strings.Contains(last.text, "BTC/IDR") {
		t.Errorf("expected a bare price reply, got %q", last.text)
	}
}

func TestCoinSelectionCompletesSellAllFlow(t *testing.T) {
	b, _, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, ownerMessage("🪙 Jual All ke IDR"))
	b.handleMessage(ctx, ownerMessage("🚀 SOL"))

	if len(svc.sellAllCoins) != 1 || svc.sellAllCoins[0] != "sol" {
		t.Fatalf("SellAll calls = %v, want [sol]", svc.sellAllCoins)
	}
}

func TestSessionsIndependentAcrossChats(t *testing.T) {
	b, _, svc := newTestBot(t)
	ctx := context.Background()

	chatA := Message{ChatID: 1, UserID: ownerID, Text: "💰 Beli All IDR"}
	chatB := Message{ChatID: 2, UserID: ownerID, Text: "₿ BTC"}

	b.handleMessage(ctx, chatA)
	// Chat B never armed an action, so its tap is a price lookup.
	b.handleMessage(ctx, chatB)

	if len(svc.buyAllCoins) != 0 {
		t.Errorf("chat B consumed chat A's pending action: %v", svc.buyAllCoins)
	}
}

func TestSolShortcutButtons(t *testing.T) {
	b, _, svc := newTestBot(t)
	ctx := context.Background()

	b.handleMessage(ctx, ownerMessage("🚀 Beli SOL"))
	b.handleMessage(ctx, ownerMessage("💸 Jual SOL"))

	if len(svc.buyAllCoins) != 1 || svc.buyAllCoins[0] != "sol" {
		t.Errorf("BuyAllIDR calls = %v, want [sol]", svc.buyAllCoins)
	}
	if len(svc.sellAllCoins) != 1 || svc.sellAllCoins[0] != "sol" {
		t.Errorf("SellAll calls = %v, want [sol]", svc.sellAllCoins)
	}
}

func TestMalformedSlashCommandArguments(t *testing.T) {
	b, transport, _ := newTestBot(t)
	ctx := context.Background()

	tests := []struct {
		text string
		want string
	}{
		{"/buy btc_idr", "Format salah"},
		{"/buy btc_idr banyak", "Jumlah harus berupa angka"},
		{"/sell btc_idr", "Format salah"},
		{"/cancel btc_idr 12345", "Format salah"},
		{"/buyall", "Format salah"},
	}

	for _, tt := range tests {
		before := len(transport.sent)
		b.handleMessage(ctx, ownerMessage(tt.text))
		if len(transport.sent) != before+1 {
			t.Fatalf("%s: no reply", tt.text)
		}
		if got := transport.sent[before].text; !strings.Contains(got, tt.want) {
			t.Errorf("%s: reply %q missing %q", tt.text, got, tt.want)
		}
	}
}

func TestUnknownTextGetsMenuHint(t *testing.T) {
	b, transport, _ := newTestBot(t)

	b.handleMessage(context.Background(), ownerMessage("apa kabar"))

	last := transport.sent[len(transport.sent)-1]
	if !strings.Contains(last.text, "Menu tidak dikenal") {
		t.Errorf("unknown text reply = %q", last.text)
	}
	if len(last.keyboard) != len(MainKeyboard()) {
		t.Error("unknown text reply did not restore the main keyboard")
	}
}
