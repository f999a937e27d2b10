// internal/bot/bot.go

// Package bot turns normalized chat commands into trading operations
// and renders the results back as chat messages. It is transport
// agnostic: the Telegram specifics live behind the Transport
// interface.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"indodax-bot/internal/indodax"
	"indodax-bot/internal/pnl"
	"indodax-bot/internal/trading"
)

// Message is one incoming chat message.
type Message struct {
	ChatID    int64
	MessageID int
	UserID    int64
	FirstName string
	Text      string
}

// Transport delivers updates and sends replies. Implementations must
// be safe for use from a single consuming goroutine.
type Transport interface {
	Updates(ctx context.Context) <-chan Message
	Send(chatID int64, text string, keyboard Keyboard) (messageID int, err error)
	Delete(chatID int64, messageID int) error
}

// TradingService is the slice of the trading layer the bot drives.
type TradingService interface {
	Prices(ctx context.Context) (trading.PriceBoard, error)
	Price(ctx context.Context, coin string) (trading.PairPrice, error)
	BalanceDetail(ctx context.Context) (trading.BalanceDetail, error)
	BuyAllIDR(ctx context.Context, coin string) (trading.OrderReceipt, error)
	SellAll(ctx context.Context, coin string) (trading.OrderReceipt, error)
	ManualBuy(ctx context.Context, pair string, idrAmount float64) (trading.OrderReceipt, error)
	ManualSell(ctx context.Context, pair string, coinAmount float64) (trading.OrderReceipt, error)
	OpenOrders(ctx context.Context) ([]indodax.Order, error)
	Cancel(ctx context.Context, pair, orderID string, side indodax.Side) (indodax.CancelResult, error)
	ProfitReport(ctx context.Context) (pnl.Result, error)
}

// reply is what a handler wants sent back.
type reply struct {
	text     string
	keyboard Keyboard      // nil means the main menu
	deleteIn time.Duration // >0 schedules deletion of the sent message
}

type handlerFunc func(ctx context.Context, msg Message, args []string) reply

// Bot is the chat dispatcher.
type Bot struct {
	transport Transport
	svc       TradingService
	sessions  *Sessions
	ownerID   int64
	logger    *zap.Logger
	handlers  map[CommandID]handlerFunc
}

// New creates a Bot for a single authorized owner.
func New(transport Transport, svc TradingService, ownerID int64, logger *zap.Logger) *Bot {
	b := &Bot{
		transport: transport,
		svc:       svc,
		sessions:  NewSessions(),
		ownerID:   ownerID,
		logger:    logger.Named("bot"),
	}
	b.handlers = map[CommandID]handlerFunc{
		CmdStart:          b.handleStart,
		CmdPrices:         b.handlePrices,
		CmdBalance:        b.handleBalance,
		CmdBuySOLAll:      b.coinAction(ActionBuyAll, "sol"),
		CmdSellSOLAll:     b.coinAction(ActionSellAll, "sol"),
		CmdChooseBuyAll:   b.handleChoose(ActionBuyAll, "💰 *Pilih Koin untuk Beli dengan Semua IDR:*"),
		CmdChooseSellAll:  b.handleChoose(ActionSellAll, "🪙 *Pilih Koin untuk Jual Semua ke IDR:*"),
		CmdManualBuyHelp:  staticReply(manualBuyHelp),
		CmdManualSellHelp: staticReply(manualSellHelp),
		CmdOpenOrders:     b.handleOpenOrders,
		CmdPnL:            b.handlePnL,
		CmdCancelHelp:     staticReply(cancelHelp),
		CmdBack:           staticReply("🔙 Kembali ke menu utama"),
		CmdCoin:           b.handleCoin,
		CmdBuy:            b.handleManualBuy,
		CmdSell:           b.handleManualSell,
		CmdBuyAll:         b.handleBuyAllArg,
		CmdSellAll:        b.handleSellAllArg,
		CmdCancel:         b.handleCancel,
		CmdSolBuy:         b.handleSolBuy,
		CmdSolSell:        b.handleSolSell,
		CmdSolBuyAll:      b.coinAction(ActionBuyAll, "sol"),
		CmdSolSellAll:     b.coinAction(ActionSellAll, "sol"),
		CmdSolHelp:        staticReply(solHelp),
		CmdUnknown:        staticReply("❌ Menu tidak dikenal. Gunakan keyboard di bawah."),
	}
	return b
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bot started", zap.Int64("owner_id", b.ownerID))
	updates := b.transport.Updates(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleMessage(ctx, msg)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg Message) {
	// The operator's menu taps are noise; keep the chat clean.
	_ = b.transport.Delete(msg.ChatID, msg.MessageID)

	if msg.UserID != b.ownerID {
		b.logger.Warn("Rejected non-owner message", zap.Int64("user_id", msg.UserID))
		b.sendEphemeral(msg.ChatID, "❌ Kamu tidak punya akses ke bot ini", 2*time.Second)
		return
	}

	cmd := Normalize(msg.Text)
	handler, ok := b.handlers[cmd.ID]
	if !ok {
		handler = b.handlers[CmdUnknown]
	}

	rep := handler(ctx, msg, cmd.Args)
	if rep.text == "" {
		return
	}
	kb := rep.keyboard
	if kb == nil {
		kb = MainKeyboard()
	}

	msgID, err := b.transport.Send(msg.ChatID, rep.text, kb)
	if err != nil {
		b.logger.Error("Failed to send reply",
			zap.String("command", string(cmd.ID)),
			zap.Error(err))
		return
	}
	if rep.deleteIn > 0 {
		b.scheduleDelete(msg.ChatID, msgID, rep.deleteIn)
	}
}

func (b *Bot) sendEphemeral(chatID int64, text string, ttl time.Duration) {
	msgID, err := b.transport.Send(chatID, text, nil)
	if err != nil {
		return
	}
	b.scheduleDelete(chatID, msgID, ttl)
}

func (b *Bot) scheduleDelete(chatID int64, messageID int, after time.Duration) {
	time.AfterFunc(after, func() {
		_ = b.transport.Delete(chatID, messageID)
	})
}

// --- handlers ---

func (b *Bot) handleStart(_ context.Context, msg Message, _ []string) reply {
	name := msg.FirstName
	if name == "" {
		name = "operator"
	}
	return reply{text: fmt.Sprintf(
		"🤖 *Bot Trading Indodax*\n\nSelamat datang, %s!\nPilih menu di bawah untuk mulai trading:", name)}
}

func (b *Bot) handlePrices(ctx context.Context, _ Message, _ []string) reply {
	board, err := b.svc.Prices(ctx)
	return reply{text: Render(board, err), deleteIn: 30 * time.Second}
}

func (b *Bot) handleBalance(ctx context.Context, _ Message, _ []string) reply {
	detail, err := b.svc.BalanceDetail(ctx)
	return reply{text: Render(detail, err), deleteIn: 30 * time.Second}
}

// handleChoose arms the session and shows the coin picker.
func (b *Bot) handleChoose(action PendingAction, prompt string) handlerFunc {
	return func(_ context.Context, msg Message, _ []string) reply {
		b.sessions.SetPending(msg.ChatID, action)
		return reply{text: prompt, keyboard: CoinKeyboard()}
	}
}

// handleCoin completes whatever action the picker was opened for; a
// bare selection just shows the price.
func (b *Bot) handleCoin(ctx context.Context, msg Message, args []string) reply {
	coin := args[0]
	switch b.sessions.TakePending(msg.ChatID) {
	case ActionBuyAll:
		receipt, err := b.svc.BuyAllIDR(ctx, coin)
		return reply{text: Render(receipt, err)}
	case ActionSellAll:
		receipt, err := b.svc.SellAll(ctx, coin)
		return reply{text: Render(receipt, err)}
	default:
		price, err := b.svc.Price(ctx, coin)
		return reply{text: Render(price, err)}
	}
}

// coinAction is a fixed-coin shortcut for the buy/sell-all flows.
func (b *Bot) coinAction(action PendingAction, coin string) handlerFunc {
	return func(ctx context.Context, _ Message, _ []string) reply {
		if action == ActionBuyAll {
			receipt, err := b.svc.BuyAllIDR(ctx, coin)
			return reply{text: Render(receipt, err)}
		}
		receipt, err := b.svc.SellAll(ctx, coin)
		return reply{text: Render(receipt, err)}
	}
}

func (b *Bot) handleManualBuy(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 2 {
		return reply{text: "❌ Format salah. Gunakan: /buy [pair] [jumlah_idr]"}
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return reply{text: Render(nil, err)}
	}
	receipt, err := b.svc.ManualBuy(ctx, strings.ToLower(args[0]), amount)
	return reply{text: Render(receipt, err)}
}

func (b *Bot) handleManualSell(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 2 {
		return reply{text: "❌ Format salah. Gunakan: /sell [pair] [jumlah_koin]"}
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return reply{text: Render(nil, err)}
	}
	receipt, err := b.svc.ManualSell(ctx, strings.ToLower(args[0]), amount)
	return reply{text: Render(receipt, err)}
}

func (b *Bot) handleBuyAllArg(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 1 {
		return reply{text: "❌ Format salah. Gunakan: /buyall [koin]"}
	}
	receipt, err := b.svc.BuyAllIDR(ctx, args[0])
	return reply{text: Render(receipt, err)}
}

func (b *Bot) handleSellAllArg(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 1 {
		return reply{text: "❌ Format salah. Gunakan: /sellall [koin]"}
	}
	receipt, err := b.svc.SellAll(ctx, args[0])
	return reply{text: Render(receipt, err)}
}

func (b *Bot) handleCancel(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 3 {
		return reply{text: "❌ Format salah. Gunakan: /cancel [pair] [order_id] [type]"}
	}
	res, err := b.svc.Cancel(ctx, strings.ToLower(args[0]), args[1], indodax.Side(strings.ToLower(args[2])))
	return reply{text: Render(res, err)}
}

func (b *Bot) handleSolBuy(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 1 {
		return reply{text: "❌ Format salah. Gunakan: /solbuy [jumlah_idr]"}
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return reply{text: Render(nil, err)}
	}
	receipt, err := b.svc.ManualBuy(ctx, "sol_idr", amount)
	return reply{text: Render(receipt, err)}
}

func (b *Bot) handleSolSell(ctx context.Context, _ Message, args []string) reply {
	if len(args) != 1 {
		return reply{text: "❌ Format salah. Gunakan: /solsell [jumlah_sol]"}
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return reply{text: Render(nil, err)}
	}
	receipt, err := b.svc.ManualSell(ctx, "sol_idr", amount)
	return reply{text: Render(receipt, err)}
}

func (b *Bot) handleOpenOrders(ctx context.Context, _ Message, _ []string) reply {
	orders, err := b.svc.OpenOrders(ctx)
	return reply{text: Render(orders, err)}
}

func (b *Bot) handlePnL(ctx context.Context, _ Message, _ []string) reply {
	report, err := b.svc.ProfitReport(ctx)
	return reply{text: Render(report, err)}
}

func staticReply(text string) handlerFunc {
	return func(context.Context, Message, []string) reply {
		return reply{text: text}
	}
}

func parseAmount(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, indodax.NewInputError("Jumlah harus berupa angka")
	}
	return f, nil
}

const manualBuyHelp = "🛒 *Beli Koin Manual*\n\n" +
	"Format: /buy [pair] [jumlah_idr]\n" +
	"Contoh: /buy btc_idr 1000000\n\n" +
	"Top pairs: usdt_idr, eth_idr, btc_idr, sol_idr, xrp_idr"

const manualSellHelp = "💵 *Jual Koin Manual*\n\n" +
	"Format: /sell [pair] [jumlah_koin]\n" +
	"Contoh: /sell btc_idr 0.01\n\n" +
	"Top pairs: usdt_idr, eth_idr, btc_idr, sol_idr, xrp_idr"

const cancelHelp = "❌ *Cancel Order*\n\n" +
	"Format: /cancel [pair] [order_id] [type]\n" +
	"Contoh: /cancel btc_idr 12345 buy"

const solHelp = "🚀 *Solana (SOL) Trading*\n\n" +
	"Commands cepat:\n" +
	"/solbuy [idr] - Beli SOL\n" +
	"/solsell [sol] - Jual SOL\n" +
	"/solbuyall - Beli dengan semua IDR\n" +
	"/solsellall - Jual semua SOL\n\n" +
	"Contoh:\n/solbuy 1000000\n/solsell 2.5"
