// internal/bot/command.go
package bot

import (
	"strings"
	"unicode"
)

// CommandID identifies one normalized chat command, whether it came
// from a keyboard caption or a slash command.
type CommandID string

const (
	CmdStart          CommandID = "start"
	CmdPrices         CommandID = "prices"
	CmdBalance        CommandID = "balance"
	CmdBuySOLAll      CommandID = "buy_sol_all"
	CmdSellSOLAll     CommandID = "sell_sol_all"
	CmdChooseBuyAll   CommandID = "choose_buy_all"
	CmdChooseSellAll  CommandID = "choose_sell_all"
	CmdManualBuyHelp  CommandID = "manual_buy_help"
	CmdManualSellHelp CommandID = "manual_sell_help"
	CmdOpenOrders     CommandID = "open_orders"
	CmdPnL            CommandID = "pnl"
	CmdCancelHelp     CommandID = "cancel_help"
	CmdBack           CommandID = "back"
	CmdCoin           CommandID = "coin"
	CmdBuy            CommandID = "buy"
	CmdSell           CommandID = "sell"
	CmdBuyAll         CommandID = "buy_all"
	CmdSellAll        CommandID = "sell_all"
	CmdCancel         CommandID = "cancel"
	CmdSolBuy         CommandID = "sol_buy"
	CmdSolSell        CommandID = "sol_sell"
	CmdSolBuyAll      CommandID = "sol_buy_all"
	CmdSolSellAll     CommandID = "sol_sell_all"
	CmdSolHelp        CommandID = "sol_help"
	CmdUnknown        CommandID = "unknown"
)

// Command is the result of normalizing one incoming text.
type Command struct {
	ID   CommandID
	Args []string
}

// captionCommands maps keyboard captions, after emoji stripping, to
// command ids.
var captionCommands = map[string]CommandID{
	"Harga Koin":      CmdPrices,
	"Cek Saldo":       CmdBalance,
	"Beli SOL":        CmdBuySOLAll,
	"Jual SOL":        CmdSellSOLAll,
	"Beli All IDR":    CmdChooseBuyAll,
	"Jual All ke IDR": CmdChooseSellAll,
	"Beli Manual":     CmdManualBuyHelp,
	"Jual Manual":     CmdManualSellHelp,
	"Order Aktif":     CmdOpenOrders,
	"PnL":             CmdPnL,
	"Cancel Order":    CmdCancelHelp,
	"Kembali":         CmdBack,
}

// pickerCoins are the coins on the selection keyboard.
var pickerCoins = map[string]bool{
	"usdt": true, "eth": true, "btc": true, "sol": true,
	"xrp": true, "doge": true, "link": true, "ada": true,
	"bnb": true, "usdc": true, "trx": true, "ltc": true,
}

// Normalize turns raw incoming text into a command id plus arguments.
// Caption lookup happens after stripping the decorative emoji prefix,
// so dispatch never depends on the exact emoji a keyboard used.
func Normalize(text string) Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{ID: CmdUnknown}
	}

	if strings.HasPrefix(text, "/") {
		return normalizeSlash(text)
	}

	stripped := StripCaption(text)
	if id, ok := captionCommands[stripped]; ok {
		return Command{ID: id}
	}
	if coin := strings.ToLower(stripped); pickerCoins[coin] {
		return Command{ID: CmdCoin, Args: []string{coin}}
	}
	return Command{ID: CmdUnknown}
}

func normalizeSlash(text string) Command {
	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	args := fields[1:]

	switch name {
	case "/start":
		return Command{ID: CmdStart}
	case "/buy":
		return Command{ID: CmdBuy, Args: args}
	case "/sell":
		return Command{ID: CmdSell, Args: args}
	case "/buyall":
		return Command{ID: CmdBuyAll, Args: args}
	case "/sellall":
		return Command{ID: CmdSellAll, Args: args}
	case "/cancel":
		return Command{ID: CmdCancel, Args: args}
	case "/solbuyall":
		return Command{ID: CmdSolBuyAll}
	case "/solsellall":
		return Command{ID: CmdSolSellAll}
	case "/solbuy":
		if len(args) == 0 {
			return Command{ID: CmdSolHelp}
		}
		return Command{ID: CmdSolBuy, Args: args}
	case "/solsell":
		if len(args) == 0 {
			return Command{ID: CmdSolHelp}
		}
		return Command{ID: CmdSolSell, Args: args}
	}
	if strings.HasPrefix(name, "/sol") {
		return Command{ID: CmdSolHelp}
	}
	return Command{ID: CmdUnknown}
}

// StripCaption removes the decorative emoji/symbol prefix from a
// keyboard caption, leaving the text from the first letter or digit.
func StripCaption(text string) string {
	start := -1
	for i, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}
	return strings.TrimSpace(text[start:])
}
