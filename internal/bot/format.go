// internal/bot/format.go
package bot

import (
	"errors"
	"fmt"
	"strings"

	"indodax-bot/internal/indodax"
	"indodax-bot/internal/pnl"
	"indodax-bot/internal/trading"
)

// Render is the single formatting path: every operation result, of
// whatever type, becomes chat markdown here and nowhere else.
func Render(payload any, err error) string {
	if err != nil {
		return renderError(err)
	}

	switch v := payload.(type) {
	case trading.PriceBoard:
		return renderPrices(v)
	case trading.PairPrice:
		return fmt.Sprintf("💰 *%s/IDR*: Rp %s\n\nGunakan tombol menu untuk trading!",
			v.Coin, FormatNumber(v.Last))
	case trading.BalanceDetail:
		return renderBalance(v)
	case trading.OrderReceipt:
		return renderReceipt(v)
	case []indodax.Order:
		return renderOrders(v)
	case indodax.CancelResult:
		return fmt.Sprintf("✅ Order %s berhasil dibatalkan", v.OrderID)
	case pnl.Result:
		return renderPnL(v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderError(err error) string {
	var (
		inputErr *indodax.InputError
		exchErr  *indodax.ExchangeError
	)
	switch {
	case errors.As(err, &inputErr):
		return "❌ " + inputErr.Reason
	case errors.As(err, &exchErr):
		return "❌ Gagal: " + exchErr.Message
	default:
		return "❌ Error: " + err.Error()
	}
}

func renderPrices(board trading.PriceBoard) string {
	var sb strings.Builder
	sb.WriteString("📊 *Harga Koin Terkini*\n\n")
	for _, p := range board.Prices {
		fmt.Fprintf(&sb, "*%s/IDR*: Rp %s\n", p.Coin, FormatNumber(p.Last))
	}
	fmt.Fprintf(&sb, "\n🕐 Update: %s", board.At.Format("15:04:05"))
	return sb.String()
}

func renderBalance(d trading.BalanceDetail) string {
	var sb strings.Builder
	sb.WriteString("💰 *Saldo Akun*\n\n")
	fmt.Fprintf(&sb, "💵 *IDR*: Rp %s\n\n", FormatNumber(d.IDR))
	for _, a := range d.Assets {
		fmt.Fprintf(&sb, "₿ *%s*: %s\n", a.Coin, FormatNumber(a.Amount))
		if a.Priced {
			fmt.Fprintf(&sb, "   └ ≈ Rp %s\n", FormatNumber(a.IDRValue))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "💎 *Total Aset*: Rp %s", FormatNumber(d.TotalIDR))
	return sb.String()
}

func renderReceipt(r trading.OrderReceipt) string {
	if r.Side == indodax.SideBuy {
		return fmt.Sprintf(
			"✅ *Order Buy Berhasil*\n\n"+
				"🪙 Pair: %s\n"+
				"💰 Harga: Rp %s\n"+
				"💵 Total IDR: Rp %s\n"+
				"🎯 Estimasi %s: %s\n"+
				"📋 Order ID: %s",
			strings.ToUpper(r.Pair), FormatNumber(r.Price), FormatNumber(r.Amount),
			r.Coin, FormatNumber(r.Estimate), r.OrderID)
	}
	return fmt.Sprintf(
		"✅ *Order Sell Berhasil*\n\n"+
			"🪙 Pair: %s\n"+
			"💰 Harga: Rp %s\n"+
			"🎯 Jumlah %s: %s\n"+
			"💵 Estimasi IDR: Rp %s\n"+
			"📋 Order ID: %s",
		strings.ToUpper(r.Pair), FormatNumber(r.Price), r.Coin,
		FormatNumber(r.Amount), FormatNumber(r.Estimate), r.OrderID)
}

func renderOrders(orders []indodax.Order) string {
	if len(orders) == 0 {
		return "📜 Tidak ada order aktif"
	}
	var sb strings.Builder
	sb.WriteString("📜 *Order Aktif*\n\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "🔸 %s\n   Type: %s\n   Price: Rp %s\n   Amount: %s\n   ID: %s\n\n",
			strings.ToUpper(o.Pair), o.Type,
			FormatNumber(o.Price.Float64()),
			FormatNumber(o.RemainAmount.Float64()),
			o.OrderID)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderPnL(res pnl.Result) string {
	if res.NoTrades {
		return "📈 Belum ada transaksi"
	}

	var sb strings.Builder
	sb.WriteString("📈 *Analisis PnL*\n\n")
	for pair, p := range res.PerPair {
		status := "📈"
		if p.Absolute <= 0 {
			status = "📉"
		}
		coin := strings.ToUpper(indodax.CoinFromPair(pair))
		fmt.Fprintf(&sb, "%s *%s*\n", status, coin)
		fmt.Fprintf(&sb, "   Buy: Rp %s\n", FormatNumber(p.AvgBuyPrice))
		fmt.Fprintf(&sb, "   Sell: Rp %s\n", FormatNumber(p.AvgSellPrice))
		fmt.Fprintf(&sb, "   PnL: %+.2f%% (Rp %s)\n\n", p.Percent, FormatNumber(p.Absolute))
	}

	status := "📈"
	if res.Total <= 0 {
		status = "📉"
	}
	fmt.Fprintf(&sb, "%s *Total PnL*: Rp %s", status, FormatNumber(res.Total))
	return sb.String()
}

// FormatNumber renders an amount the way the menus show it: grouped
// thousands with two decimals from 1 upward, up to eight trimmed
// decimals below 1.
func FormatNumber(n float64) string {
	if n >= 1 || n <= -1 {
		return groupThousands(fmt.Sprintf("%.2f", n))
	}
	s := fmt.Sprintf("%.8f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}

	out := sb.String()
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
