// internal/bot/keyboard.go
package bot

// Keyboard is a caption grid; the transport decides how to render it.
type Keyboard [][]string

// MainKeyboard is the top-level menu.
func MainKeyboard() Keyboard {
	return Keyboard{
		{"📊 Harga Koin", "💰 Cek Saldo"},
		{"🚀 Beli SOL", "💸 Jual SOL"},
		{"💰 Beli All IDR", "🪙 Jual All ke IDR"},
		{"🛒 Beli Manual", "💵 Jual Manual"},
		{"📜 Order Aktif", "📈 PnL"},
		{"❌ Cancel Order"},
	}
}

// CoinKeyboard is the coin picker shown after "Beli All IDR" or
// "Jual All ke IDR".
func CoinKeyboard() Keyboard {
	return Keyboard{
		{"💎 USDT", "⚡ ETH", "₿ BTC"},
		{"🚀 SOL", "💧 XRP", "🐕 DOGE"},
		{"🔗 LINK", "🎴 ADA", "🟡 BNB"},
		{"💵 USDC", "⚡ TRX", "🪙 LTC"},
		{"🔙 Kembali"},
	}
}
