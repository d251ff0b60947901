package telegram

import (
	"fmt"
	"strings"

	"FinScan/internal/domain/models"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// maxReasons caps the confirmation list so long signals stay readable.
const maxReasons = 6

var categoryEmoji = map[string]string{
	"meme": "🐕",
	"ai":   "🤖",
	"defi": "🏦",
}

// FormatSignal renders one accepted signal as a Markdown message.
func FormatSignal(sig *models.ScoredSignal) string {
	emoji := "🟢"
	if sig.Direction == models.Short {
		emoji = "🔴"
	}
	header := fmt.Sprintf("%s **%s** | %s", emoji, sig.Symbol, sig.Direction)
	if ce, ok := categoryEmoji[sig.Category]; ok {
		header += " " + ce
	}

	var b strings.Builder
	b.WriteString(header + "\n" + divider + "\n\n")
	fmt.Fprintf(&b, "⚡ **SCORE:** [%s] **%d/100**\n", scoreBar(sig.Score), sig.Score)
	fmt.Fprintf(&b, "🎚️ Leverage: **%dx** | %s\n\n", sig.Leverage, sig.Session)

	fmt.Fprintf(&b, "📊 **MARKET:**\n")
	fmt.Fprintf(&b, "• RSI: %.0f | ADX: %.0f | Vol: %.1fx\n",
		sig.Indicators.RSI, sig.Indicators.ADX, sig.Indicators.VolumeRatio)
	fmt.Fprintf(&b, "• Regime: %s | Confluence: %d\n\n", sig.Regime, sig.Confluence)

	fmt.Fprintf(&b, "💰 **LEVELS (ATR):**\n")
	fmt.Fprintf(&b, "┌ Entry: `%s`\n", formatPrice(sig.Entry))
	fmt.Fprintf(&b, "├ SL: `%s` (-%.2f%%)\n", formatPrice(sig.Levels.Stop), pctFrom(sig.Entry, sig.Levels.Stop))
	fmt.Fprintf(&b, "├ TP1: `%s` (+%.2f%%) [%.1fR]\n", formatPrice(sig.Levels.TP1), pctFrom(sig.Entry, sig.Levels.TP1), sig.Levels.RR1)
	fmt.Fprintf(&b, "├ TP2: `%s` (+%.2f%%) [%.1fR]\n", formatPrice(sig.Levels.TP2), pctFrom(sig.Entry, sig.Levels.TP2), sig.Levels.RR2)
	fmt.Fprintf(&b, "└ TP3: `%s` (+%.2f%%) [%.1fR]\n\n", formatPrice(sig.Levels.TP3), pctFrom(sig.Entry, sig.Levels.TP3), sig.Levels.RR3)

	if len(sig.Reasons) > 0 {
		fmt.Fprintf(&b, "📋 **CONFIRMATIONS:**\n")
		for i, r := range sig.Reasons {
			if i == maxReasons {
				break
			}
			fmt.Fprintf(&b, "✅ %s\n", r)
		}
		b.WriteString("\n")
	}

	b.WriteString("🧠 **MANAGEMENT:**\n")
	b.WriteString("• TP1 → close 40%, stop to entry\n")
	b.WriteString("• TP2 → trail the rest\n")
	b.WriteString("• TP3 → runner\n")
	b.WriteString(divider)

	if sig.ID != "" {
		fmt.Fprintf(&b, "\n📝 ID: `%s`", sig.ID)
	}
	return b.String()
}

func scoreBar(score int) string {
	filled := score / 10
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// formatPrice keeps more decimals for low-priced symbols so stops and
// targets stay distinguishable.
func formatPrice(p float64) string {
	switch {
	case p == 0:
		return "$0.00"
	case p < 0.0001:
		return fmt.Sprintf("$%.8f", p)
	case p < 0.01:
		return fmt.Sprintf("$%.6f", p)
	case p < 1:
		return fmt.Sprintf("$%.5f", p)
	case p < 100:
		return fmt.Sprintf("$%.4f", p)
	default:
		return fmt.Sprintf("$%.2f", p)
	}
}

func pctFrom(entry, level float64) float64 {
	if entry == 0 {
		return 0
	}
	d := (level - entry) / entry * 100
	if d < 0 {
		return -d
	}
	return d
}
