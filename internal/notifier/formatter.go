package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"AgriGenie/internal/calculator"
	"AgriGenie/internal/model"
)

func trendIcon(d model.Direction) string {
	switch d {
	case model.TrendRising:
		return "📈"
	case model.TrendFalling:
		return "📉"
	default:
		return "➖"
	}
}

func title(q model.MarketQuery) string {
	s := fmt.Sprintf("<b>%s</b> | %s", html.EscapeString(q.Commodity), html.EscapeString(q.State))
	if q.Market != "" {
		s += " (" + html.EscapeString(q.Market) + ")"
	}
	return s
}

// FormatTrendReport formats one snapshot into a Telegram message.
func FormatTrendReport(snap *model.TrendSnapshot) string {
	res := snap.Result
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s %s\n\n", trendIcon(res.Trend), title(snap.Query)))
	b.WriteString(fmt.Sprintf("Modal price: ₹%.2f (%s %s%%)\n",
		res.CurrentPrice, res.Trend, calculator.FormatPercent(res.PercentChange)))
	if snap.Band.High > 0 {
		b.WriteString(fmt.Sprintf("Recent band: ₹%.0f – ₹%.0f, avg ₹%.2f\n",
			snap.Band.Low, snap.Band.High, snap.Band.Average))
	}
	b.WriteString(fmt.Sprintf("Volatility: %.3f\n", res.Volatility))

	if n := len(res.ForecastPrices); n > 0 {
		first, last := res.ForecastPrices[0], res.ForecastPrices[n-1]
		b.WriteString(fmt.Sprintf("%d-day outlook: ₹%.2f → ₹%.2f (%s)\n", n, first.Price, last.Price, last.Date))
	}

	if len(res.Factors) > 0 {
		b.WriteString("\n<b>Factors:</b>\n")
		for _, f := range res.Factors {
			b.WriteString("  • " + html.EscapeString(f) + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\nUpdated: %s UTC", snap.ComputedAt.UTC().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatDigest formats a one-line-per-series summary.
func FormatDigest(snaps []*model.TrendSnapshot, day time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🌾 <b>AgriGenie market digest</b> | %s\n\n", day.Format("2006-01-02")))
	if len(snaps) == 0 {
		b.WriteString("No market data recorded yet.")
		return b.String()
	}
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s %s: ₹%.2f (%s %s%%)\n",
			trendIcon(s.Result.Trend), title(s.Query), s.Result.CurrentPrice,
			s.Result.Trend, calculator.FormatPercent(s.Result.PercentChange)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatAlert formats a significant-movement alert.
func FormatAlert(snap *model.TrendSnapshot) string {
	res := snap.Result
	verb := "up"
	if res.Trend == model.TrendFalling {
		verb = "down"
	}
	return fmt.Sprintf("⚠️ <b>Price alert</b>\n\n%s\nModal price %s %s%% to ₹%.2f",
		title(snap.Query), verb, calculator.FormatPercent(res.PercentChange), res.CurrentPrice)
}

// HelpText lists the supported chat commands.
const HelpText = "Available commands:\n" +
	"• /trend &lt;state&gt; | &lt;commodity&gt;\n" +
	"• /watchlist"
