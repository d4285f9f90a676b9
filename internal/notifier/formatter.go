package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"CandleKeeper/internal/model"
)

// FormatRunReport formats an ingest run summary into a Telegram message.
func FormatRunReport(r *model.RunReport) string {
	var b strings.Builder

	icon := "✅"
	if len(r.Failed) > 0 {
		icon = "⚠️"
	}
	if r.Succeeded == 0 && r.Symbols > 0 {
		icon = "❌"
	}

	b.WriteString(fmt.Sprintf("%s <b>CandleKeeper ingest</b> | %s\n\n", icon, r.Finished.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Source: %s %s/%s\n", r.Provider, r.Range, r.Interval))
	b.WriteString(fmt.Sprintf("Symbols: %d ok / %d total\n", r.Succeeded, r.Symbols))
	b.WriteString(fmt.Sprintf("Rows written: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Duration: %s\n", r.Duration().Round(time.Millisecond)))

	if len(r.Failed) > 0 {
		b.WriteString("\n<b>Failures:</b>\n")
		for _, sym := range r.FailedSymbols() {
			b.WriteString(fmt.Sprintf("  %s: %s\n", html.EscapeString(sym), html.EscapeString(r.Failed[sym])))
		}
	}
	return b.String()
}

// FormatSymbols formats the configured symbol list.
func FormatSymbols(symbols []string, rng, interval string) string {
	return fmt.Sprintf("📋 <b>%d symbols</b> (%s/%s)\n%s", len(symbols), rng, interval, strings.Join(symbols, ", "))
}
