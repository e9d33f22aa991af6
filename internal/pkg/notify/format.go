package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// FormatMarkdown renders an event as a Telegram Markdown message.
func FormatMarkdown(ev models.Event) string {
	var builder strings.Builder

	switch ev.Type {
	case models.EventLive:
		builder.WriteString("🔴 *Live Edge Alert*\n\n")
	default:
		builder.WriteString("📊 *Opening Odds Alert*\n\n")
	}
	builder.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(ev.Match)))
	if ev.League != "" {
		builder.WriteString(fmt.Sprintf("🏆 %s", escapeMarkdown(ev.League)))
		if ev.Status != "" {
			builder.WriteString(fmt.Sprintf(" | %s", ev.Status))
		}
		builder.WriteString("\n")
	}
	if !ev.BeginAt.IsZero() {
		builder.WriteString(fmt.Sprintf("🕐 Start: %s\n", formatTime(ev.BeginAt)))
	}
	builder.WriteString("\n")
	for _, k := range ev.OddsKeys() {
		o := ev.Odds[k]
		builder.WriteString(fmt.Sprintf("• %s: %s (fair %s) *+%s%%*\n",
			escapeMarkdown(k), fixed2(o.Current), fixed2(o.Fair), fixed2(o.EdgePercent)))
	}
	return builder.String()
}

// FormatPlain renders the odds as a single line for logs.
func FormatPlain(ev models.Event) string {
	parts := make([]string, 0, len(ev.Odds))
	for _, k := range ev.OddsKeys() {
		o := ev.Odds[k]
		parts = append(parts, fmt.Sprintf("%s %s/%s +%s%%", k, fixed2(o.Current), fixed2(o.Fair), fixed2(o.EdgePercent)))
	}
	return strings.Join(parts, "; ")
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// escapeMarkdown escapes the characters legacy Telegram Markdown treats as markup.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
