package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"signalbot/internal/model"
)

// DefaultLinkText labels the dashboard button attached to every alert.
const DefaultLinkText = "📊 Chart & history"

// FormatDecision renders a transition decision as a MarkdownV2 alert.
// It is pure; linkURL may be empty.
//
//	ENTRY           🚀 ENTRY
//	EXIT, WIN       💰 PROFIT
//	EXIT, LOSS      🛑 STOP LOSS (any losing exit, take-profit included)
func FormatDecision(d model.Decision, symbol string, now time.Time, linkURL string) Alert {
	var (
		b     strings.Builder
		level = AlertInfo
		title string
	)

	switch {
	case d.Action == model.ActionEntry:
		title = "🚀 ENTRY " + symbol
		field(&b, "Type", fmt.Sprintf("%s (%s)", entryLabel(d.Direction), d.SignalType))
		field(&b, "Reason", d.Reason)
		field(&b, "Price", usd(d.Price))
		field(&b, "Stop", usd(d.StopLevel))
		field(&b, "Target", usd(d.TargetLevel))
	case d.Action == model.ActionExit && d.Outcome == model.OutcomeWin:
		title = "💰 PROFIT " + symbol
		exitFields(&b, d)
	case d.Action == model.ActionExit:
		title = "🛑 STOP LOSS " + symbol
		level = AlertWarning
		exitFields(&b, d)
	default:
		title = "ℹ️ NO ACTION " + symbol
		field(&b, "Reason", d.Reason)
		field(&b, "Price", usd(d.Price))
	}
	field(&b, "RSI", fixed2(d.RSI))
	field(&b, "Time", now.UTC().Format("15:04:05")+" UTC")

	a := Alert{
		Level:    level,
		Title:    title,
		Message:  strings.TrimRight(b.String(), "\n"),
		Markdown: true,
	}
	if linkURL != "" {
		a.LinkURL = linkURL
		a.LinkText = DefaultLinkText
	}
	return a
}

func exitFields(b *strings.Builder, d model.Decision) {
	field(b, "Type", fmt.Sprintf("%s exit (%s)", d.SignalType, d.Direction))
	field(b, "Reason", d.Reason)
	field(b, "Price", usd(d.Price))
	field(b, "Result", fmt.Sprintf("%s%% (%s)", signed2(d.ProfitPct), d.Outcome))
}

func entryLabel(dir model.Direction) string {
	if dir == model.DirectionDown {
		return "SHORT"
	}
	return "LONG"
}

// field writes one "*Label:* value" line with the value escaped.
func field(b *strings.Builder, label, value string) {
	b.WriteString("*")
	b.WriteString(escapeMarkdown(label))
	b.WriteString(":* ")
	b.WriteString(escapeMarkdown(value))
	b.WriteString("\n")
}

func fixed2(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func signed2(v float64) string {
	s := fixed2(v)
	if v > 0 {
		return "+" + s
	}
	return s
}

// usd formats v as a dollar amount with thousands separators: $12,345.67.
func usd(v float64) string {
	s := fixed2(v)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var out strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	return sign + "$" + out.String() + "." + frac
}
