package notification

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"signalbot/internal/model"
)

var at = time.Date(2024, 3, 9, 14, 15, 0, 0, time.UTC)

func TestFormatDecision_Entry(t *testing.T) {
	d := model.Decision{
		Action:      model.ActionEntry,
		Direction:   model.DirectionUp,
		SignalType:  model.SignalUp,
		Reason:      "RSI 29.50 below 35.00",
		Price:       64250.5,
		StopLevel:   63286.74,
		TargetLevel: 65120,
		RSI:         29.5,
	}
	a := FormatDecision(d, "BTC/USD", at, "https://example.com/btc")

	assert.Equal(t, AlertInfo, a.Level)
	assert.Equal(t, "🚀 ENTRY BTC/USD", a.Title)
	assert.True(t, a.Markdown)
	assert.Contains(t, a.Message, `*Type:* LONG \(UP\)`)
	assert.Contains(t, a.Message, `*Reason:* RSI 29\.50 below 35\.00`)
	assert.Contains(t, a.Message, `*Price:* $64,250\.50`)
	assert.Contains(t, a.Message, `*Stop:* $63,286\.74`)
	assert.Contains(t, a.Message, `*Target:* $65,120\.00`)
	assert.Contains(t, a.Message, `*RSI:* 29\.50`)
	assert.Contains(t, a.Message, `*Time:* 14:15:00 UTC`)
	assert.Equal(t, "https://example.com/btc", a.LinkURL)
	assert.Equal(t, DefaultLinkText, a.LinkText)
}

func TestFormatDecision_WinExit(t *testing.T) {
	d := model.Decision{
		Action:     model.ActionExit,
		Direction:  model.DirectionDown,
		SignalType: model.SignalTakeProfit,
		Reason:     "take profit",
		Price:      96.5,
		Outcome:    model.OutcomeWin,
		ProfitPct:  3.5,
	}
	a := FormatDecision(d, "ETH/USD", at, "")

	assert.Equal(t, "💰 PROFIT ETH/USD", a.Title)
	assert.Contains(t, a.Message, `*Result:* \+3\.50% \(WIN\)`)
	assert.Contains(t, a.Message, `TAKE\_PROFIT exit \(DOWN\)`)
	assert.NotContains(t, a.Message, "Stop:")
	assert.Empty(t, a.LinkURL)
}

func TestFormatDecision_LosingExits(t *testing.T) {
	for _, sig := range []model.SignalType{model.SignalStopLoss, model.SignalTakeProfit} {
		d := model.Decision{
			Action:     model.ActionExit,
			Direction:  model.DirectionUp,
			SignalType: sig,
			Price:      98.4,
			Outcome:    model.OutcomeLoss,
			ProfitPct:  -1.6,
		}
		a := FormatDecision(d, "BTC/USD", at, "")
		assert.Equal(t, "🛑 STOP LOSS BTC/USD", a.Title, string(sig))
		assert.Equal(t, AlertWarning, a.Level)
		assert.Contains(t, a.Message, `*Result:* \-1\.60% \(LOSS\)`)
	}
}

func TestFormatDecision_BreakEvenIsLoss(t *testing.T) {
	d := model.Decision{Action: model.ActionExit, Direction: model.DirectionUp, SignalType: model.SignalTakeProfit,
		Price: 100, Outcome: model.OutcomeLoss}
	a := FormatDecision(d, "BTC/USD", at, "")
	assert.True(t, strings.HasPrefix(a.Title, "🛑"))
	assert.Contains(t, a.Message, `0\.00% \(LOSS\)`)
}

func TestFormatDecision_EscapesReason(t *testing.T) {
	d := model.Decision{Action: model.ActionEntry, Direction: model.DirectionUp, SignalType: model.SignalUp,
		Reason: "a_b *c* [d](e) ~f~ `g` #h+i-j=k|l{m}.n!"}
	a := FormatDecision(d, "BTC/USD", at, "")
	assert.Contains(t, a.Message, `a\_b \*c\* \[d\]\(e\) \~f\~ \`+"`"+`g\`+"`"+` \#h\+i\-j\=k\|l\{m\}\.n\!`)
}

func TestUSD(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		5.5:        "$5.50",
		999.999:    "$1,000.00",
		12345.67:   "$12,345.67",
		1234567.8:  "$1,234,567.80",
		-98765.432: "-$98,765.43",
		100:        "$100.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, usd(in), "usd(%v)", in)
	}
}

func TestAlert_AppendNote(t *testing.T) {
	a := Alert{Message: "*Price:* $1\\.00", Markdown: true}
	a.AppendNote("not recorded: store unavailable.")
	assert.Equal(t, "*Price:* $1\\.00\n\n_not recorded: store unavailable\\._", a.Message)

	p := Alert{}
	p.AppendNote("plain.")
	assert.Equal(t, "plain.", p.Message)
}
