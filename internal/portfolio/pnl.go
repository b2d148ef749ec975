package portfolio

import (
	"github.com/shopspring/decimal"

	"signalbot/internal/model"
)

var hundred = decimal.NewFromInt(100)

// ProfitPct returns the realized return of a position in percent:
// (exit-entry)/entry*100, negated for DOWN positions.
// entry must be positive; Resolve guarantees it for open positions.
func ProfitPct(dir model.Direction, entry, exit float64) float64 {
	e := decimal.NewFromFloat(entry)
	if e.IsZero() {
		return 0
	}
	pct := decimal.NewFromFloat(exit).Sub(e).Div(e).Mul(hundred)
	if dir == model.DirectionDown {
		pct = pct.Neg()
	}
	return pct.Round(8).InexactFloat64()
}

// OutcomeFor classifies a realized return. Only a strictly positive return is
// a win; breaking even counts as a loss.
func OutcomeFor(pct float64) model.Outcome {
	if pct > 0 {
		return model.OutcomeWin
	}
	return model.OutcomeLoss
}

// Summary aggregates realized results over a set of records.
type Summary struct {
	Trades     int     `json:"trades"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	TotalPct   float64 `json:"total_pct"`
	WinRatePct float64 `json:"win_rate_pct"`
}

// Summarize aggregates the EXIT records in recs. Other records are ignored.
func Summarize(recs []model.PositionRecord) Summary {
	var s Summary
	total := decimal.Zero
	for _, r := range recs {
		if r.Action != model.ActionExit {
			continue
		}
		s.Trades++
		switch r.Outcome {
		case model.OutcomeWin:
			s.Wins++
		default:
			s.Losses++
		}
		total = total.Add(decimal.NewFromFloat(r.ProfitPct))
	}
	s.TotalPct = total.Round(8).InexactFloat64()
	if s.Trades > 0 {
		s.WinRatePct = decimal.NewFromInt(int64(s.Wins)).
			Div(decimal.NewFromInt(int64(s.Trades))).
			Mul(hundred).Round(2).InexactFloat64()
	}
	return s
}
