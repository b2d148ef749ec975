package model

import "time"

// Decision is the per-run output of the signal engine. It is never persisted
// directly; ENTRY and EXIT decisions are turned into a PositionRecord.
type Decision struct {
	Action      Action     `json:"action"`
	Direction   Direction  `json:"direction,omitempty"`
	SignalType  SignalType `json:"signal_type,omitempty"`
	Reason      string     `json:"reason"`
	Price       float64    `json:"price"`
	StopLevel   float64    `json:"stop_level"`
	TargetLevel float64    `json:"target_level"`
	Outcome     Outcome    `json:"outcome,omitempty"`
	ProfitPct   float64    `json:"profit_pct"`
	RSI         float64    `json:"rsi"`
	CandleTS    time.Time  `json:"candle_ts"`
}

// IsTransition reports whether the decision changes the trading state.
func (d Decision) IsTransition() bool {
	return d.Action == ActionEntry || d.Action == ActionExit
}

// Record builds the position record for a transition decision.
// On exits, EntryPrice carries the exit price and stop/target are zero.
func (d Decision) Record(id, symbol string) PositionRecord {
	rec := PositionRecord{
		ID:         id,
		Timestamp:  d.CandleTS.UnixMilli(),
		Symbol:     symbol,
		EntryPrice: d.Price,
		Direction:  d.Direction,
		Action:     d.Action,
		SignalType: d.SignalType,
		Outcome:    d.Outcome,
		ProfitPct:  d.ProfitPct,
		RSI:        d.RSI,
		Reason:     d.Reason,
		Source:     SourceBot,
	}
	if d.Action == ActionEntry {
		rec.StopLoss = d.StopLevel
		rec.TakeProfit = d.TargetLevel
		rec.Outcome = OutcomePending
	}
	return rec
}
