package model

import (
	"encoding/json"
	"time"
)

// Direction is the side of a position.
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Action is the state transition a record or decision represents.
type Action string

const (
	ActionEntry Action = "ENTRY"
	ActionExit  Action = "EXIT"
	ActionNone  Action = "NONE"
)

// SignalType identifies what produced a transition.
type SignalType string

const (
	SignalUp         SignalType = "UP"
	SignalDown       SignalType = "DOWN"
	SignalTakeProfit SignalType = "TAKE_PROFIT"
	SignalStopLoss   SignalType = "STOP_LOSS"
)

// Outcome is the realized result of a position.
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
)

// SourceBot tags records written by this program.
const SourceBot = "bot"

// PositionRecord is one immutable row in the append-only position history.
// The latest record by Timestamp defines the current trading state.
//
// Rows written by early versions have no Action; they decode with Action == "".
type PositionRecord struct {
	ID         string     `json:"id,omitempty"`
	Timestamp  int64      `json:"timestamp"` // candle open time, ms since epoch
	Symbol     string     `json:"symbol,omitempty"`
	EntryPrice float64    `json:"entryPrice"`
	Direction  Direction  `json:"direction,omitempty"`
	Action     Action     `json:"action,omitempty"`
	SignalType SignalType `json:"signal_type,omitempty"`
	StopLoss   float64    `json:"stopLoss"`
	TakeProfit float64    `json:"takeProfit"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	ProfitPct  float64    `json:"profit_pct"`
	RSI        float64    `json:"rsi"`
	Reason     string     `json:"reason,omitempty"`
	Source     string     `json:"source,omitempty"`
}

// Time returns the record timestamp as a time.Time in UTC.
func (r *PositionRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp).UTC()
}

// JSON returns the JSON-encoded record.
func (r *PositionRecord) JSON() []byte {
	b, _ := json.Marshal(r)
	return b
}
