// Package portfolio derives the trading state from the position history and
// holds the P&L and stop arithmetic shared by the decision engine.
//
// The only memory the bot has across runs is the latest persisted record, so
// the state is always re-derived here rather than carried in process.
package portfolio

import (
	"errors"
	"fmt"

	"signalbot/internal/model"
)

// ErrCorruptRecord is returned when the latest record claims an open position
// that cannot be acted on (no usable entry price or direction).
var ErrCorruptRecord = errors.New("corrupt position record")

// Kind is the macro-state of the bot.
type Kind int

const (
	Flat Kind = iota
	InPosition
)

func (k Kind) String() string {
	switch k {
	case Flat:
		return "FLAT"
	case InPosition:
		return "IN_POSITION"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is the resolved trading state. Direction and EntryPrice are set only
// when Kind is InPosition.
type State struct {
	Kind       Kind            `json:"state"`
	Direction  model.Direction `json:"direction,omitempty"`
	EntryPrice float64         `json:"entry_price,omitempty"`
}

// Open reports whether a position is open.
func (s State) Open() bool { return s.Kind == InPosition }

func (s State) String() string {
	if s.Kind != InPosition {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s/%s@%.2f", s.Kind, s.Direction, s.EntryPrice)
}

// Resolve maps the latest record (nil when the history is empty) to a State.
//
//	nil                         → Flat
//	action ENTRY                → InPosition
//	action EXIT                 → Flat
//	no action, has direction    → InPosition (rows written before action existed)
//	no action, no direction     → Flat
func Resolve(rec *model.PositionRecord) (State, error) {
	if rec == nil {
		return State{Kind: Flat}, nil
	}

	switch rec.Action {
	case model.ActionExit:
		return State{Kind: Flat}, nil
	case model.ActionEntry:
		return open(rec)
	case "":
		if rec.Direction == "" {
			return State{Kind: Flat}, nil
		}
		return open(rec)
	default:
		return State{}, fmt.Errorf("%w: unknown action %q (id=%s)", ErrCorruptRecord, rec.Action, rec.ID)
	}
}

func open(rec *model.PositionRecord) (State, error) {
	if !rec.Direction.Valid() {
		return State{}, fmt.Errorf("%w: invalid direction %q (id=%s)", ErrCorruptRecord, rec.Direction, rec.ID)
	}
	if rec.EntryPrice <= 0 {
		return State{}, fmt.Errorf("%w: entry price %v (id=%s)", ErrCorruptRecord, rec.EntryPrice, rec.ID)
	}
	return State{
		Kind:       InPosition,
		Direction:  rec.Direction,
		EntryPrice: rec.EntryPrice,
	}, nil
}
