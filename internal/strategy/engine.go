// Package strategy turns an indicator snapshot and the resolved position state
// into a trading decision.
//
// Strategies are pure: given the same snapshot, price and state they return the
// same Decision. They never touch the store or the network.
package strategy

import (
	"signalbot/internal/model"
	"signalbot/internal/portfolio"
)

// Strategy is the interface that all decision strategies must implement.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Decide evaluates the latest close against the indicators and the
	// current state. CandleTS is left for the caller to fill.
	Decide(ind model.Indicators, price float64, st portfolio.State) model.Decision
}

// none builds a NONE decision carrying the rationale.
func none(reason string, price float64, ind model.Indicators) model.Decision {
	return model.Decision{
		Action: model.ActionNone,
		Reason: reason,
		Price:  price,
		RSI:    ind.RSI,
	}
}
