package portfolio

import (
	"github.com/shopspring/decimal"

	"signalbot/internal/model"
)

// StopLevel returns the protective stop for a new position opened at price:
// price*(1-pct) for UP, price*(1+pct) for DOWN.
func StopLevel(dir model.Direction, price, pct float64) float64 {
	return stopDecimal(dir, decimal.NewFromFloat(price), pct).InexactFloat64()
}

// StopHit reports whether close has breached the stop of a position opened at
// entry. The comparison is inclusive.
func StopHit(dir model.Direction, entry, close, pct float64) bool {
	stop := stopDecimal(dir, decimal.NewFromFloat(entry), pct)
	c := decimal.NewFromFloat(close)
	if dir == model.DirectionDown {
		return c.GreaterThanOrEqual(stop)
	}
	return c.LessThanOrEqual(stop)
}

// TargetHit reports whether close has reached the take-profit target
// (the Bollinger middle band). The comparison is inclusive.
func TargetHit(dir model.Direction, close, target float64) bool {
	if dir == model.DirectionDown {
		return close <= target
	}
	return close >= target
}

func stopDecimal(dir model.Direction, price decimal.Decimal, pct float64) decimal.Decimal {
	p := decimal.NewFromFloat(pct)
	if dir == model.DirectionDown {
		return price.Mul(decimal.NewFromInt(1).Add(p))
	}
	return price.Mul(decimal.NewFromInt(1).Sub(p))
}
