package indicator

import (
	"math"

	"signalbot/internal/model"
)

// ADX computes Wilder's Average Directional Index (trend strength, 0..100).
//
// Warmup:
//  1. N periods (candle-to-candle deltas) seed the smoothed TR/+DM/-DM.
//  2. N DX values seed the ADX, which is then Wilder-smoothed.
//
// That is 2N candles before Ready() returns true.
type ADX struct {
	n int

	prev    model.Candle
	hasPrev bool
	periods int

	sumTR      float64
	sumPlusDM  float64
	sumMinusDM float64

	smTR      float64
	smPlusDM  float64
	smMinusDM float64

	plusDI  float64
	minusDI float64

	adx *SMMA // DX smoothed: SMA seed over N values, then Wilder
}

// NewADX creates a new ADX indicator with the given period (typically 14).
func NewADX(period int) *ADX {
	return &ADX{
		n:   period,
		adx: NewSMMA(period),
	}
}

func (a *ADX) Name() string   { return "ADX" }
func (a *ADX) Warmup() int    { return 2 * a.n }
func (a *ADX) Value() float64 { return a.adx.Value() }
func (a *ADX) Ready() bool    { return a.adx.Ready() }

func (a *ADX) Update(c model.Candle) {
	// Need a previous candle to form a period
	if !a.hasPrev {
		a.prev = c
		a.hasPrev = true
		return
	}

	tr := max3(c.High-c.Low, math.Abs(c.High-a.prev.Close), math.Abs(c.Low-a.prev.Close))

	upMove := c.High - a.prev.High
	downMove := a.prev.Low - c.Low

	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	a.prev = c
	a.periods++

	if a.periods <= a.n {
		a.sumTR += tr
		a.sumPlusDM += plusDM
		a.sumMinusDM += minusDM
		if a.periods < a.n {
			return
		}
		a.smTR = a.sumTR
		a.smPlusDM = a.sumPlusDM
		a.smMinusDM = a.sumMinusDM
	} else {
		// smoothed = prior - prior/N + current
		nf := float64(a.n)
		a.smTR = a.smTR - a.smTR/nf + tr
		a.smPlusDM = a.smPlusDM - a.smPlusDM/nf + plusDM
		a.smMinusDM = a.smMinusDM - a.smMinusDM/nf + minusDM
	}

	a.plusDI, a.minusDI = di(a.smPlusDM, a.smMinusDM, a.smTR)
	a.adx.add(dx(a.plusDI, a.minusDI))
}

func di(smPlusDM, smMinusDM, smTR float64) (plusDI, minusDI float64) {
	if smTR <= 0 {
		return 0, 0
	}
	return 100.0 * (smPlusDM / smTR), 100.0 * (smMinusDM / smTR)
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100.0 * (math.Abs(plusDI-minusDI) / den)
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
