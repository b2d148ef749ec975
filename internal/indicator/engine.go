package indicator

import (
	"errors"
	"fmt"

	"signalbot/internal/model"
)

// ErrInsufficientData is matched (errors.Is) by *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient candle data")

// InsufficientDataError reports a window too short for the base RSI/BB periods.
type InsufficientDataError struct {
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient candle data: need %d candles, have %d", e.Need, e.Have)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// Config specifies the indicators to compute. A zero ADXPeriod or
// TrendEMAPeriod disables that indicator.
type Config struct {
	RSIPeriod      int
	BBPeriod       int
	BBStdDev       float64
	ADXPeriod      int
	TrendEMAPeriod int
}

// DefaultConfig returns RSI(14) and BB(20, 2) with ADX and trend EMA disabled.
func DefaultConfig() Config {
	return Config{
		RSIPeriod: 14,
		BBPeriod:  20,
		BBStdDev:  2,
	}
}

// Validate checks periods and the band multiplier.
func (c Config) Validate() error {
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("indicator: rsi period must be > 0, got %d", c.RSIPeriod)
	}
	if c.BBPeriod <= 1 {
		return fmt.Errorf("indicator: bb period must be > 1, got %d", c.BBPeriod)
	}
	if c.BBStdDev <= 0 {
		return fmt.Errorf("indicator: bb stddev multiplier must be > 0, got %v", c.BBStdDev)
	}
	if c.ADXPeriod < 0 || c.TrendEMAPeriod < 0 {
		return fmt.Errorf("indicator: adx/trend ema periods must be >= 0")
	}
	return nil
}

// MinCandles is the shortest window for which RSI and BB are both defined.
func (c Config) MinCandles() int {
	need := c.RSIPeriod + 1
	if c.BBPeriod > need {
		need = c.BBPeriod
	}
	return need
}

// Warmup is the window length needed for every enabled indicator,
// including the optional ones.
func (c Config) Warmup() int {
	need := c.MinCandles()
	if c.ADXPeriod > 0 && 2*c.ADXPeriod > need {
		need = 2 * c.ADXPeriod
	}
	if c.TrendEMAPeriod > need {
		need = c.TrendEMAPeriod
	}
	return need
}

// Engine computes the indicator snapshot for the last candle of a window.
// It holds no state between calls.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and returns an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Compute feeds the ascending candle window through fresh indicator instances
// and returns the values at the last candle.
//
// Returns *InsufficientDataError when RSI or BB cannot be computed. ADX and the
// trend EMA are optional and reported as not ready instead; an unready trend
// EMA takes the last close so trend comparisons stay defined.
func (e *Engine) Compute(candles []model.Candle) (model.Indicators, error) {
	if need := e.cfg.MinCandles(); len(candles) < need {
		return model.Indicators{}, &InsufficientDataError{Need: need, Have: len(candles)}
	}

	rsi := NewRSI(e.cfg.RSIPeriod)
	bb := NewBollinger(e.cfg.BBPeriod, e.cfg.BBStdDev)
	inds := []Indicator{rsi, bb}

	var adx *ADX
	if e.cfg.ADXPeriod > 0 {
		adx = NewADX(e.cfg.ADXPeriod)
		inds = append(inds, adx)
	}
	var ema *EMA
	if e.cfg.TrendEMAPeriod > 0 {
		ema = NewEMA(e.cfg.TrendEMAPeriod)
		inds = append(inds, ema)
	}

	for _, c := range candles {
		for _, ind := range inds {
			ind.Update(c)
		}
	}

	var out model.Indicators
	out.RSI = rsi.Value()
	out.BBLower, out.BBMiddle, out.BBUpper = bb.Bands()

	if adx != nil && adx.Ready() {
		out.ADX = adx.Value()
		out.ADXReady = true
	}

	last := candles[len(candles)-1].Close
	out.TrendEMA = last
	if ema != nil && ema.Ready() {
		out.TrendEMA = ema.Value()
		out.TrendEMAReady = true
	}
	return out, nil
}
