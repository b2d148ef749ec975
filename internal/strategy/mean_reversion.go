package strategy

import (
	"fmt"
	"log/slog"

	"signalbot/internal/model"
	"signalbot/internal/portfolio"
)

// Params configures the mean-reversion rules. Tolerances and percentages are
// fractions (0.005 = 0.5%).
type Params struct {
	RSILow             float64 `yaml:"rsi_low"`
	RSIHigh            float64 `yaml:"rsi_high"`
	LongBandTolerance  float64 `yaml:"long_band_tolerance"`
	ShortBandTolerance float64 `yaml:"short_band_tolerance"`
	StopLossPct        float64 `yaml:"stop_loss_pct"`

	// ADXFilter blocks entries while ADX is above ADXThreshold, and while ADX
	// is not yet warmed up.
	ADXFilter    bool    `yaml:"adx_filter"`
	ADXThreshold float64 `yaml:"adx_threshold"`

	// TrendFilter only takes longs above the trend EMA and shorts below it.
	TrendFilter bool `yaml:"trend_filter"`
}

// DefaultParams returns RSI 35/65, 0.5% band tolerance, 1.5% stop, ADX 32.
func DefaultParams() Params {
	return Params{
		RSILow:             35,
		RSIHigh:            65,
		LongBandTolerance:  0.005,
		ShortBandTolerance: 0.005,
		StopLossPct:        0.015,
		ADXThreshold:       32,
	}
}

// Validate checks ranges. Overlapping RSI thresholds are allowed; the long
// setup is evaluated first.
func (p Params) Validate() error {
	if p.RSILow < 0 || p.RSILow > 100 || p.RSIHigh < 0 || p.RSIHigh > 100 {
		return fmt.Errorf("strategy: rsi thresholds must be within 0..100 (low=%v high=%v)", p.RSILow, p.RSIHigh)
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 1 {
		return fmt.Errorf("strategy: stop loss pct must be in (0,1), got %v", p.StopLossPct)
	}
	if p.LongBandTolerance < 0 || p.LongBandTolerance >= 1 || p.ShortBandTolerance < 0 || p.ShortBandTolerance >= 1 {
		return fmt.Errorf("strategy: band tolerances must be in [0,1)")
	}
	if p.ADXFilter && p.ADXThreshold <= 0 {
		return fmt.Errorf("strategy: adx threshold must be > 0 when the adx filter is on")
	}
	return nil
}

// MeanReversion buys oversold closes at the lower Bollinger band, sells
// overbought closes at the upper band, and exits at the middle band or on the
// stop.
type MeanReversion struct {
	p   Params
	log *slog.Logger
}

// NewMeanReversion validates p and returns the strategy.
func NewMeanReversion(p Params) (*MeanReversion, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &MeanReversion{
		p:   p,
		log: slog.Default().With(slog.String("component", "strategy")),
	}, nil
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

// Params returns the configured parameters.
func (s *MeanReversion) Params() Params { return s.p }

// Decide implements Strategy.
func (s *MeanReversion) Decide(ind model.Indicators, price float64, st portfolio.State) model.Decision {
	if st.Open() {
		return s.exit(ind, price, st)
	}
	return s.entry(ind, price)
}

func (s *MeanReversion) entry(ind model.Indicators, price float64) model.Decision {
	if s.p.ADXFilter {
		if !ind.ADXReady {
			return s.reject("ADX not warmed up, entries blocked", price, ind)
		}
		if ind.ADX > s.p.ADXThreshold {
			return s.reject(fmt.Sprintf("ADX %.2f above %.2f, market trending, no mean-reversion entry",
				ind.ADX, s.p.ADXThreshold), price, ind)
		}
	}

	longSetup := ind.RSI < s.p.RSILow && price <= ind.BBLower*(1+s.p.LongBandTolerance)
	if longSetup {
		if s.p.TrendFilter && !(price > ind.TrendEMA) {
			return s.reject(fmt.Sprintf("long setup rejected: close %.2f not above trend EMA %.2f",
				price, ind.TrendEMA), price, ind)
		}
		return s.open(model.DirectionUp, fmt.Sprintf("RSI %.2f below %.2f and close %.2f at lower band %.2f",
			ind.RSI, s.p.RSILow, price, ind.BBLower), ind, price)
	}

	shortSetup := ind.RSI > s.p.RSIHigh && price >= ind.BBUpper*(1-s.p.ShortBandTolerance)
	if shortSetup {
		if s.p.TrendFilter && !(price < ind.TrendEMA) {
			return s.reject(fmt.Sprintf("short setup rejected: close %.2f not below trend EMA %.2f",
				price, ind.TrendEMA), price, ind)
		}
		return s.open(model.DirectionDown, fmt.Sprintf("RSI %.2f above %.2f and close %.2f at upper band %.2f",
			ind.RSI, s.p.RSIHigh, price, ind.BBUpper), ind, price)
	}

	return none(fmt.Sprintf("no setup: RSI %.2f, close %.2f inside bands %.2f..%.2f",
		ind.RSI, price, ind.BBLower, ind.BBUpper), price, ind)
}

func (s *MeanReversion) open(dir model.Direction, reason string, ind model.Indicators, price float64) model.Decision {
	sig := model.SignalUp
	if dir == model.DirectionDown {
		sig = model.SignalDown
	}
	return model.Decision{
		Action:      model.ActionEntry,
		Direction:   dir,
		SignalType:  sig,
		Reason:      reason,
		Price:       price,
		StopLevel:   portfolio.StopLevel(dir, price, s.p.StopLossPct),
		TargetLevel: ind.BBMiddle,
		Outcome:     model.OutcomePending,
		RSI:         ind.RSI,
	}
}

func (s *MeanReversion) exit(ind model.Indicators, price float64, st portfolio.State) model.Decision {
	var sig model.SignalType
	var reason string

	switch {
	case portfolio.StopHit(st.Direction, st.EntryPrice, price, s.p.StopLossPct):
		sig = model.SignalStopLoss
		reason = fmt.Sprintf("stop loss: close %.2f breached %.2f (entry %.2f)",
			price, portfolio.StopLevel(st.Direction, st.EntryPrice, s.p.StopLossPct), st.EntryPrice)
	case portfolio.TargetHit(st.Direction, price, ind.BBMiddle):
		sig = model.SignalTakeProfit
		reason = fmt.Sprintf("take profit: close %.2f reached middle band %.2f", price, ind.BBMiddle)
	default:
		return none(fmt.Sprintf("holding %s from %.2f: close %.2f, target %.2f",
			st.Direction, st.EntryPrice, price, ind.BBMiddle), price, ind)
	}

	pct := portfolio.ProfitPct(st.Direction, st.EntryPrice, price)
	return model.Decision{
		Action:     model.ActionExit,
		Direction:  st.Direction,
		SignalType: sig,
		Reason:     reason,
		Price:      price,
		Outcome:    portfolio.OutcomeFor(pct),
		ProfitPct:  pct,
		RSI:        ind.RSI,
	}
}

func (s *MeanReversion) reject(reason string, price float64, ind model.Indicators) model.Decision {
	s.log.Info("entry rejected", slog.String("reason", reason))
	return none(reason, price, ind)
}
