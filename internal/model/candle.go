package model

import (
	"encoding/json"
	"time"
)

// Candle represents one OHLCV bar for the configured instrument and timeframe.
// A candle window is ordered by TS ascending with no duplicate timestamps.
type Candle struct {
	TS     time.Time `json:"ts"` // bar open time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// UnixMilli returns the bar open time as milliseconds since epoch,
// the timestamp unit used by position records.
func (c *Candle) UnixMilli() int64 {
	return c.TS.UnixMilli()
}

// JSON returns the JSON-encoded candle.
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// Indicators holds indicator values computed for the latest candle of a window.
// BBLower <= BBMiddle <= BBUpper always holds.
type Indicators struct {
	RSI      float64 `json:"rsi"`
	BBLower  float64 `json:"bb_lower"`
	BBMiddle float64 `json:"bb_middle"`
	BBUpper  float64 `json:"bb_upper"`

	ADX      float64 `json:"adx,omitempty"`
	ADXReady bool    `json:"adx_ready"`

	// TrendEMA falls back to the last close while the EMA is warming up.
	TrendEMA      float64 `json:"trend_ema,omitempty"`
	TrendEMAReady bool    `json:"trend_ema_ready"`
}
