// Package kraken fetches OHLC candles from Kraken's public REST and
// WebSocket v2 APIs. Both sources return a normalized, ascending window.
package kraken

import (
	"fmt"
	"strings"
	"time"

	"signalbot/internal/marketdata"
	"signalbot/internal/model"
)

const (
	DefaultRESTURL = "https://api.kraken.com"
	DefaultWSURL   = "wss://ws.kraken.com/v2"

	// MaxCandles is the most Kraken returns for one OHLC request.
	MaxCandles = 720
)

// intervals lists the OHLC intervals Kraken accepts, in minutes.
var intervals = map[int]bool{1: true, 5: true, 15: true, 30: true, 60: true, 240: true, 1440: true, 10080: true, 21600: true}

// Interval maps a timeframe string to Kraken's interval in minutes.
func Interval(timeframe string) (int, error) {
	d, err := marketdata.ParseTimeframe(timeframe)
	if err != nil {
		return 0, err
	}
	m := int(d / time.Minute)
	if !intervals[m] {
		return 0, fmt.Errorf("kraken: unsupported timeframe %q", timeframe)
	}
	return m, nil
}

// RESTPair converts "BTC/USD" into the REST pair name "XBTUSD".
func RESTPair(symbol string) string {
	base, quote, ok := strings.Cut(strings.ToUpper(symbol), "/")
	if !ok {
		return strings.ToUpper(symbol)
	}
	if base == "BTC" {
		base = "XBT"
	}
	return base + quote
}

// Options configures NewSource.
type Options struct {
	Kind    string // "rest" (default) or "ws"
	RESTURL string
	WSURL   string
	Timeout time.Duration
}

// NewSource returns the candle source selected by opts.Kind.
func NewSource(opts Options) (model.CandleSource, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	switch strings.ToLower(opts.Kind) {
	case "", "rest":
		return NewRESTSource(opts.RESTURL, opts.Timeout), nil
	case "ws", "websocket":
		return NewWSSource(opts.WSURL, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("kraken: unknown data source %q (want rest or ws)", opts.Kind)
	}
}
