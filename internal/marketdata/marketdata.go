// Package marketdata holds the candle-source plumbing shared by the exchange
// adapters: error classification, timeframe parsing and window normalization.
package marketdata

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"signalbot/internal/model"
)

// ErrDataFetch marks upstream failures: unreachable source, bad status,
// malformed payload. Runs abort on it without touching state.
var ErrDataFetch = errors.New("market data unavailable")

// Fetchf wraps ErrDataFetch with context.
func Fetchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataFetch, fmt.Sprintf(format, args...))
}

// ParseTimeframe converts "1m", "15m", "4h", "1d", "1w" into a duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	tf = strings.TrimSpace(strings.ToLower(tf))
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	var unit time.Duration
	switch tf[len(tf)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	return time.Duration(n) * unit, nil
}

// Normalize sorts candles ascending by TS, keeps the last occurrence of a
// duplicated timestamp and trims the window to the newest count candles
// (count <= 0 keeps all). The input slice is not modified.
func Normalize(candles []model.Candle, count int) []model.Candle {
	out := make([]model.Candle, len(candles))
	copy(out, candles)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })

	dedup := out[:0]
	for _, c := range out {
		if n := len(dedup); n > 0 && dedup[n-1].TS.Equal(c.TS) {
			dedup[n-1] = c
			continue
		}
		dedup = append(dedup, c)
	}

	if count > 0 && len(dedup) > count {
		dedup = dedup[len(dedup)-count:]
	}
	return dedup
}

// Validate rejects candles with non-finite or non-positive prices.
func Validate(candles []model.Candle) error {
	for i, c := range candles {
		for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return Fetchf("candle %d at %s has invalid price %v", i, c.TS.Format(time.RFC3339), v)
			}
		}
	}
	return nil
}
