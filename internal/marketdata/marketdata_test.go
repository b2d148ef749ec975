package marketdata

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalbot/internal/model"
)

func ts(min int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
}

func TestNormalize(t *testing.T) {
	in := []model.Candle{
		{TS: ts(30), Close: 3},
		{TS: ts(0), Close: 1},
		{TS: ts(15), Close: 2},
		{TS: ts(30), Close: 3.5},
		{TS: ts(45), Close: 4},
	}
	out := Normalize(in, 0)
	require.Len(t, out, 4)
	assert.Equal(t, []float64{1, 2, 3.5, 4}, closes(out))
	assert.Equal(t, 3.0, in[0].Close, "input untouched")

	assert.Equal(t, []float64{3.5, 4}, closes(Normalize(in, 2)))
	assert.Empty(t, Normalize(nil, 10))
}

func closes(cs []model.Candle) []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

func TestValidate(t *testing.T) {
	ok := model.Candle{TS: ts(0), Open: 1, High: 2, Low: 0.5, Close: 1.5}
	assert.NoError(t, Validate([]model.Candle{ok}))

	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		c := ok
		c.Close = bad
		err := Validate([]model.Candle{ok, c})
		assert.True(t, errors.Is(err, ErrDataFetch), "close=%v", bad)
	}
}

func TestParseTimeframe(t *testing.T) {
	tests := map[string]time.Duration{
		"1m":  time.Minute,
		"15m": 15 * time.Minute,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
		"1H":  time.Hour,
	}
	for in, want := range tests {
		got, err := ParseTimeframe(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "m", "0m", "15x", "-5m", "abc"} {
		_, err := ParseTimeframe(bad)
		assert.Error(t, err, bad)
	}
}
