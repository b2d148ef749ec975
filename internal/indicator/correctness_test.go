package indicator

import (
	"math"
	"testing"

	"signalbot/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helper
// ────────────────────────────────────────────────────────────

func candle(close float64) model.Candle {
	return model.Candle{Open: close, High: close + 0.5, Low: close - 0.5, Close: close}
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// SMA Correctness
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// SMA after candle 3: (100+102+104)/3 = 102
	// SMA after candle 4: (102+104+103)/3 = 103
	// SMA after candle 5: (104+103+105)/3 = 104
	sma := NewSMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 103.0, 104.0}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		sma.Update(candle(p))
		if sma.Ready() != ready[i] {
			t.Errorf("candle %d: Ready()=%v, want %v", i, sma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMA(3)", sma.Value(), expected[i], 0.0001)
		}
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// multiplier = 2/(3+1) = 0.5
	// Candle 3: SMA seed = 306/3 = 102.0
	// Candle 4: 103*0.5 + 102.0*0.5 = 102.5
	// Candle 5: 105*0.5 + 102.5*0.5 = 103.75
	ema := NewEMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.5, 103.75}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		ema.Update(candle(p))
		if ema.Ready() != ready[i] {
			t.Errorf("candle %d: Ready()=%v, want %v", i, ema.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "EMA(3)", ema.Value(), expected[i], 0.0001)
		}
	}
}

func TestEMA_MoreResponsiveThanSMA(t *testing.T) {
	sma := NewSMA(10)
	ema := NewEMA(10)

	for i := 0; i < 20; i++ {
		c := candle(100)
		sma.Update(c)
		ema.Update(c)
	}

	c := candle(120)
	sma.Update(c)
	ema.Update(c)

	if ema.Value() <= sma.Value() {
		t.Errorf("EMA should react more than SMA to sudden price jump: EMA=%.4f, SMA=%.4f", ema.Value(), sma.Value())
	}
}

// ────────────────────────────────────────────────────────────
// SMMA Correctness (Wilder's Smoothing)
// ────────────────────────────────────────────────────────────

func TestSMMA_Correctness_Period3(t *testing.T) {
	// Candle 1-3: seed = 102.0
	// Candle 4: (102.0*2 + 103)/3 = 102.3333
	// Candle 5: (102.3333*2 + 105)/3 = 103.2222
	smma := NewSMMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.3333, 103.2222}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		smma.Update(candle(p))
		if smma.Ready() != ready[i] {
			t.Errorf("candle %d: Ready()=%v, want %v", i, smma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMMA(3)", smma.Value(), expected[i], 0.001)
		}
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness (Wilder's Method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Deltas over the first 6 prices: +0.34 -0.25 -0.48 +0.72 +0.50
	//   avgGain = 1.56/5 = 0.312, avgLoss = 0.73/5 = 0.146
	//   RSI = 100 - 100/(1+2.13699) = 68.112
	// Candle 7 (+0.27): avgGain 0.3036, avgLoss 0.1168 → 72.219
	// Candle 8 (+0.32): avgGain 0.30688, avgLoss 0.09344 → 76.658
	// Candle 9 (+0.42): avgGain 0.329504, avgLoss 0.074752 → 81.509
	prices := []float64{44.00, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}

	rsi := NewRSI(5)
	for i := 0; i <= 5; i++ {
		rsi.Update(candle(prices[i]))
	}
	if !rsi.Ready() {
		t.Fatal("expected RSI(5) ready after 6 candles")
	}
	assertClose(t, "RSI(5) candle 6", rsi.Value(), 68.112, 0.1)

	rsi.Update(candle(prices[6]))
	assertClose(t, "RSI(5) candle 7", rsi.Value(), 72.219, 0.1)

	rsi.Update(candle(prices[7]))
	assertClose(t, "RSI(5) candle 8", rsi.Value(), 76.658, 0.1)

	rsi.Update(candle(prices[8]))
	assertClose(t, "RSI(5) candle 9", rsi.Value(), 81.509, 0.2)
}

func TestRSI_NotReadyBeforePeriodPlusOne(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 5; i++ {
		rsi.Update(candle(100 + float64(i)))
	}
	if rsi.Ready() {
		t.Error("RSI(5) must not be ready after 5 candles")
	}
}

func TestRSI_AllUp_Is100(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(candle(100 + float64(i)))
	}
	assertClose(t, "RSI all up", rsi.Value(), 100.0, 0.001)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(candle(200 - float64(i)))
	}
	assertClose(t, "RSI all down", rsi.Value(), 0.0, 0.001)
}

func TestRSI_Flat_Is50(t *testing.T) {
	rsi := NewRSI(5)
	for i := 0; i < 10; i++ {
		rsi.Update(candle(100))
	}
	assertClose(t, "RSI flat", rsi.Value(), 50.0, 0.001)
}

// ────────────────────────────────────────────────────────────
// Bollinger Bands
// ────────────────────────────────────────────────────────────

func TestBollinger_Correctness_Period5(t *testing.T) {
	// closes 1..5: mean 3, population variance (4+1+0+1+4)/5 = 2, σ = 1.414214
	bb := NewBollinger(5, 2)
	for i := 1; i <= 5; i++ {
		bb.Update(candle(float64(i)))
	}
	if !bb.Ready() {
		t.Fatal("expected BB(5) ready after 5 candles")
	}
	lower, middle, upper := bb.Bands()
	assertClose(t, "BB middle", middle, 3.0, 0.0001)
	assertClose(t, "BB upper", upper, 3.0+2*math.Sqrt2, 0.0001)
	assertClose(t, "BB lower", lower, 3.0-2*math.Sqrt2, 0.0001)
}

func TestBollinger_RollsWindow(t *testing.T) {
	// After 6 candles the window is 2..6: mean 4, σ = sqrt(2)
	bb := NewBollinger(5, 1)
	for i := 1; i <= 6; i++ {
		bb.Update(candle(float64(i)))
	}
	lower, middle, upper := bb.Bands()
	assertClose(t, "BB middle", middle, 4.0, 0.0001)
	assertClose(t, "BB upper", upper, 4.0+math.Sqrt2, 0.0001)
	assertClose(t, "BB lower", lower, 4.0-math.Sqrt2, 0.0001)
}

func TestBollinger_FlatBandsCollapse(t *testing.T) {
	bb := NewBollinger(20, 2)
	for i := 0; i < 25; i++ {
		bb.Update(candle(64250.5))
	}
	lower, middle, upper := bb.Bands()
	assertClose(t, "BB lower", lower, 64250.5, 1e-9)
	assertClose(t, "BB middle", middle, 64250.5, 1e-9)
	assertClose(t, "BB upper", upper, 64250.5, 1e-9)
}

// ────────────────────────────────────────────────────────────
// ADX
// ────────────────────────────────────────────────────────────

func trendCandle(i int) model.Candle {
	base := 100 + float64(i)
	return model.Candle{Open: base, High: base + 2, Low: base, Close: base + 1}
}

func TestADX_StrongUptrend_Is100(t *testing.T) {
	// Every bar makes a higher high and a higher low: +DM only, DX = 100.
	adx := NewADX(3)
	for i := 0; i < 5; i++ {
		adx.Update(trendCandle(i))
	}
	if adx.Ready() {
		t.Fatal("ADX(3) must not be ready before 2N candles")
	}
	adx.Update(trendCandle(5))
	if !adx.Ready() {
		t.Fatal("ADX(3) should be ready after 6 candles")
	}
	assertClose(t, "ADX uptrend", adx.Value(), 100, 0.0001)
	if adx.plusDI <= adx.minusDI {
		t.Errorf("expected +DI > -DI, got %.2f <= %.2f", adx.plusDI, adx.minusDI)
	}
}

func TestADX_RangeBound_IsZero(t *testing.T) {
	adx := NewADX(3)
	for i := 0; i < 10; i++ {
		adx.Update(candle(100))
	}
	if !adx.Ready() {
		t.Fatal("expected ready")
	}
	assertClose(t, "ADX flat", adx.Value(), 0, 0.0001)
}

func TestADX_Warmup(t *testing.T) {
	if got := NewADX(14).Warmup(); got != 28 {
		t.Errorf("Warmup()=%d, want 28", got)
	}
}
