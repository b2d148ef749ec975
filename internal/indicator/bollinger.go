package indicator

import (
	"math"

	"signalbot/internal/model"
)

// StdDev calculates the population standard deviation of closes over a
// rolling window. The window is kept in a circular buffer and the deviation is
// computed two-pass on read, which stays exact for large prices.
type StdDev struct {
	period int
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewStdDev creates a rolling standard deviation over period closes.
func NewStdDev(period int) *StdDev {
	return &StdDev{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *StdDev) Name() string { return "STDDEV" }

func (s *StdDev) Update(candle model.Candle) {
	if s.count >= s.period {
		s.sum -= s.buf[s.idx]
	}
	s.buf[s.idx] = candle.Close
	s.sum += candle.Close
	s.idx = (s.idx + 1) % s.period
	s.count++
}

func (s *StdDev) Value() float64 {
	if !s.Ready() {
		return 0
	}
	mean := s.sum / float64(s.period)
	var sq float64
	for _, v := range s.buf {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(s.period))
}

func (s *StdDev) Ready() bool { return s.count >= s.period }

// Bollinger calculates Bollinger Bands: middle = SMA(period),
// upper/lower = middle ± k·σ.
type Bollinger struct {
	k   float64
	sma *SMA
	sd  *StdDev
}

// NewBollinger creates Bollinger Bands with the given period and multiplier.
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{
		k:   k,
		sma: NewSMA(period),
		sd:  NewStdDev(period),
	}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(candle model.Candle) {
	b.sma.Update(candle)
	b.sd.Update(candle)
}

// Value returns the middle band.
func (b *Bollinger) Value() float64 { return b.sma.Value() }
func (b *Bollinger) Ready() bool    { return b.sma.Ready() }

// Bands returns lower, middle and upper bands.
func (b *Bollinger) Bands() (lower, middle, upper float64) {
	middle = b.sma.Value()
	width := b.k * b.sd.Value()
	return middle - width, middle, middle + width
}
