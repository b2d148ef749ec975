// Package metrics exposes Prometheus metrics for a decision run. A run is a
// short-lived batch job, so metrics live in a private registry and are pushed
// to a Pushgateway at the end of the run instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for the signal bot.
// All methods are safe on a nil *Metrics, which records nothing.
type Metrics struct {
	reg *prometheus.Registry

	RunsTotal        *prometheus.CounterVec   // labels: result=ok|aborted
	DecisionsTotal   *prometheus.CounterVec   // labels: action, signal
	PhaseDuration    *prometheus.HistogramVec // labels: phase
	DeliveryFailures *prometheus.CounterVec   // labels: collaborator=store|notifier

	CandlesFetched prometheus.Gauge
	LastClose      prometheus.Gauge
	LastRSI        prometheus.Gauge
	PositionOpen   prometheus.Gauge // 1 while a position is open after the run
	LastRunUnix    prometheus.Gauge

	// Store circuit breaker (redis backend only)
	StoreBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
}

// New creates the metrics and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_runs_total",
			Help: "Decision runs by result",
		}, []string{"result"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_decisions_total",
			Help: "Decisions by action and signal type",
		}, []string{"action", "signal"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "signalbot_phase_duration_seconds",
			Help:    "Latency of each run phase",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"phase"}),
		DeliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalbot_delivery_failures_total",
			Help: "Failed side effects (record append, notification)",
		}, []string{"collaborator"}),

		CandlesFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_candles_fetched",
			Help: "Candles in the last fetched window",
		}),
		LastClose: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_last_close",
			Help: "Close of the last candle evaluated",
		}),
		LastRSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_last_rsi",
			Help: "RSI at the last candle evaluated",
		}),
		PositionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_position_open",
			Help: "1 if a position is open after the run, else 0",
		}),
		LastRunUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		StoreBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalbot_store_circuit_breaker_state",
			Help: "Store circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
	}

	m.reg.MustRegister(
		m.RunsTotal,
		m.DecisionsTotal,
		m.PhaseDuration,
		m.DeliveryFailures,
		m.CandlesFetched,
		m.LastClose,
		m.LastRSI,
		m.PositionOpen,
		m.LastRunUnix,
		m.StoreBreakerState,
	)
	return m
}

// Registry returns the registry holding the run metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObservePhase records the time since start for phase.
func (m *Metrics) ObservePhase(phase string, start time.Time) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// RunFinished counts a run and stamps its end time.
func (m *Metrics) RunFinished(aborted bool, now time.Time) {
	if m == nil {
		return
	}
	result := "ok"
	if aborted {
		result = "aborted"
	}
	m.RunsTotal.WithLabelValues(result).Inc()
	m.LastRunUnix.Set(float64(now.Unix()))
}

// Decision counts a decision.
func (m *Metrics) Decision(action, signal string) {
	if m == nil {
		return
	}
	if signal == "" {
		signal = "none"
	}
	m.DecisionsTotal.WithLabelValues(action, signal).Inc()
}

// DeliveryFailed counts a failed side effect.
func (m *Metrics) DeliveryFailed(collaborator string) {
	if m == nil {
		return
	}
	m.DeliveryFailures.WithLabelValues(collaborator).Inc()
}

// Snapshot records the evaluated window.
func (m *Metrics) Snapshot(candles int, close, rsi float64) {
	if m == nil {
		return
	}
	m.CandlesFetched.Set(float64(candles))
	m.LastClose.Set(close)
	m.LastRSI.Set(rsi)
}

// SetPositionOpen records whether a position is open after the run.
func (m *Metrics) SetPositionOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.PositionOpen.Set(1)
	} else {
		m.PositionOpen.Set(0)
	}
}

// SetBreakerState records the store circuit breaker state.
func (m *Metrics) SetBreakerState(state int) {
	if m == nil {
		return
	}
	m.StoreBreakerState.Set(float64(state))
}

// Push sends the registry to a Pushgateway under job, grouped by the given
// label pairs (e.g. symbol).
func (m *Metrics) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	if m == nil || url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.reg)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("metrics push: %w", err)
	}
	return nil
}
