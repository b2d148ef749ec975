// Package runner executes one decision cycle: fetch candles, compute
// indicators, resolve the position state, decide, then record and announce
// any transition.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"signalbot/internal/indicator"
	"signalbot/internal/logger"
	"signalbot/internal/metrics"
	"signalbot/internal/model"
	"signalbot/internal/notification"
	"signalbot/internal/portfolio"
	"signalbot/internal/strategy"
	"signalbot/internal/trace"
)

// Phase names, shared by spans, metrics and log lines.
const (
	PhaseFetch      = "fetch"
	PhaseIndicators = "indicators"
	PhaseResolve    = "resolve"
	PhaseDecide     = "decide"
	PhasePersist    = "persist"
	PhaseNotify     = "notify"
)

// DeliveryError is a failed side effect after the decision was made. It is
// logged and counted but never aborts the run.
type DeliveryError struct {
	Collaborator string // "store" or "notifier"
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Collaborator, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Report summarizes a run.
type Report struct {
	Decision   model.Decision
	Indicators model.Indicators
	State      portfolio.State // state before the decision
	Price      float64
	Candles    int
	Persisted  bool
	Notified   bool
	Failures   []*DeliveryError
}

// Runner wires the collaborators for one instrument. All fields except
// Metrics, Now and NewID are required.
type Runner struct {
	Source   model.CandleSource
	Store    model.PositionStore
	Notifier notification.Notifier
	Strategy strategy.Strategy
	Engine   *indicator.Engine

	Symbol     string
	Timeframe  string
	Count      int
	Collection string
	LinkURL    string

	Metrics *metrics.Metrics
	Now     func() time.Time
	NewID   func() string
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func (r *Runner) validate() error {
	var errs []error
	if r.Source == nil {
		errs = append(errs, errors.New("candle source"))
	}
	if r.Store == nil {
		errs = append(errs, errors.New("position store"))
	}
	if r.Notifier == nil {
		errs = append(errs, errors.New("notifier"))
	}
	if r.Strategy == nil {
		errs = append(errs, errors.New("strategy"))
	}
	if r.Engine == nil {
		errs = append(errs, errors.New("indicator engine"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("runner: missing collaborators: %w", err)
	}
	return nil
}

// Run executes one cycle. An error is returned only when no decision could be
// made (fetch, insufficient data, store read, corrupt state); the report then
// carries a NONE decision. Persist and notify failures end up in
// Report.Failures.
func (r *Runner) Run(ctx context.Context) (rep Report, err error) {
	rep.Decision = model.Decision{Action: model.ActionNone}
	if err := r.validate(); err != nil {
		return rep, err
	}

	start := r.now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(r.Symbol, start))
	ctx, span := trace.StartSpan(ctx, "run",
		attribute.String("symbol", r.Symbol),
		attribute.String("timeframe", r.Timeframe),
	)
	log := slog.Default().With(slog.String("component", "runner"), slog.String("symbol", r.Symbol))

	defer func() {
		trace.End(span, err)
		r.Metrics.RunFinished(err != nil, r.now())
		if err != nil {
			rep.Decision.Reason = err.Error()
			log.Error("run aborted", append(logger.LogWithTrace(ctx), slog.Any("error", err))...)
		}
	}()

	// ---- Fetch ----
	var candles []model.Candle
	err = r.phase(ctx, PhaseFetch, func(ctx context.Context) error {
		var ferr error
		candles, ferr = r.Source.FetchCandles(ctx, r.Symbol, r.Timeframe, r.Count)
		return ferr
	})
	if err != nil {
		return rep, fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) == 0 {
		return rep, fmt.Errorf("fetch candles: %w", &indicator.InsufficientDataError{Need: r.Engine.Config().MinCandles()})
	}
	last := candles[len(candles)-1]
	rep.Candles = len(candles)
	rep.Price = last.Close
	log.Info("candles fetched", append(logger.LogWithTrace(ctx),
		slog.Int("count", len(candles)),
		slog.Time("last_ts", last.TS),
		slog.Float64("close", last.Close),
	)...)

	// ---- Indicators ----
	err = r.phase(ctx, PhaseIndicators, func(context.Context) error {
		var ierr error
		rep.Indicators, ierr = r.Engine.Compute(candles)
		return ierr
	})
	if err != nil {
		return rep, fmt.Errorf("compute indicators: %w", err)
	}
	ind := rep.Indicators
	r.Metrics.Snapshot(len(candles), last.Close, ind.RSI)
	log.Info("indicators computed", append(logger.LogWithTrace(ctx),
		slog.Float64("rsi", ind.RSI),
		slog.Float64("bb_lower", ind.BBLower),
		slog.Float64("bb_middle", ind.BBMiddle),
		slog.Float64("bb_upper", ind.BBUpper),
		slog.Float64("adx", ind.ADX),
		slog.Bool("adx_ready", ind.ADXReady),
	)...)

	// ---- Resolve ----
	err = r.phase(ctx, PhaseResolve, func(ctx context.Context) error {
		latest, lerr := r.Store.Latest(ctx, r.Collection)
		if lerr != nil {
			return fmt.Errorf("read latest record: %w", lerr)
		}
		rep.State, lerr = portfolio.Resolve(latest)
		return lerr
	})
	if err != nil {
		return rep, fmt.Errorf("resolve state: %w", err)
	}
	log.Info("state resolved", append(logger.LogWithTrace(ctx), slog.String("state", rep.State.String()))...)

	// ---- Decide ----
	_ = r.phase(ctx, PhaseDecide, func(context.Context) error {
		rep.Decision = r.Strategy.Decide(ind, last.Close, rep.State)
		rep.Decision.CandleTS = last.TS
		return nil
	})
	d := rep.Decision
	r.Metrics.Decision(string(d.Action), string(d.SignalType))
	log.Info("decision", append(logger.LogWithTrace(ctx),
		slog.String("strategy", r.Strategy.Name()),
		slog.String("action", string(d.Action)),
		slog.String("direction", string(d.Direction)),
		slog.String("signal", string(d.SignalType)),
		slog.String("reason", d.Reason),
	)...)

	if !d.IsTransition() {
		r.Metrics.SetPositionOpen(rep.State.Open())
		return rep, nil
	}

	// ---- Persist ----
	rec := d.Record(r.newID(), r.Symbol)
	perr := r.phase(ctx, PhasePersist, func(ctx context.Context) error {
		return r.Store.Append(ctx, r.Collection, rec)
	})
	if perr != nil {
		r.Metrics.SetPositionOpen(rep.State.Open())
		rep.Failures = append(rep.Failures, r.deliveryFailed(ctx, log, "store", perr))
	} else {
		r.Metrics.SetPositionOpen(d.Action == model.ActionEntry)
		rep.Persisted = true
		log.Info("record appended", append(logger.LogWithTrace(ctx),
			slog.String("id", rec.ID),
			slog.String("collection", r.Collection),
		)...)
	}

	// ---- Notify ----
	alert := notification.FormatDecision(d, r.Symbol, r.now(), r.LinkURL)
	if !rep.Persisted {
		alert.AppendNote("Not recorded: the position store rejected this signal, state is unchanged.")
	}
	nerr := r.phase(ctx, PhaseNotify, func(ctx context.Context) error {
		return r.Notifier.Send(ctx, alert)
	})
	if nerr != nil {
		rep.Failures = append(rep.Failures, r.deliveryFailed(ctx, log, "notifier", nerr))
	} else {
		rep.Notified = true
		log.Info("notification sent", append(logger.LogWithTrace(ctx), slog.String("title", alert.Title))...)
	}

	return rep, nil
}

// phase runs fn inside a span and records its latency.
func (r *Runner) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	ctx, span := trace.StartSpan(ctx, name)
	err := fn(ctx)
	trace.End(span, err)
	r.Metrics.ObservePhase(name, start)
	return err
}

func (r *Runner) deliveryFailed(ctx context.Context, log *slog.Logger, collaborator string, err error) *DeliveryError {
	derr := &DeliveryError{Collaborator: collaborator, Err: err}
	r.Metrics.DeliveryFailed(collaborator)
	log.Error("delivery failed", append(logger.LogWithTrace(ctx),
		slog.String("collaborator", collaborator),
		slog.Any("error", err),
	)...)
	return derr
}
