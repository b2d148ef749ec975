package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"signalbot/internal/indicator"
	"signalbot/internal/notification"
	"signalbot/internal/runner"
	"signalbot/internal/strategy"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one decision cycle: fetch, decide, record and notify",
		Long: "Run one decision cycle. Exits 0 when a decision was made (including\n" +
			"no action) and 1 when the run aborted before deciding.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r, closeFn, err := a.buildRunner(ctx)
			if err != nil {
				a.prom.RunFinished(true, time.Now())
				return err
			}
			defer closeFn()

			rep, err := r.Run(ctx)
			if err != nil {
				return err
			}
			slog.Info("run complete",
				slog.String("component", "runner"),
				slog.String("action", string(rep.Decision.Action)),
				slog.String("state_before", rep.State.String()),
				slog.Float64("close", rep.Price),
				slog.Bool("persisted", rep.Persisted),
				slog.Bool("notified", rep.Notified),
				slog.Int("delivery_failures", len(rep.Failures)),
			)
			return nil
		},
	}
}

// buildRunner wires the collaborators. The close func releases the store.
func (a *app) buildRunner(ctx context.Context) (*runner.Runner, func(), error) {
	cfg := a.cfg
	r := &runner.Runner{
		Symbol:     cfg.Symbol,
		Timeframe:  cfg.Timeframe,
		Count:      cfg.CandleCount,
		Collection: cfg.Collection,
		LinkURL:    cfg.SiteURL,
		Metrics:    a.prom,
	}
	noop := func() {}

	var err error
	if r.Engine, err = indicator.NewEngine(cfg.IndicatorConfig()); err != nil {
		return r, noop, err
	}
	if r.Strategy, err = strategy.NewMeanReversion(cfg.StrategyParams()); err != nil {
		return r, noop, err
	}
	if r.Source, err = a.source(); err != nil {
		return r, noop, err
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return r, noop, err
	}
	r.Store = st

	r.Notifier = notification.New(notification.Options{
		TelegramToken:  cfg.TelegramToken,
		TelegramChatID: cfg.TelegramChatID,
		WebhookURL:     cfg.WebhookURL,
	})

	slog.Info("signalbot starting",
		slog.String("version", version),
		slog.String("symbol", cfg.Symbol),
		slog.String("timeframe", cfg.Timeframe),
		slog.Int("candles", cfg.CandleCount),
		slog.String("source", cfg.DataSource),
		slog.String("strategy", r.Strategy.Name()),
		slog.Any("channels", notification.DescribeChannels(r.Notifier)),
	)

	return r, func() {
		if err := st.Close(); err != nil {
			slog.Warn("store close failed", slog.Any("error", err))
		}
	}, nil
}
