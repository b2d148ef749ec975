package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"signalbot/config"
	"signalbot/internal/logger"
	"signalbot/internal/marketdata/kraken"
	"signalbot/internal/metrics"
	"signalbot/internal/model"
	"signalbot/internal/store"
	redisstore "signalbot/internal/store/redis"
	"signalbot/internal/trace"
)

const serviceName = "signalbot"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app carries what every subcommand shares once the root pre-run is done.
type app struct {
	cfg  *config.Config
	prom *metrics.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var envFile string

	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Mean-reversion signal bot for Kraken spot pairs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is normal in containers.
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				return fmt.Errorf("load %s: %w", envFile, err)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			logger.Init(serviceName, cfg.SlogLevel())

			if err := trace.Init(trace.Config{
				Enabled: cfg.TracingEnabled,
				Service: serviceName,
				Version: version,
			}); err != nil {
				slog.Warn("tracing disabled", slog.Any("error", err))
			}
			a.prom = metrics.New()
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	cmd.AddCommand(
		newRunCmd(a),
		newStateCmd(a),
		newIndicatorsCmd(a),
	)
	return cmd
}

// shutdown flushes spans and pushes metrics. Both are best-effort; every
// subcommand defers it so aborted runs are reported too.
func (a *app) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := trace.Shutdown(ctx); err != nil {
		slog.Warn("trace shutdown failed", slog.Any("error", err))
	}
	if a.cfg == nil {
		return
	}
	grouping := map[string]string{"symbol": a.cfg.Symbol}
	if err := a.prom.Push(ctx, a.cfg.PushgatewayURL, serviceName, grouping); err != nil {
		slog.Warn("metrics push failed", slog.Any("error", err))
	}
}

func (a *app) source() (model.CandleSource, error) {
	return kraken.NewSource(kraken.Options{
		Kind:    a.cfg.DataSource,
		RESTURL: a.cfg.KrakenRESTURL,
		WSURL:   a.cfg.KrakenWSURL,
	})
}

// openStore opens the configured position store and reports redis circuit
// breaker transitions to the metrics registry.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.OptionsFrom(a.cfg))
	if err != nil {
		return nil, err
	}
	if rs, ok := st.(*redisstore.PositionStore); ok {
		rs.Breaker().OnStateChange = func(from, to redisstore.State) {
			a.prom.SetBreakerState(int(to))
			slog.Warn("store circuit breaker",
				slog.String("component", "store"),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		}
	}
	return st, nil
}
