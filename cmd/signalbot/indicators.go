package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"signalbot/internal/indicator"
	"signalbot/internal/model"
)

func newIndicatorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "indicators",
		Short: "Fetch candles and print the indicator snapshot without deciding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.shutdown()
			ctx := cmd.Context()

			eng, err := indicator.NewEngine(a.cfg.IndicatorConfig())
			if err != nil {
				return err
			}
			src, err := a.source()
			if err != nil {
				return err
			}
			candles, err := src.FetchCandles(ctx, a.cfg.Symbol, a.cfg.Timeframe, a.cfg.CandleCount)
			if err != nil {
				return err
			}
			ind, err := eng.Compute(candles)
			if err != nil {
				return err
			}
			last := candles[len(candles)-1]
			a.prom.Snapshot(len(candles), last.Close, ind.RSI)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Symbol     string           `json:"symbol"`
				Timeframe  string           `json:"timeframe"`
				Candles    int              `json:"candles"`
				LastTS     string           `json:"last_ts"`
				Close      float64          `json:"close"`
				Indicators model.Indicators `json:"indicators"`
			}{a.cfg.Symbol, a.cfg.Timeframe, len(candles), last.TS.Format(time.RFC3339), last.Close, ind})
		},
	}
}
