// Command signalbot runs one mean-reversion decision cycle per invocation.
// Schedule it (cron, systemd timer, k8s CronJob) at the candle timeframe.
package main

import (
	"log/slog"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("signalbot failed", slog.Any("error", err))
		os.Exit(1)
	}
}
