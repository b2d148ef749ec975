package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"signalbot/internal/portfolio"
)

func newStateCmd(a *app) *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print the position state resolved from the latest record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.shutdown()
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			latest, err := st.Latest(ctx, a.cfg.Collection)
			if err != nil {
				return err
			}
			state, err := portfolio.Resolve(latest)
			if err != nil {
				return err
			}
			a.prom.SetPositionOpen(state.Open())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %s\n", a.cfg.Symbol, a.cfg.Collection, state)
			if latest != nil {
				fmt.Fprintf(out, "last record: %s %s at %s (%s)\n",
					latest.Action, latest.Direction, latest.Time().Format("2006-01-02 15:04 UTC"), latest.Reason)
			}

			if history <= 0 {
				return nil
			}
			recs, err := st.Recent(ctx, a.cfg.Collection, history)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "\nTIME\tACTION\tDIR\tPRICE\tOUTCOME\tPROFIT %")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%.2f\n",
					r.Time().Format("2006-01-02 15:04"), r.Action, r.Direction, r.EntryPrice, r.Outcome, r.ProfitPct)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			sum := portfolio.Summarize(recs)
			fmt.Fprintf(out, "\n%d closed trades, %d wins, %d losses, win rate %.2f%%, total %+.2f%%\n",
				sum.Trades, sum.Wins, sum.Losses, sum.WinRatePct, sum.TotalPct)
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "also list the last N records and their P&L summary")
	return cmd
}
