package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/cli/formatter"
	"github.com/alexanderramin/pistemind/internal/contract"
	"github.com/alexanderramin/pistemind/internal/service"
)

func newStatsCmd(app *App) *cobra.Command {
	var userID string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show training analytics, overall or for one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if userID != "" {
				perf, err := app.Sessions.UserPerformance(cmd.Context(), userID)
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd, contract.FromUserPerformance(perf))
				}
				_, err = fmt.Fprintln(out, formatter.FormatUserPerformance(perf))
				return err
			}

			stats, err := app.Sessions.SystemAnalytics(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, contract.FromSystemAnalytics(stats))
			}
			_, err = fmt.Fprintln(out, formatter.FormatSystemAnalytics(stats))
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Show performance for this user")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func newCleanupCmd(app *App) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Abandon sessions idle for longer than --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive, got %s", olderThan)
			}
			n, err := app.Sessions.CleanupStale(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Abandoned %d stale session(s)\n", n)
			return err
		},
	}

	staleAfter := app.Config.StaleAfter
	if staleAfter <= 0 {
		staleAfter = service.DefaultStaleAfter
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", staleAfter, "Idle time after which a session is stale")
	return cmd
}
