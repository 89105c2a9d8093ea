package cli

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/cli/formatter"
	"github.com/alexanderramin/pistemind/internal/events"
)

func newWatchCmd(app *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream session transitions from the message bus until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Bus == nil {
				return errors.New("no message bus configured (set PISTEMIND_REDIS_ADDR)")
			}
			out := cmd.OutOrStdout()
			var mu sync.Mutex
			err := app.Bus.Subscribe(cmd.Context(), func(t events.Transition) {
				mu.Lock()
				defer mu.Unlock()
				if jsonOut {
					_ = printJSON(cmd, t)
					return
				}
				fmt.Fprintln(out, formatTransition(t))
			})
			if err != nil {
				return err
			}
			<-cmd.Context().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print each transition as JSON")
	return cmd
}

func formatTransition(t events.Transition) string {
	from := formatter.Dim("new")
	if t.From != "" {
		from = formatter.StatePill(t.From)
	}
	line := fmt.Sprintf("%s  %s  %s → %s  %s",
		formatter.Dim(t.At.Local().Format("15:04:05")),
		formatter.TruncID(t.SessionID),
		from,
		formatter.StatePill(t.To),
		formatter.Dim(fmt.Sprintf("%s v%d", t.Op, t.Version)),
	)
	if t.Error != "" {
		line += "  " + formatter.StyleRed.Render(t.Error)
	}
	return line
}
