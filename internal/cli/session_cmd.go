package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/cli/formatter"
	"github.com/alexanderramin/pistemind/internal/contract"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/service"
)

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect and manage training sessions",
	}

	cmd.AddCommand(
		newSessionListCmd(app),
		newSessionShowCmd(app),
		newSessionEventsCmd(app),
		newSessionAbandonCmd(app),
		newSessionExportCmd(app),
	)
	return cmd
}

func newSessionListCmd(app *App) *cobra.Command {
	var userID string
	var state stateValue
	var limit, offset int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.SessionFilter{State: state.state}
			if userID != "" {
				filter.UserID = &userID
			}
			list, err := app.Sessions.List(cmd.Context(), filter, limit, offset)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, contract.FromSummaries(list))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSessionList(list, app.now()))
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Only sessions for this user")
	cmd.Flags().Var(&state, "state", "Only sessions in this state")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")

	return cmd
}

func newSessionShowCmd(app *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a session in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, contract.FromSession(sess))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSessionDetail(sess))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func newSessionEventsCmd(app *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "events ID",
		Short: "Show a session's audit log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evs, err := app.Sessions.Events(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd, contract.FromEvents(evs))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(evs))
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func newSessionAbandonCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "abandon ID",
		Short: "Abandon an unfinished session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Sessions.Abandon(cmd.Context(), args[0], reason)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Abandoned session %s (%s)\n", sess.ID, sess.ErrorMessage)
			return err
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded on the session")
	return cmd
}

func newSessionExportCmd(app *App) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a finished session's question, answer and feedback files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.Sessions.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if dir == "" {
				dir = app.Config.ExportDir
			}
			base, err := service.Export(dir, sess)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %s_{question,answer,feedback}.json\n", base)
			return err
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Output directory (defaults to the configured export dir)")
	return cmd
}
