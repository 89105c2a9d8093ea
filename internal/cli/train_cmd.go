package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/cli/formatter"
	"github.com/alexanderramin/pistemind/internal/contract"
	"github.com/alexanderramin/pistemind/internal/domain"
	"github.com/alexanderramin/pistemind/internal/service"
)

const interruptedReason = "User interrupted"

type trainOptions struct {
	userID  string
	resume  string
	edit    bool
	export  bool
	jsonOut bool
}

func newTrainCmd(app *App) *cobra.Command {
	var opts trainOptions

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Run one training session: scenario, choice, explanation, feedback",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ask asker = lineAsker{in: app.input(), out: cmd.ErrOrStderr()}
			if app.interactive() && !opts.jsonOut {
				ask = formAsker{}
			}
			return runTraining(cmd.Context(), app, ask, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.userID, "user", "", "User ID to attribute the session to")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "Resume an existing session by ID")
	cmd.Flags().BoolVar(&opts.edit, "edit", false, "Polish generated text with an editing pass before display")
	cmd.Flags().BoolVar(&opts.export, "export", false, "Write the finished session to the export directory")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the finished session as JSON")

	return cmd
}

// runTraining drives a session from wherever it stands to completion.
// An aborted prompt abandons the session.
func runTraining(ctx context.Context, app *App, ask asker, out, errOut io.Writer, opts trainOptions) error {
	var userID *string
	if opts.userID != "" {
		userID = &opts.userID
	}
	sess, err := app.Sessions.GetOrCreate(ctx, opts.resume, service.CreateSessionRequest{
		Interface: domain.InterfaceCLI,
		UserID:    userID,
	})
	if err != nil {
		return err
	}
	if opts.resume != "" && sess.ID != opts.resume {
		fmt.Fprintln(errOut, formatter.StyleYellow.Render("Session "+opts.resume+" not found, started "+sess.ID))
	}

	progress := errOut
	if opts.jsonOut {
		progress = io.Discard
	}

	for !sess.State.IsTerminal() {
		id := sess.ID
		switch sess.State {
		case domain.StateCreated:
			stop := formatter.StartSpinner(progress, "Generating scenario...")
			sess, err = app.Sessions.GenerateScenario(ctx, sess.ID)
			stop()

		case domain.StateScenarioGenerated:
			if !opts.jsonOut {
				if err := showChallenge(ctx, app, out, sess, opts.edit); err != nil {
					return err
				}
			}
			var choice domain.Choice
			choice, err = ask.Choice(ctx, *sess.Choices)
			if err == nil {
				sess, err = app.Sessions.RecordChoice(ctx, sess.ID, choice)
			}

		case domain.StateOptionSelected:
			var text string
			text, err = ask.Explanation(ctx)
			if err == nil {
				sess, err = app.Sessions.RecordExplanation(ctx, sess.ID, text)
			}

		case domain.StateExplanationProvided:
			stop := formatter.StartSpinner(progress, "Evaluating your answer...")
			sess, err = app.Sessions.GenerateFeedback(ctx, sess.ID)
			stop()

		case domain.StateFeedbackGenerated:
			if !opts.jsonOut {
				if err := showFeedback(ctx, app, out, sess, opts.edit); err != nil {
					return err
				}
			}
			sess, err = app.Sessions.Complete(ctx, sess.ID)

		default:
			return fmt.Errorf("session %s: unexpected state %s", sess.ID, sess.State)
		}

		if err != nil && (errors.Is(err, errAborted) || ctx.Err() != nil) {
			return abandonInterrupted(ctx, app, errOut, id)
		}
		if err != nil {
			return err
		}
	}

	if opts.export && sess.State == domain.StateCompleted {
		base, err := service.Export(app.Config.ExportDir, sess)
		if err != nil {
			return fmt.Errorf("exporting session: %w", err)
		}
		fmt.Fprintln(errOut, formatter.Dim("Exported to "+base+"_*.json"))
	}

	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(contract.FromSession(sess))
	}
	fmt.Fprintf(out, "\nSession %s %s\n", formatter.TruncID(sess.ID), formatter.StatePill(sess.State))
	return nil
}

func abandonInterrupted(ctx context.Context, app *App, errOut io.Writer, id string) error {
	if _, err := app.Sessions.Abandon(context.WithoutCancel(ctx), id, interruptedReason); err != nil {
		return fmt.Errorf("abandoning interrupted session: %w", err)
	}
	fmt.Fprintln(errOut, formatter.Dim("Session "+id+" abandoned."))
	return errAborted
}

func showChallenge(ctx context.Context, app *App, out io.Writer, sess *domain.TrainingSession, edit bool) error {
	challenge := domain.Challenge{Scenario: *sess.Scenario, Choices: *sess.Choices}
	if edit && app.Presenter != nil {
		edited, err := app.Presenter.Challenge(ctx, sess)
		if err != nil {
			app.logger().Warn("editing pass failed, showing original", "session_id", sess.ID, "error", err)
		} else {
			challenge = edited
		}
	}
	_, err := fmt.Fprintln(out, formatter.FormatChallenge(challenge))
	return err
}

func showFeedback(ctx context.Context, app *App, out io.Writer, sess *domain.TrainingSession, edit bool) error {
	fb := *sess.Feedback
	if edit && app.Presenter != nil {
		edited, err := app.Presenter.Feedback(ctx, sess)
		if err != nil {
			app.logger().Warn("editing pass failed, showing original", "session_id", sess.ID, "error", err)
		} else {
			fb = edited
		}
	}
	_, err := fmt.Fprintln(out, formatter.FormatFeedback(fb, *sess.Answer, sess.Choices.Recommended()))
	return err
}
