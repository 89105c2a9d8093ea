package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/config"
	"github.com/alexanderramin/pistemind/internal/events"
	"github.com/alexanderramin/pistemind/internal/logging"
	"github.com/alexanderramin/pistemind/internal/service"
	"github.com/alexanderramin/pistemind/internal/tactics"
)

// App holds the dependencies shared by every command.
type App struct {
	Sessions  service.SessionService
	Presenter service.Presenter
	Sampler   *tactics.Sampler
	// Bus is nil when no broker is configured.
	Bus    events.Subscriber
	Config config.Config
	Log    *logging.Logger

	In            io.Reader
	IsInteractive func() bool
	Now           func() time.Time
}

func (a *App) input() io.Reader {
	if a.In == nil {
		return os.Stdin
	}
	return a.In
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func (a *App) logger() *logging.Logger {
	if a.Log == nil {
		return logging.Nop()
	}
	return a.Log
}

// NewRootCmd creates the top-level "pistemind" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "pistemind",
		Short:         "Tactical decision training for epee fencers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTrainCmd(app),
		newContextCmd(app),
		newSessionCmd(app),
		newStatsCmd(app),
		newCleanupCmd(app),
		newServeCmd(app),
		newWatchCmd(app),
		newBrowseCmd(app),
	)
	return root
}
