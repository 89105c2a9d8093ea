package cli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/pistemind/internal/api"
	"github.com/alexanderramin/pistemind/internal/events"
	"github.com/alexanderramin/pistemind/internal/service"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var sweepEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.Config.HTTPAddr
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", addr, err)
			}
			return runServer(cmd.Context(), app, ln, sweepEvery)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to the configured http_addr)")
	cmd.Flags().DurationVar(&sweepEvery, "sweep-every", time.Hour, "Interval between stale-session sweeps; 0 disables sweeping")
	return cmd
}

// runServer runs the HTTP server, the stale sweeper and the transition
// log until ctx is done or one of them fails.
func runServer(ctx context.Context, app *App, ln net.Listener, sweepEvery time.Duration) error {
	log := app.logger()
	handler := api.NewRouter(api.NewHandler(app.Sessions, log), log)
	srv := api.NewServer(ln.Addr().String(), handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Serve(gctx, srv, ln, log)
	})
	if sweepEvery > 0 {
		sweeper := service.NewSweeper(app.Sessions, sweepEvery, app.Config.StaleAfter, log)
		g.Go(func() error { return sweeper.Run(gctx) })
	}
	if app.Bus != nil {
		busLog := log.With("component", "bus")
		g.Go(func() error {
			return app.Bus.Subscribe(gctx, func(t events.Transition) {
				busLog.Debug("session transition", "session_id", t.SessionID, "from", t.From, "to", t.To, "version", t.Version)
			})
		})
	}
	return g.Wait()
}
