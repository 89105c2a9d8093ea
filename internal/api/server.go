package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/alexanderramin/pistemind/internal/logging"
)

const shutdownTimeout = 10 * time.Second

// NewServer returns an http.Server with the timeouts used in production.
// WriteTimeout covers the slowest generation call.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, log *logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
