// Package graceful serves http until the context is canceled, then lets open
// requests finish before returning
package graceful

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Timeout for open requests after the context is canceled. Event streams
// are cut off once it passes.
var Timeout = 2 * time.Second

// Serve the handler on the listener
func Serve(ctx context.Context, log zerolog.Logger, listener net.Listener, handler http.Handler) error {
	server := &http.Server{
		Addr:    listener.Addr().String(),
		Handler: handler,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	shutdown := shutdown(ctx, log, server)
	if err := server.Serve(listener); err != nil {
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}
	if err := <-shutdown; err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

// shutdown the server when the context is canceled
func shutdown(ctx context.Context, log zerolog.Logger, server *http.Server) <-chan error {
	shutdown := make(chan error, 1)
	go func() {
		defer close(shutdown)
		<-ctx.Done()
		log.Debug().Msg("graceful: shutting down")
		timeout, cancel := context.WithTimeout(context.Background(), Timeout)
		defer cancel()
		if err := server.Shutdown(timeout); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				shutdown <- server.Close()
				return
			}
			shutdown <- err
		}
	}()
	return shutdown
}
