package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/san-kum/pulleysim/internal/logging"
	"github.com/san-kum/pulleysim/internal/observability"
	"github.com/san-kum/pulleysim/internal/stream"
	"github.com/spf13/cobra"
)

// serve runs the loop until interrupted, broadcasting frames on /ws and
// exporting metrics on /metrics.
func serve(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.close()
	ctx := cmd.Context()

	collector, err := observability.NewCollector(nil)
	if err != nil {
		return err
	}
	hub := stream.NewHub(s.log)
	defer hub.Close()
	s.loop.AddObserver(collector)
	s.loop.AddObserver(hub)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	// A serve failure cancels the loop with the failure as the cause.
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.log.Info(ctx, "listening", logging.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cancel(fmt.Errorf("serve %s: %w", addr, err))
		}
	}()

	loopErr := drive(ctx, s, hub)

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn(ctx, "shutdown failed", logging.Err(err))
	}
	<-done
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	if errors.Is(loopErr, context.Canceled) {
		return nil
	}
	return loopErr
}

func drive(ctx context.Context, s *session, hub *stream.Hub) error {
	dt := s.cfg.Loop.Dt
	var tick <-chan time.Time
	if realtime {
		t := time.NewTicker(time.Duration(dt * float64(time.Second)))
		defer t.Stop()
		tick = t.C
	}
	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.loop.Tick(ctx, dt, hub.Input()); err != nil {
			return err
		}
	}
}
