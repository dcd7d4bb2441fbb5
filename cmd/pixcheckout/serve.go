package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pix-checkout/internal/server"
	"pix-checkout/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := server.Options{
		Env:            a.cfg.App.Env,
		ServiceName:    a.cfg.App.Name,
		AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
	}
	if a.db != nil {
		opts.Database = a.db
	}
	srv := server.NewServer(a.service, opts, a.log).HTTPServer(a.cfg.HTTP.Addr())

	if a.cfg.Reconciler.Interval > 0 {
		w := worker.NewReconciliationWorker(
			a.service,
			a.cfg.Reconciler.Interval,
			a.cfg.Reconciler.OlderThan,
			a.cfg.Reconciler.BatchSize,
			a.log,
		)
		go w.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", srv.Addr).
			Str("env", a.cfg.App.Env).
			Bool("gateway_configured", a.cfg.Gateway.Configured()).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info().Msg("server stopped")
	return nil
}
