// Command healthdemo serves a health status registry over HTTP.
//
// Endpoints:
//
//	GET /health          current snapshot as JSON
//	PUT /health/{key}    store a JSON value under key
//	GET /healthz         liveness
//	GET /pagehit         count a page hit
//	GET /metrics         Prometheus metrics (prometheus exporter only)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/jonwraymond/healthstatus/health"
	"github.com/jonwraymond/healthstatus/internal/config"
	"github.com/jonwraymond/healthstatus/observe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "healthdemo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("healthdemo", pflag.ContinueOnError)
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load("", flags)
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = obs.Shutdown(sctx)
	}()
	logger := obs.Logger()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("middleware: %w", err)
	}
	hc, err := cfg.HealthConfig()
	if err != nil {
		return err
	}
	hc.Middleware = mw
	hc.Logger = logger

	sched := health.NewScheduler(health.NewRegistry(), hc)
	defer sched.Stop()

	srv := newServer(sched, logger)
	if err := srv.registerProbes(cfg.Observability.Version); err != nil {
		return err
	}
	if err := sched.Start(ctx); err != nil {
		return err
	}

	var metrics http.Handler
	if cfg.Observability.Metrics.Enabled && cfg.Observability.Metrics.Exporter == "prometheus" {
		metrics = promhttp.Handler()
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(metrics),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening",
			observe.Field{Key: "addr", Value: cfg.Server.Addr},
			observe.Field{Key: "policy", Value: cfg.Scheduler.Policy},
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
