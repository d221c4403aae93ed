// Churn prediction gateway.
//
// Usage:
//
//	gateway serve [--listen :8080] [--prediction-base-url http://localhost:8001]
//	gateway probe
//
// PREDICTION_SERVICE_URL, when non-blank, overrides the prediction service base URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/sknetboy/data-science-prediccion/internal/config"
	"github.com/sknetboy/data-science-prediccion/internal/handlers"
	"github.com/sknetboy/data-science-prediccion/internal/logging"
	"github.com/sknetboy/data-science-prediccion/internal/metrics"
	"github.com/sknetboy/data-science-prediccion/internal/services"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gateway",
		Usage:   "Validate churn prediction requests and relay them to the prediction service",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Flags:   config.GlobalFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			probeCommand(),
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP gateway",
		Flags:  config.ServeFlags(),
		Action: runServe,
	}
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:   "probe",
		Usage:  "Call the prediction service /stats endpoint and print the answer",
		Flags:  config.PredictionFlags(),
		Action: runProbe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := config.Load(c, os.Getenv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	gin.SetMode(gin.ReleaseMode)
	m := metrics.New()
	client := services.NewPredictionClient(cfg.Prediction, log, m)
	h := handlers.NewHandler(client, log, m)
	router := handlers.NewRouter(h, cfg.HTTP.AllowedOrigins)

	srv := &http.Server{
		Addr:         cfg.HTTP.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening",
			"addr", cfg.HTTP.ListenAddr,
			"prediction_base_url", client.BaseURL(),
			"prediction_timeout", cfg.Prediction.Timeout.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", "grace", cfg.HTTP.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("gateway stopped")
	return nil
}

func runProbe(c *cli.Context) error {
	cfg, err := config.Load(c, os.Getenv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	client := services.NewPredictionClient(cfg.Prediction, log, nil)
	out, err := client.Stats(c.Context)
	if err != nil {
		return fmt.Errorf("probe %s: %w", client.BaseURL(), err)
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
