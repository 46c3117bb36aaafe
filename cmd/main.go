package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/storelens/internal/config"
	"github.com/UnknownOlympus/storelens/internal/metrics"
	"github.com/UnknownOlympus/storelens/internal/models"
	"github.com/UnknownOlympus/storelens/internal/repository"
	"github.com/UnknownOlympus/storelens/internal/service"
	"github.com/UnknownOlympus/storelens/internal/storeapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	if err := run(ctx, cfg, logger, reg, appMetrics); err != nil {
		logger.ErrorContext(ctx, "Store analysis failed", "error", err)
		stop()
		os.Exit(1)
	}
}

// run wires the store client, the optional report store and the analysis service.
// With a zero interval it analyzes once and prints the report, otherwise it polls
// until the context is cancelled.
func run(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	reg *prometheus.Registry,
	appMetrics *metrics.Metrics,
) error {
	client := storeapi.NewClient(cfg.BaseURL, cfg.Timeout, cfg.RateLimit, logger)

	// The report store is optional, without DB_HOST reports are only printed.
	var (
		repo    repository.Interface
		checker healthChecker
	)
	if cfg.Database.Enabled() {
		dtb, err := repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to DB: %w", err)
		}
		defer dtb.Close()

		reportRepo := repository.NewRepository(dtb, logger)
		if err = reportRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		repo, checker = reportRepo, reportRepo
	}

	analysisService := service.NewAnalysisService(logger, client, repo, appMetrics, service.Options{
		Filter:          storeapi.CartFilter{StartDate: cfg.Carts.StartDate, EndDate: cfg.Carts.EndDate},
		ConcurrentFetch: cfg.ConcurrentFetch,
		PollInterval:    cfg.Interval,
	})

	if cfg.Interval == 0 {
		report, err := analysisService.RunOnce(ctx)
		if err != nil {
			return err
		}
		printReport(os.Stdout, report)
		return nil
	}

	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow run to wait for signals.
	go startMonitoringServer(ctx, logger, reg, checker, cfg.Port)

	go analysisService.Run(ctx)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")
	logger.InfoContext(ctx, "Application stopped gracefully.")

	return nil
}

// healthChecker reports whether a dependency is reachable.
type healthChecker interface {
	Ping(ctx context.Context) error
}

// printReport writes the three analysis results in a human readable form.
func printReport(out io.Writer, report *models.Report) {
	fmt.Fprintln(out, "Categories with their total values:")
	for _, total := range report.Categories {
		fmt.Fprintf(out, "  %s: %.2f\n", total.Category, total.Value)
	}

	fmt.Fprintln(out, "The most expensive cart value and its owner:")
	fmt.Fprintf(out, "  %s (cart %d): %.2f\n",
		report.HighestCart.Name, report.HighestCart.CartID, report.HighestCart.Value)

	fmt.Fprintln(out, "The two users which live the farthest away from one another:")
	fmt.Fprintf(out, "  %s and %s: %.4f km\n",
		report.FarthestUsers.UserOne, report.FarthestUsers.UserTwo, report.FarthestUsers.Distance)
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - checker: The report store to ping, nil when persistence is disabled.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	checker healthChecker,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler(ctx, log, checker))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

func healthHandler(ctx context.Context, log *slog.Logger, checker healthChecker) http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if checker != nil {
			if err := checker.Ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		if _, err := writer.Write([]byte(body)); err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:       slog.LevelError,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
