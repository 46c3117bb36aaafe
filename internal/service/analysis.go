package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/storelens/internal/analysis"
	"github.com/UnknownOlympus/storelens/internal/metrics"
	"github.com/UnknownOlympus/storelens/internal/models"
	"github.com/UnknownOlympus/storelens/internal/repository"
	"github.com/UnknownOlympus/storelens/internal/storeapi"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AnalysisService fetches the store collections and analyzes them,
// optionally storing every report and repeating on an interval.
type AnalysisService struct {
	log             *slog.Logger         // Logger for logging service activities
	store           storeapi.Store       // Store API the collections are fetched from
	repo            repository.Interface // Report store, nil disables persistence
	metrics         *metrics.Metrics     // Metrics for tracking service performance
	filter          storeapi.CartFilter  // Date range of carts taken into account
	concurrentFetch bool                 // Fetch collections in parallel
	pollInterval    time.Duration        // Interval between analysis runs
}

// Options configure an AnalysisService.
type Options struct {
	Filter          storeapi.CartFilter
	ConcurrentFetch bool
	PollInterval    time.Duration
}

// NewAnalysisService creates a new instance of AnalysisService. repo may be nil.
func NewAnalysisService(
	log *slog.Logger,
	store storeapi.Store,
	repo repository.Interface,
	metrics *metrics.Metrics,
	opts Options,
) *AnalysisService {
	return &AnalysisService{
		log:             log,
		store:           store,
		repo:            repo,
		metrics:         metrics,
		filter:          opts.Filter,
		concurrentFetch: opts.ConcurrentFetch,
		pollInterval:    opts.PollInterval,
	}
}

// collections is the fetched input of one run.
type collections struct {
	users    []models.User
	products []models.Product
	carts    []models.Cart
}

// RunOnce fetches users, products and carts, analyzes them and stores the report.
// Any failure aborts the run and no report is returned.
func (as *AnalysisService) RunOnce(ctx context.Context) (*models.Report, error) {
	report, err := as.run(ctx)
	if err != nil {
		as.metrics.AnalysisRuns.WithLabelValues("failure").Inc()
		return nil, err
	}

	as.metrics.AnalysisRuns.WithLabelValues("success").Inc()
	as.metrics.HighestCartValue.Set(report.HighestCart.Value)
	as.metrics.FarthestDistance.Set(report.FarthestUsers.Distance)

	return report, nil
}

func (as *AnalysisService) run(ctx context.Context) (*models.Report, error) {
	fetchFn := as.fetchSequential
	if as.concurrentFetch {
		fetchFn = as.fetchConcurrent
	}

	data, err := fetchFn(ctx)
	if err != nil {
		return nil, err
	}

	as.log.DebugContext(ctx, "Collections fetched",
		"users", len(data.users), "products", len(data.products), "carts", len(data.carts))

	report, err := analysis.Analyze(data.users, data.products, data.carts)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze store data: %w", err)
	}
	report.ID = uuid.New()
	report.CreatedAt = time.Now().UTC()

	if as.repo != nil {
		if err = as.repo.SaveReport(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to save report: %w", err)
		}
	}

	return &report, nil
}

func (as *AnalysisService) fetchSequential(ctx context.Context) (collections, error) {
	var (
		data collections
		err  error
	)

	if data.users, err = fetch(ctx, as, "users", as.store.Users); err != nil {
		return collections{}, err
	}
	if data.products, err = fetch(ctx, as, "products", as.store.Products); err != nil {
		return collections{}, err
	}
	if data.carts, err = fetch(ctx, as, "carts", as.fetchCarts); err != nil {
		return collections{}, err
	}

	return data, nil
}

func (as *AnalysisService) fetchConcurrent(ctx context.Context) (collections, error) {
	var data collections
	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() (err error) {
		data.users, err = fetch(gctx, as, "users", as.store.Users)
		return err
	})
	grp.Go(func() (err error) {
		data.products, err = fetch(gctx, as, "products", as.store.Products)
		return err
	})
	grp.Go(func() (err error) {
		data.carts, err = fetch(gctx, as, "carts", as.fetchCarts)
		return err
	})

	if err := grp.Wait(); err != nil {
		return collections{}, err
	}

	return data, nil
}

func (as *AnalysisService) fetchCarts(ctx context.Context) ([]models.Cart, error) {
	return as.store.Carts(ctx, as.filter)
}

// fetch runs a single collection request and records its duration and outcome.
func fetch[T any](
	ctx context.Context,
	as *AnalysisService,
	resource string,
	fetchFn func(context.Context) ([]T, error),
) ([]T, error) {
	startTime := time.Now()
	items, err := fetchFn(ctx)
	as.metrics.RequestSeconds.WithLabelValues(resource).Observe(time.Since(startTime).Seconds())

	if err != nil {
		as.metrics.FetchRequests.WithLabelValues(resource, "failure").Inc()
		as.log.ErrorContext(ctx, "Failed to fetch collection", "resource", resource, "error", err)
		return nil, fmt.Errorf("failed to fetch %s: %w", resource, err)
	}

	as.metrics.FetchRequests.WithLabelValues(resource, "success").Inc()

	return items, nil
}

// Run repeats RunOnce every poll interval until the context is cancelled.
// Failed runs are logged and the loop continues.
func (as *AnalysisService) Run(ctx context.Context) {
	if as.pollInterval <= 0 {
		as.log.WarnContext(ctx, "Analysis service not started, poll interval is not positive",
			"interval", as.pollInterval)
		return
	}

	ticker := time.NewTicker(as.pollInterval)
	defer ticker.Stop()

	as.log.InfoContext(ctx, "Analysis service started...", "interval", as.pollInterval)

	for {
		select {
		case <-ctx.Done():
			as.log.InfoContext(ctx, "Analysis service stopped.")
			return
		case <-ticker.C:
			as.log.InfoContext(ctx, "Running store analysis...")
			report, err := as.RunOnce(ctx)
			if err != nil {
				as.log.ErrorContext(ctx, "Store analysis failed", "error", err)
				continue
			}
			as.log.InfoContext(ctx, "Store analysis finished",
				"report", report.ID,
				"highest_cart_value", report.HighestCart.Value,
				"farthest_distance_km", report.FarthestUsers.Distance)
		}
	}
}
