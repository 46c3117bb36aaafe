package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/UnknownOlympus/storelens/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

const insertReportQuery = `
		INSERT INTO analysis_reports (
			report_id, created_at,
			highest_cart_id, highest_cart_user_id, highest_cart_owner, highest_cart_value,
			farthest_user_one, farthest_user_two, farthest_distance_km
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`

const insertCategoryQuery = `
		INSERT INTO category_totals (report_id, category, total_value)
		VALUES ($1, $2, $3);
	`

// NewDatabase opens a pgx connection pool and verifies it with a ping.
func NewDatabase(host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   name,
	}

	pool, err := pgxpool.New(context.Background(), dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the report tables if they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create report schema: %w", err)
	}

	return nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// SaveReport stores a report and its category totals in a single transaction.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - report: The analysis report to persist; its ID must be set.
//
// Returns:
// - An error if the transaction could not be started, an insert fails or the commit fails.
func (r *Repository) SaveReport(ctx context.Context, report models.Report) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.ErrorContext(ctx, "Failed to rollback report transaction", "error", rbErr)
			}
		}
	}()

	reportID := report.ID.String()
	_, err = tx.Exec(ctx, insertReportQuery,
		reportID, report.CreatedAt,
		report.HighestCart.CartID, report.HighestCart.UserID,
		report.HighestCart.Name.String(), report.HighestCart.Value,
		report.FarthestUsers.UserOne.String(), report.FarthestUsers.UserTwo.String(),
		report.FarthestUsers.Distance,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis report: %w", err)
	}

	for _, total := range report.Categories {
		if _, err = tx.Exec(ctx, insertCategoryQuery, reportID, total.Category, total.Value); err != nil {
			return fmt.Errorf("failed to insert category total %q: %w", total.Category, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit analysis report: %w", err)
	}

	r.log.DebugContext(ctx, "Analysis report saved", "report", reportID, "categories", len(report.Categories))

	return nil
}
