package storeapi

import (
	"context"

	"github.com/UnknownOlympus/storelens/internal/models"
)

// Store is an interface that defines methods for retrieving the store collections.
// Each method performs a single request and returns the decoded collection or an error.
type Store interface {
	Users(ctx context.Context) ([]models.User, error)
	Products(ctx context.Context) ([]models.Product, error)
	Carts(ctx context.Context, filter CartFilter) ([]models.Cart, error)
}

// CartFilter restricts the carts endpoint to a date range. Empty fields are not sent.
type CartFilter struct {
	StartDate string // StartDate in YYYY-MM-DD format
	EndDate   string // EndDate in YYYY-MM-DD format
}
