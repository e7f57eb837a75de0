package repositories

import (
	"context"
	"errors"

	"butik/internal/models"
)

// ErrProductNotFound is returned by GetByID and Delete when no product
// exists for the given id.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Create persists the product in a single write and fills in the
	// store-assigned id and timestamps.
	Create(ctx context.Context, product *models.Product) error
	// GetAll returns products ordered by creation time, newest first.
	// An empty category returns every product.
	GetAll(ctx context.Context, category string) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}
