// Package listings stores the published vehicle listings in a table whose
// name is chosen per deployment.
package listings

import (
	"context"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// Repository defines listing CRUD. Lookups of a missing id return
// common.ErrorNotFound.
type Repository interface {
	// EnsureTable creates the listings table when it does not exist.
	EnsureTable(ctx context.Context) error

	List(ctx context.Context, activeOnly bool) ([]models.Listing, error)
	Get(ctx context.Context, id int64) (*models.Listing, error)

	// Create inserts l and fills in its ID and timestamps.
	Create(ctx context.Context, l *models.Listing) error
	Update(ctx context.Context, l *models.Listing) error
	Delete(ctx context.Context, id int64) error

	// ToggleActive flips the active flag and returns the new value.
	ToggleActive(ctx context.Context, id int64) (bool, error)
}
