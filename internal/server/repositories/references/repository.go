// Package references declares the mirror store of the reference hierarchy:
// one flattened row per (category, brand, model, trim, year) key.
package references

import (
	"context"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// Repository reads and merges mirror rows. Every failure other than
// common.ErrorNotFound is a *common.StoreError.
type Repository interface {
	// FindBrands returns the distinct resolved brands of category ordered by name.
	FindBrands(ctx context.Context, category models.Category) ([]models.Brand, error)

	// FindModels returns the distinct resolved models of a brand ordered by name.
	FindModels(ctx context.Context, category models.Category, brandID int) ([]models.Model, error)

	// FindYearsAndTrims returns the distinct (year, trim) pairs of a model,
	// year descending then trim name ascending.
	FindYearsAndTrims(ctx context.Context, category models.Category, brandID, modelID int) ([]models.YearTrim, error)

	// FindTrimDetail returns the most recently created row for the key, or
	// common.ErrorNotFound.
	FindTrimDetail(ctx context.Context, category models.Category, brandID, modelID, year int) (*models.ReferenceRecord, error)

	// Upsert inserts r or, on key conflict, merges its non-nil detail fields
	// into the stored row. Identity fields are never rewritten.
	Upsert(ctx context.Context, r *models.ReferenceRecord) error

	// Stats summarizes the mirror contents.
	Stats(ctx context.Context) (*models.CacheStats, error)
}
