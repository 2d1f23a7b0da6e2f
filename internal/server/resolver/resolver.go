// Package resolver answers hierarchy lookups from the mirror store and falls
// back to the reference service when the mirror has nothing for the key.
//
// A mirror hit is returned as is, even when the rows look incomplete. The
// read path never writes back into the mirror; the bulk importer is the
// only writer. A mirror failure degrades to the reference service and is
// reported on Lookup.StoreErr; when both fail the lookup is empty, not an
// error.
package resolver

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/reference"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/repomanager"
)

// Source tells where a lookup was answered from.
type Source string

const (
	SourceMirror      Source = "mirror"
	SourceReference   Source = "reference"
	SourceUnavailable Source = "unavailable"
)

// Lookup is the answer of one resolution.
type Lookup[T any] struct {
	Items  T
	Source Source
	// StoreErr is the mirror failure that forced the fallback, if any.
	StoreErr error
}

// Degraded reports whether the mirror failed during the lookup.
func (l Lookup[T]) Degraded() bool { return l.StoreErr != nil }

// Reference is the subset of the reference client used here.
type Reference interface {
	ListBrands(ctx context.Context, category models.Category) reference.Result[[]models.Brand]
	ListModels(ctx context.Context, category models.Category, brandID int) reference.Result[[]models.Model]
	ListYears(ctx context.Context, category models.Category, brandID, modelID int) reference.Result[[]models.YearOption]
	GetTrimDetails(ctx context.Context, category models.Category, brandID, modelID int, yearCode string) reference.Result[models.ReferenceDetail]
}

// Resolver runs the mirror-first lookups.
type Resolver struct {
	db          *sql.DB
	rm          repomanager.RepositoryManager
	ref         Reference
	logger      logging.Logger
	defaultYear int
}

// New builds a Resolver. defaultYear is used for year codes that do not parse.
func New(db *sql.DB, rm repomanager.RepositoryManager, ref Reference, logger logging.Logger, defaultYear int) *Resolver {
	return &Resolver{
		db:          db,
		rm:          rm,
		ref:         ref,
		logger:      logger.With("module", "resolver"),
		defaultYear: defaultYear,
	}
}

// Brands lists the brands of category.
func (r *Resolver) Brands(ctx context.Context, category models.Category) Lookup[[]models.Brand] {
	rows, err := r.rm.References(r.db).FindBrands(ctx, category)
	if hit(rows, err) {
		return Lookup[[]models.Brand]{Items: rows, Source: SourceMirror}
	}
	r.logMiss(ctx, "brands", err, "category", category)

	return fromReference(r.ref.ListBrands(ctx, category), err, []models.Brand{})
}

// Models lists the models of a brand.
func (r *Resolver) Models(ctx context.Context, category models.Category, brandID int) Lookup[[]models.Model] {
	rows, err := r.rm.References(r.db).FindModels(ctx, category, brandID)
	if hit(rows, err) {
		return Lookup[[]models.Model]{Items: rows, Source: SourceMirror}
	}
	r.logMiss(ctx, "models", err, "category", category, "brand_id", brandID)

	return fromReference(r.ref.ListModels(ctx, category, brandID), err, []models.Model{})
}

// Years lists the year/trim options of a model. Mirror rows are turned into
// the same {code, name} shape the reference service returns.
func (r *Resolver) Years(ctx context.Context, category models.Category, brandID, modelID int) Lookup[[]models.YearOption] {
	rows, err := r.rm.References(r.db).FindYearsAndTrims(ctx, category, brandID, modelID)
	if hit(rows, err) {
		out := make([]models.YearOption, 0, len(rows))
		for _, y := range rows {
			out = append(out, y.Option())
		}
		return Lookup[[]models.YearOption]{Items: out, Source: SourceMirror}
	}
	r.logMiss(ctx, "years", err, "category", category, "brand_id", brandID, "model_id", modelID)

	return fromReference(r.ref.ListYears(ctx, category, brandID, modelID), err, []models.YearOption{})
}

// TrimDetail resolves the detail of a year/trim code. A malformed code never
// fails: it resolves against the default year with no trim. The result is
// nil only when neither the mirror nor the reference service has it.
func (r *Resolver) TrimDetail(ctx context.Context, category models.Category, brandID, modelID int, yearCode string) Lookup[*models.TrimDetail] {
	year, trimID := models.ParseYearCode(yearCode, r.defaultYear)

	rec, err := r.rm.References(r.db).FindTrimDetail(ctx, category, brandID, modelID, year)
	if err == nil && rec != nil {
		d := models.TrimDetailFromRecord(rec)
		return Lookup[*models.TrimDetail]{Items: &d, Source: SourceMirror}
	}
	var storeErr error
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		storeErr = err
	}
	r.logMiss(ctx, "trim detail", storeErr, "category", category, "brand_id", brandID, "model_id", modelID, "year", year)

	res := r.ref.GetTrimDetails(ctx, category, brandID, modelID, yearCode)
	d, ok := res.Get()
	if !ok || d.IsZero() {
		return Lookup[*models.TrimDetail]{Source: SourceUnavailable, StoreErr: storeErr}
	}
	detail := models.TrimDetailFromReference(category, brandID, modelID, year, trimID, d)
	return Lookup[*models.TrimDetail]{Items: &detail, Source: SourceReference, StoreErr: storeErr}
}

func hit[T any](rows []T, err error) bool {
	return err == nil && len(rows) > 0
}

func (r *Resolver) logMiss(ctx context.Context, level string, err error, args ...any) {
	if err != nil {
		r.logger.Warn(ctx, "mirror store failed, using reference service",
			append([]any{"level", level, "error", err}, args...)...)
		return
	}
	r.logger.Debug(ctx, "mirror miss", append([]any{"level", level}, args...)...)
}

func fromReference[T any](res reference.Result[[]T], storeErr error, empty []T) Lookup[[]T] {
	items, ok := res.Get()
	if !ok {
		return Lookup[[]T]{Items: empty, Source: SourceUnavailable, StoreErr: storeErr}
	}
	if items == nil {
		items = empty
	}
	return Lookup[[]T]{Items: items, Source: SourceReference, StoreErr: storeErr}
}

// Stats summarizes the mirror contents. Unlike the lookups it surfaces the
// store error, since there is nothing to fall back to.
func (r *Resolver) Stats(ctx context.Context) (*models.CacheStats, error) {
	return r.rm.References(r.db).Stats(ctx)
}
