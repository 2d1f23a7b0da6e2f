// Package importer pre-populates the mirror store by walking the whole
// brand, model and year hierarchy of one category in the background.
//
// Only one run exists at a time. A run walks depth first, upserting one
// mirror row per trim detail, and can be stopped at any brand, model or
// year boundary. Rows already written stay; there is no rollback.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/reference"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vehiclefeed/internal/timex"
)

// Reference is the subset of the reference client walked by the importer.
type Reference interface {
	ListBrands(ctx context.Context, category models.Category) reference.Result[[]models.Brand]
	ListModels(ctx context.Context, category models.Category, brandID int) reference.Result[[]models.Model]
	ListYears(ctx context.Context, category models.Category, brandID, modelID int) reference.Result[[]models.YearOption]
	GetTrimDetails(ctx context.Context, category models.Category, brandID, modelID int, yearCode string) reference.Result[models.ReferenceDetail]
}

// Options bound the amount of work of one run.
type Options struct {
	// ModelCap keeps only the first N models of each brand; 0 is unlimited.
	ModelCap int
	// YearCap keeps only the first N years of each model; 0 is unlimited.
	YearCap int
	// Delay is the pause after every reference call.
	Delay time.Duration
	// Brands, when set, restricts the walk to brands whose name contains
	// one of the entries (case-insensitive).
	Brands      []string
	DefaultYear int
}

// StartResult is the answer to Start.
type StartResult int

const (
	Accepted StartResult = iota
	Busy
)

func (r StartResult) String() string {
	if r == Accepted {
		return "accepted"
	}
	return "busy"
}

// StopResult is the answer to Stop.
type StopResult int

const (
	Stopping StopResult = iota
	NotRunning
)

func (r StopResult) String() string {
	if r == Stopping {
		return "stopping"
	}
	return "not_running"
}

// ErrStopped marks a run that observed a stop request.
var ErrStopped = errors.New("import stopped")

// Importer runs bulk imports.
type Importer struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	ref      Reference
	progress *Progress
	logger   logging.Logger
	opts     Options
	now      func() time.Time

	running atomic.Bool
	stop    atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds an Importer reporting into progress.
func New(db *sql.DB, rm repomanager.RepositoryManager, ref Reference, progress *Progress, logger logging.Logger, opts Options) *Importer {
	return &Importer{
		db:       db,
		rm:       rm,
		ref:      ref,
		progress: progress,
		logger:   logger.With("module", "importer"),
		opts:     opts,
		now:      time.Now,
	}
}

// Start launches a run for category unless one is already running. The run
// outlives ctx's cancellation; use Stop to end it.
func (im *Importer) Start(ctx context.Context, category models.Category) StartResult {
	if !im.running.CompareAndSwap(false, true) {
		return Busy
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	im.mu.Lock()
	im.cancel = cancel
	im.done = done
	im.mu.Unlock()

	im.stop.Store(false)
	im.progress.begin(category, im.now())
	im.logger.Info(ctx, "import started", "category", category)

	go func() {
		defer close(done)
		defer cancel()
		im.run(runCtx, category)
	}()

	return Accepted
}

// Status returns a snapshot of the progress.
func (im *Importer) Status() models.ImportProgress {
	return im.progress.Snapshot()
}

// Stop asks the current run to end at the next check.
func (im *Importer) Stop() StopResult {
	if !im.running.Load() {
		return NotRunning
	}
	im.stop.Store(true)

	im.mu.Lock()
	cancel := im.cancel
	im.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return Stopping
}

// Wait blocks until the current run, if any, has finished.
func (im *Importer) Wait() {
	im.mu.Lock()
	done := im.done
	im.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (im *Importer) stopped(ctx context.Context) bool {
	return im.stop.Load() || ctx.Err() != nil
}

func (im *Importer) run(ctx context.Context, category models.Category) {
	var (
		state = models.ImportCompleted
		err   error
	)

	defer func() {
		if p := recover(); p != nil {
			state, err = models.ImportFailed, fmt.Errorf("panic: %v", p)
		}
		im.progress.finish(state, err, im.now())
		im.running.Store(false)

		snap := im.progress.Snapshot()
		im.logger.Info(context.Background(), "import finished",
			"category", category, "state", state, "inserted", snap.Inserted, "error", err)
	}()

	err = im.walk(ctx, category)
	switch {
	case err == nil:
	case errors.Is(err, ErrStopped):
		state, err = models.ImportCancelled, nil
	default:
		state = models.ImportFailed
	}
}

func (im *Importer) pause(ctx context.Context) {
	if im.opts.Delay > 0 {
		timex.Sleep(ctx, im.opts.Delay)
	}
}

func (im *Importer) walk(ctx context.Context, category models.Category) error {
	brandsRes := im.ref.ListBrands(ctx, category)
	brands, ok := brandsRes.Get()
	if !ok {
		if im.stopped(ctx) {
			return ErrStopped
		}
		return fmt.Errorf("list brands: %w", brandsRes.Err())
	}
	im.pause(ctx)

	brands = filterBrands(brands, im.opts.Brands)
	im.progress.setTotal(len(brands))

	repo := im.rm.References(im.db)

	for i, brand := range brands {
		if im.stopped(ctx) {
			return ErrStopped
		}
		im.progress.setLabel(fmt.Sprintf("processing brand %s", brand.Name))

		brandModels := im.ref.ListModels(ctx, category, brand.ID).OrEmpty()
		im.pause(ctx)
		brandModels = capped(brandModels, im.opts.ModelCap)

		for _, model := range brandModels {
			if im.stopped(ctx) {
				return ErrStopped
			}
			im.progress.setLabel(fmt.Sprintf("processing brand %s / model %s", brand.Name, model.Name))

			years := im.ref.ListYears(ctx, category, brand.ID, model.ID).OrEmpty()
			im.pause(ctx)
			years = capped(years, im.opts.YearCap)

			for _, year := range years {
				if im.stopped(ctx) {
					return ErrStopped
				}

				detail, ok := im.ref.GetTrimDetails(ctx, category, brand.ID, model.ID, year.Code).Get()
				im.pause(ctx)
				if im.stopped(ctx) {
					return ErrStopped
				}
				if !ok || detail.IsZero() {
					continue
				}

				rec := models.RecordFromDetail(category, brand, model, year, detail, im.opts.DefaultYear)
				if err := repo.Upsert(ctx, rec); err != nil {
					if im.stopped(ctx) {
						return ErrStopped
					}
					return fmt.Errorf("upsert %s/%d/%d/%s: %w", category, brand.ID, model.ID, year.Code, err)
				}
				im.progress.addInserted()
			}
		}

		im.progress.setIndex(i + 1)
	}

	if im.stopped(ctx) {
		return ErrStopped
	}
	return nil
}

func capped[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func filterBrands(brands []models.Brand, wanted []string) []models.Brand {
	if len(wanted) == 0 {
		return brands
	}
	out := make([]models.Brand, 0, len(wanted))
	for _, b := range brands {
		name := strings.ToLower(b.Name)
		for _, w := range wanted {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" && strings.Contains(name, w) {
				out = append(out, b)
				break
			}
		}
	}
	return out
}
