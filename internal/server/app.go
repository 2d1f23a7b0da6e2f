// Package server wires the configuration, database, reference client,
// mirror resolver, importer, services and HTTP API together and runs them
// until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/logging"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/config"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/httpapi"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/importer"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/reference"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/resolver"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/services"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/storage"
	"golang.org/x/sync/errgroup"
)

// tokenPurgeInterval is how often expired refresh tokens are dropped.
const tokenPurgeInterval = time.Hour

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	importer    *importer.Importer
	authService *services.AuthService
	server      *httpapi.Server
}

// openDB is a seam for tests.
var openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
	return dbx.Open(ctx, "pgx", dsn, dbx.DefaultOpenOptions())
}

// NewApp connects to the database, applies migrations and builds every
// component. The caller owns the returned App and must Run it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, c, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, db *sql.DB, logger logging.Logger) (*App, error) {
	rm, err := repomanager.NewPostgresRepositoryManager(c.ListingsTable)
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	ref := reference.NewClient(c.ReferenceBaseURL, c.ReferenceTimeout, logger)
	res := resolver.New(db, rm, ref, logger, c.DefaultModelYear)
	imp := importer.New(db, rm, ref, importer.NewProgress(), logger, importer.Options{
		ModelCap:    c.ImportModelCap,
		YearCap:     c.ImportYearCap,
		Delay:       c.ImportDelay,
		Brands:      c.ImportBrands,
		DefaultYear: c.DefaultModelYear,
	})

	var photos services.PhotoStore
	if c.S3Bucket != "" {
		ps, err := storage.NewS3PhotoStore(ctx, storage.Config{
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Bucket:        c.S3Bucket,
			Region:        c.S3Region,
			BaseEndpoint:  c.S3BaseEndpoint,
			PublicBaseURL: c.S3PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("photo storage init error: %w", err)
		}
		photos = ps
	} else {
		logger.Warn(ctx, "photo storage disabled, no bucket configured")
	}

	authService := services.NewAuthService(db, rm, c)
	listingService := services.NewListingService(db, rm, photos, logger)

	handler := httpapi.NewHandler(authService, res, imp, listingService, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		importer:    imp,
		authService: authService,
		server:      httpapi.NewServer(c.HTTPAddr, handler.Routes(), logger),
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives. On the way
// out a running import is stopped and awaited before the database closes.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "address", app.config.HTTPAddr)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.server.Run(gctx)
	})

	g.Go(func() error {
		app.purgeTokens(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if app.importer.Stop() == importer.Stopping {
			app.logger.Info(gctx, "waiting for import to stop")
		}
		app.importer.Wait()
		return nil
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) purgeTokens(ctx context.Context) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()

	for {
		n, err := app.authService.PurgeExpired(ctx)
		if err != nil && ctx.Err() == nil {
			app.logger.Warn(ctx, "refresh token purge failed", "error", err)
		} else if n > 0 {
			app.logger.Debug(ctx, "expired refresh tokens purged", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
