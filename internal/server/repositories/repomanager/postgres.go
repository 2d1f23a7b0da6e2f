// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/migrations"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/listings"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/references"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/refreshtokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct {
	listingsTable string
}

// References returns the mirror store bound to the provided DBTX.
func (m *PostgresRepositoryManager) References(db dbx.DBTX) references.Repository {
	return references.NewPostgresRepository(db)
}

// Listings returns a listings.Repository on the configured table.
func (m *PostgresRepositoryManager) Listings(db dbx.DBTX) listings.Repository {
	return listings.NewPostgresRepository(db, m.listingsTable)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations and then creates the
// listings table, whose name is only known at runtime.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return m.Listings(db).EnsureTable(ctx)
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
// listingsTable is validated and quoted once here.
func NewPostgresRepositoryManager(listingsTable string) (RepositoryManager, error) {
	quoted, err := listings.QuoteTableName(listingsTable)
	if err != nil {
		return nil, err
	}
	return &PostgresRepositoryManager{listingsTable: quoted}, nil
}
