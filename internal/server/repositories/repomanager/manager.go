package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/listings"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/references"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/repositories/refreshtokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	References(db dbx.DBTX) references.Repository
	Listings(db dbx.DBTX) listings.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
