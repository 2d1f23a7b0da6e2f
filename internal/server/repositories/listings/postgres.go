package listings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/jackc/pgx/v5"
)

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// QuoteTableName validates name and returns it quoted for use in SQL.
func QuoteTableName(name string) (string, error) {
	if !tableNameRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidIdentifier, name)
	}
	return pgx.Identifier{name}.Sanitize(), nil
}

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db    dbx.DBTX
	table string
}

// NewPostgresRepository binds the repository to db and an already quoted
// table name (see QuoteTableName).
func NewPostgresRepository(db dbx.DBTX, quotedTable string) *PostgresRepository {
	return &PostgresRepository{db: db, table: quotedTable}
}

const listingColumns = `id, category, brand_id, brand_name, model_id, model_name, trim_id, trim_name,
	model_year, manufacture_year, mileage, color, fuel_type, transmission, engine, doors,
	body_category, displacement, price, photos, active, created_at, updated_at`

func (r *PostgresRepository) q(query string) string {
	return strings.ReplaceAll(query, "{table}", r.table)
}

func (r *PostgresRepository) EnsureTable(ctx context.Context) error {
	query := r.q(`
		CREATE TABLE IF NOT EXISTS {table} (
			id               BIGSERIAL PRIMARY KEY,
			category         VARCHAR(10)  NOT NULL,
			brand_id         INTEGER      NOT NULL,
			brand_name       VARCHAR(100) NOT NULL,
			model_id         INTEGER      NOT NULL,
			model_name       VARCHAR(200) NOT NULL,
			trim_id          VARCHAR(64)  NOT NULL DEFAULT '',
			trim_name        VARCHAR(200) NOT NULL DEFAULT '',
			model_year       INTEGER      NOT NULL,
			manufacture_year INTEGER      NOT NULL,
			mileage          INTEGER      NOT NULL DEFAULT 0,
			color            VARCHAR(50)  NOT NULL DEFAULT '',
			fuel_type        VARCHAR(50)  NOT NULL DEFAULT '',
			transmission     VARCHAR(50)  NOT NULL DEFAULT '',
			engine           VARCHAR(100) NOT NULL DEFAULT '',
			doors            INTEGER,
			body_category    VARCHAR(50)  NOT NULL DEFAULT '',
			displacement     VARCHAR(50)  NOT NULL DEFAULT '',
			price            NUMERIC(12, 2) NOT NULL,
			photos           JSONB        NOT NULL DEFAULT '[]'::jsonb,
			active           BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ  NOT NULL DEFAULT now()
		)
	`)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, activeOnly bool) ([]models.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM {table}`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, r.q(query))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Listing, error) {
	query := r.q(`SELECT ` + listingColumns + ` FROM {table} WHERE id = $1`)

	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) Create(ctx context.Context, l *models.Listing) error {
	photos, err := encodePhotos(l.Photos)
	if err != nil {
		return err
	}

	query := r.q(`
		INSERT INTO {table} (
			category, brand_id, brand_name, model_id, model_name, trim_id, trim_name,
			model_year, manufacture_year, mileage, color, fuel_type, transmission, engine, doors,
			body_category, displacement, price, photos, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at, updated_at
	`)
	err = r.db.QueryRowContext(ctx, query,
		string(l.Category), l.BrandID, l.BrandName, l.ModelID, l.ModelName, l.TrimID, l.TrimName,
		l.ModelYear, l.ManufactureYear, l.Mileage, l.Color, l.FuelType, l.Transmission, l.Engine, l.Doors,
		l.BodyCategory, l.Displacement, l.Price, photos, l.Active,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, l *models.Listing) error {
	photos, err := encodePhotos(l.Photos)
	if err != nil {
		return err
	}

	query := r.q(`
		UPDATE {table} SET
			category = $1, brand_id = $2, brand_name = $3, model_id = $4, model_name = $5,
			trim_id = $6, trim_name = $7, model_year = $8, manufacture_year = $9, mileage = $10,
			color = $11, fuel_type = $12, transmission = $13, engine = $14, doors = $15,
			body_category = $16, displacement = $17, price = $18, photos = $19,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $20
	`)
	res, err := r.db.ExecContext(ctx, query,
		string(l.Category), l.BrandID, l.BrandName, l.ModelID, l.ModelName,
		l.TrimID, l.TrimName, l.ModelYear, l.ManufactureYear, l.Mileage,
		l.Color, l.FuelType, l.Transmission, l.Engine, l.Doors,
		l.BodyCategory, l.Displacement, l.Price, photos, l.ID,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM {table} WHERE id = $1`), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return affectedOne(res)
}

func (r *PostgresRepository) ToggleActive(ctx context.Context, id int64) (bool, error) {
	query := r.q(`
		UPDATE {table}
		SET active = NOT active, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING active
	`)
	var active bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return active, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(s scanner) (*models.Listing, error) {
	var (
		l        models.Listing
		category string
		doors    sql.NullInt64
		photos   []byte
	)
	err := s.Scan(
		&l.ID, &category, &l.BrandID, &l.BrandName, &l.ModelID, &l.ModelName, &l.TrimID, &l.TrimName,
		&l.ModelYear, &l.ManufactureYear, &l.Mileage, &l.Color, &l.FuelType, &l.Transmission, &l.Engine, &doors,
		&l.BodyCategory, &l.Displacement, &l.Price, &photos, &l.Active, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Category = models.Category(category)
	if doors.Valid {
		d := int(doors.Int64)
		l.Doors = &d
	}
	l.Photos = []string{}
	if len(photos) > 0 {
		if err := json.Unmarshal(photos, &l.Photos); err != nil {
			return nil, fmt.Errorf("decode photos: %w", err)
		}
	}
	return &l, nil
}

func encodePhotos(photos []string) (string, error) {
	if photos == nil {
		photos = []string{}
	}
	b, err := json.Marshal(photos)
	if err != nil {
		return "", fmt.Errorf("encode photos: %w", err)
	}
	return string(b), nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
