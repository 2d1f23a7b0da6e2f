package references

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/vehiclefeed/internal/common"
	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx). The queries also run unchanged on SQLite.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = `id, category, brand_id, brand_name, model_id, model_name, trim_id, trim_name,
	model_year, fuel_type, engine_spec, door_count, body_category, displacement,
	reference_code, reference_price, created_at, updated_at`

func (r *PostgresRepository) FindBrands(ctx context.Context, category models.Category) ([]models.Brand, error) {
	query := `
		SELECT brand_id, MAX(brand_name)
		FROM reference_records
		WHERE category = $1 AND brand_id <> 0
		GROUP BY brand_id
		ORDER BY MAX(brand_name), brand_id
	`
	rows, err := r.db.QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, common.NewStoreError("find brands", err)
	}
	defer rows.Close()

	var out []models.Brand
	for rows.Next() {
		var b models.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, common.NewStoreError("find brands", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreError("find brands", err)
	}
	return out, nil
}

func (r *PostgresRepository) FindModels(ctx context.Context, category models.Category, brandID int) ([]models.Model, error) {
	query := `
		SELECT model_id, MAX(model_name)
		FROM reference_records
		WHERE category = $1 AND brand_id = $2 AND model_id <> 0
		GROUP BY model_id
		ORDER BY MAX(model_name), model_id
	`
	rows, err := r.db.QueryContext(ctx, query, string(category), brandID)
	if err != nil {
		return nil, common.NewStoreError("find models", err)
	}
	defer rows.Close()

	var out []models.Model
	for rows.Next() {
		var m models.Model
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, common.NewStoreError("find models", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreError("find models", err)
	}
	return out, nil
}

func (r *PostgresRepository) FindYearsAndTrims(ctx context.Context, category models.Category, brandID, modelID int) ([]models.YearTrim, error) {
	query := `
		SELECT model_year, trim_id, MAX(trim_name)
		FROM reference_records
		WHERE category = $1 AND brand_id = $2 AND model_id = $3 AND model_year <> 0
		GROUP BY model_year, trim_id
		ORDER BY model_year DESC, MAX(trim_name) ASC
	`
	rows, err := r.db.QueryContext(ctx, query, string(category), brandID, modelID)
	if err != nil {
		return nil, common.NewStoreError("find years", err)
	}
	defer rows.Close()

	var out []models.YearTrim
	for rows.Next() {
		var y models.YearTrim
		if err := rows.Scan(&y.Year, &y.TrimID, &y.TrimName); err != nil {
			return nil, common.NewStoreError("find years", err)
		}
		out = append(out, y)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreError("find years", err)
	}
	return out, nil
}

func (r *PostgresRepository) FindTrimDetail(ctx context.Context, category models.Category, brandID, modelID, year int) (*models.ReferenceRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM reference_records
		WHERE category = $1 AND brand_id = $2 AND model_id = $3 AND model_year = $4
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, string(category), brandID, modelID, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.NewStoreError("find trim detail", err)
	}
	return rec, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, rec *models.ReferenceRecord) error {
	query := `
		INSERT INTO reference_records (
			category, brand_id, brand_name, model_id, model_name, trim_id, trim_name, model_year,
			fuel_type, engine_spec, door_count, body_category, displacement, reference_code, reference_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (category, brand_id, model_id, trim_id, model_year) DO UPDATE SET
			fuel_type       = COALESCE(EXCLUDED.fuel_type, reference_records.fuel_type),
			engine_spec     = COALESCE(EXCLUDED.engine_spec, reference_records.engine_spec),
			door_count      = COALESCE(EXCLUDED.door_count, reference_records.door_count),
			body_category   = COALESCE(EXCLUDED.body_category, reference_records.body_category),
			displacement    = COALESCE(EXCLUDED.displacement, reference_records.displacement),
			reference_code  = COALESCE(EXCLUDED.reference_code, reference_records.reference_code),
			reference_price = COALESCE(EXCLUDED.reference_price, reference_records.reference_price),
			updated_at      = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		string(rec.Category), rec.BrandID, rec.BrandName, rec.ModelID, rec.ModelName,
		rec.TrimID, rec.TrimName, rec.ModelYear,
		rec.FuelType, rec.EngineSpec, rec.DoorCount, rec.BodyCategory, rec.Displacement,
		rec.ReferenceCode, rec.ReferencePrice,
	)
	if err != nil {
		return common.NewStoreError("upsert", err)
	}
	return nil
}

func (r *PostgresRepository) Stats(ctx context.Context) (*models.CacheStats, error) {
	query := `
		SELECT category,
		       COUNT(*),
		       COUNT(DISTINCT NULLIF(brand_id, 0)),
		       COUNT(DISTINCT NULLIF(model_id, 0))
		FROM reference_records
		GROUP BY category
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, common.NewStoreError("stats", err)
	}
	defer rows.Close()

	stats := &models.CacheStats{
		Brands: make(map[models.Category]int64, len(models.Categories)),
		Models: make(map[models.Category]int64, len(models.Categories)),
	}
	for _, c := range models.Categories {
		stats.Brands[c] = 0
		stats.Models[c] = 0
	}

	for rows.Next() {
		var (
			category      string
			total, brands int64
			modelCount    int64
		)
		if err := rows.Scan(&category, &total, &brands, &modelCount); err != nil {
			return nil, common.NewStoreError("stats", err)
		}
		stats.TotalRecords += total
		stats.Brands[models.Category(category)] = brands
		stats.Models[models.Category(category)] = modelCount
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStoreError("stats", err)
	}
	return stats, nil
}

func scanRecord(row *sql.Row) (*models.ReferenceRecord, error) {
	var (
		rec      models.ReferenceRecord
		category string
		doors    sql.NullInt64
	)
	var fuel, engine, body, displacement, referenceCode, referencePrice sql.NullString

	err := row.Scan(
		&rec.ID, &category, &rec.BrandID, &rec.BrandName, &rec.ModelID, &rec.ModelName,
		&rec.TrimID, &rec.TrimName, &rec.ModelYear,
		&fuel, &engine, &doors, &body, &displacement, &referenceCode, &referencePrice,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Category = models.Category(category)
	rec.FuelType = nullString(fuel)
	rec.EngineSpec = nullString(engine)
	rec.BodyCategory = nullString(body)
	rec.Displacement = nullString(displacement)
	rec.ReferenceCode = nullString(referenceCode)
	rec.ReferencePrice = nullString(referencePrice)
	if doors.Valid {
		d := int(doors.Int64)
		rec.DoorCount = &d
	}
	return &rec, nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
