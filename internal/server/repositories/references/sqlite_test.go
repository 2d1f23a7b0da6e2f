package references

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE reference_records (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	category        TEXT    NOT NULL,
	brand_id        INTEGER NOT NULL DEFAULT 0,
	brand_name      TEXT    NOT NULL DEFAULT '',
	model_id        INTEGER NOT NULL DEFAULT 0,
	model_name      TEXT    NOT NULL DEFAULT '',
	trim_id         TEXT    NOT NULL DEFAULT '',
	trim_name       TEXT    NOT NULL DEFAULT '',
	model_year      INTEGER NOT NULL DEFAULT 0,
	fuel_type       TEXT,
	engine_spec     TEXT,
	door_count      INTEGER,
	body_category   TEXT,
	displacement    TEXT,
	reference_code  TEXT,
	reference_price TEXT,
	created_at      TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      TEXT    NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (category, brand_id, model_id, trim_id, model_year)
);`

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)
	return db
}

type detailRow struct {
	brandName, fuel, engine sql.NullString
	doors                   sql.NullInt64
}

func readRow(t *testing.T, db *sql.DB) (int, detailRow) {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM reference_records`).Scan(&n))

	var d detailRow
	require.NoError(t, db.QueryRow(`SELECT brand_name, fuel_type, engine_spec, door_count FROM reference_records LIMIT 1`).
		Scan(&d.brandName, &d.fuel, &d.engine, &d.doors))
	return n, d
}

func gol(fuel, engine *string) *models.ReferenceRecord {
	return &models.ReferenceRecord{
		Category: models.CategoryCars, BrandID: 59, BrandName: "Volkswagen",
		ModelID: 5940, ModelName: "Gol", TrimID: "1", TrimName: "2020 Gasolina", ModelYear: 2020,
		FuelType: fuel, EngineSpec: engine,
	}
}

func TestSQLiteUpsert_MergesDetailFields(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, gol(nil, nil)))
	n, row := readRow(t, db)
	assert.Equal(t, 1, n)
	assert.False(t, row.fuel.Valid, "partial row starts without detail")

	require.NoError(t, repo.Upsert(ctx, gol(strPtr("Gasolina"), strPtr("G"))))
	n, row = readRow(t, db)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Gasolina", row.fuel.String)
	assert.Equal(t, "G", row.engine.String)

	rec := gol(strPtr("Flex"), nil)
	rec.BrandName = "VW - VolksWagen"
	require.NoError(t, repo.Upsert(ctx, rec))
	n, row = readRow(t, db)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Flex", row.fuel.String, "incoming detail wins")
	assert.Equal(t, "G", row.engine.String, "nil detail keeps the stored value")
	assert.Equal(t, "Volkswagen", row.brandName.String, "identity fields stay stable")
}

func TestSQLiteUpsert_ConcurrentWritersNeverDuplicate(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostgresRepository(db)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fuel := fmt.Sprintf("fuel-%d", i)
			errs <- repo.Upsert(context.Background(), gol(&fuel, nil))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	n, row := readRow(t, db)
	assert.Equal(t, 1, n)
	assert.True(t, row.fuel.Valid)
}

func TestSQLiteFinders(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostgresRepository(db)
	ctx := context.Background()

	rows := []*models.ReferenceRecord{
		{Category: models.CategoryCars, BrandID: 59, BrandName: "Volkswagen", ModelID: 5940, ModelName: "Gol", TrimID: "1", TrimName: "2020 Gasolina", ModelYear: 2020},
		{Category: models.CategoryCars, BrandID: 59, BrandName: "Volkswagen", ModelID: 5940, ModelName: "Gol", TrimID: "5", TrimName: "2020 Flex", ModelYear: 2020},
		{Category: models.CategoryCars, BrandID: 59, BrandName: "Volkswagen", ModelID: 5940, ModelName: "Gol", TrimID: "1", TrimName: "2021 Gasolina", ModelYear: 2021},
		{Category: models.CategoryCars, BrandID: 59, BrandName: "Volkswagen", ModelID: 5965, ModelName: "Fox", TrimID: "1", TrimName: "2019 Gasolina", ModelYear: 2019},
		{Category: models.CategoryCars, BrandID: 22, BrandName: "Chevrolet", ModelID: 7328, ModelName: "Onix", TrimID: "1", ModelYear: 2020},
		{Category: models.CategoryCars, BrandID: 25, BrandName: "Fiat"},
		{Category: models.CategoryMotorcycles, BrandID: 26, BrandName: "Honda", ModelID: 1446, ModelName: "CG 160", TrimID: "1", ModelYear: 2020},
	}
	for _, r := range rows {
		require.NoError(t, repo.Upsert(ctx, r))
	}

	brands, err := repo.FindBrands(ctx, models.CategoryCars)
	require.NoError(t, err)
	assert.Equal(t, []models.Brand{{ID: 22, Name: "Chevrolet"}, {ID: 25, Name: "Fiat"}, {ID: 59, Name: "Volkswagen"}}, brands)

	vwModels, err := repo.FindModels(ctx, models.CategoryCars, 59)
	require.NoError(t, err)
	assert.Equal(t, []models.Model{{ID: 5965, Name: "Fox"}, {ID: 5940, Name: "Gol"}}, vwModels)

	fiatModels, err := repo.FindModels(ctx, models.CategoryCars, 25)
	require.NoError(t, err)
	assert.Empty(t, fiatModels, "brand-only rows have no resolved model")

	years, err := repo.FindYearsAndTrims(ctx, models.CategoryCars, 59, 5940)
	require.NoError(t, err)
	codes := make([]string, 0, len(years))
	for _, y := range years {
		codes = append(codes, y.Code())
	}
	assert.Equal(t, []string{"2021-1", "2020-5", "2020-1"}, codes, "year desc, then trim name asc")

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), stats.TotalRecords)
	assert.Equal(t, int64(3), stats.Brands[models.CategoryCars])
	assert.Equal(t, int64(3), stats.Models[models.CategoryCars])
	assert.Equal(t, int64(1), stats.Brands[models.CategoryMotorcycles])
}
