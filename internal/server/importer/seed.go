package importer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vehiclefeed/internal/dbx"
	"github.com/dmitrijs2005/vehiclefeed/internal/server/models"
)

type seedRow struct {
	category  models.Category
	brandID   int
	brandName string
	modelID   int
	modelName string
	yearCode  string
	trimName  string
	fuel      string
	engine    string
	body      string
}

// basicDataset is a small, well known slice of the hierarchy that lets the
// back office work before a full import has run.
var basicDataset = []seedRow{
	{models.CategoryCars, 59, "Volkswagen", 5940, "Gol", "2020-1", "Gol 1.0", "Flex", "1.0", "Hatch"},
	{models.CategoryCars, 59, "Volkswagen", 5965, "Fox", "2019-1", "Fox 1.0", "Flex", "1.0", "Hatch"},
	{models.CategoryCars, 22, "Chevrolet", 7328, "Onix", "2020-1", "Onix 1.0", "Flex", "1.0", "Hatch"},
	{models.CategoryCars, 26, "Ford", 5035, "Ka", "2020-1", "Ka 1.0", "Flex", "1.0", "Hatch"},
	{models.CategoryCars, 25, "Fiat", 4828, "Argo", "2020-1", "Argo 1.0", "Flex", "1.0", "Hatch"},
	{models.CategoryMotorcycles, 26, "Honda", 1446, "CG 160", "2020-1", "CG 160 Titan", "Gasolina", "160cc", "Street"},
	{models.CategoryMotorcycles, 26, "Honda", 1483, "CB 600F", "2020-1", "CB 600F Hornet", "Gasolina", "600cc", "Naked"},
	{models.CategoryMotorcycles, 52, "Yamaha", 2467, "Factor 125", "2020-1", "Factor 125i", "Gasolina", "125cc", "Street"},
	{models.CategoryMotorcycles, 46, "Suzuki", 2100, "GSX-R 1000", "2020-1", "GSX-R 1000", "Gasolina", "1000cc", "Esportiva"},
}

// Seed upserts the basic dataset in one transaction through the same write
// path as a full import and returns the number of rows written.
func (im *Importer) Seed(ctx context.Context) (int, error) {
	written := 0
	err := dbx.WithTx(ctx, im.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := im.rm.References(tx)
		for _, s := range basicDataset {
			year, trimID := models.ParseYearCode(s.yearCode, im.opts.DefaultYear)
			rec := &models.ReferenceRecord{
				Category:     s.category,
				BrandID:      s.brandID,
				BrandName:    s.brandName,
				ModelID:      s.modelID,
				ModelName:    s.modelName,
				TrimID:       trimID,
				TrimName:     s.trimName,
				ModelYear:    year,
				FuelType:     &s.fuel,
				EngineSpec:   &s.engine,
				BodyCategory: &s.body,
			}
			if s.category == models.CategoryMotorcycles {
				rec.Displacement = &s.engine
			}
			if err := repo.Upsert(ctx, rec); err != nil {
				return fmt.Errorf("seed %s/%s: %w", s.brandName, s.modelName, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		im.logger.Error(ctx, "seed failed", "error", err)
		return 0, err
	}

	im.logger.Info(ctx, "seed completed", "rows", written)
	return written, nil
}
