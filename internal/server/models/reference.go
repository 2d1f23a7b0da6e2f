package models

import (
	"strconv"
	"time"
)

// Brand is a manufacturer within a category.
type Brand struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Model is a vehicle model of a brand.
type Model struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// YearOption is one entry of the year list: Code is the composite
// "{year}-{trimId}" lookup code, Name its human label ("2020 Gasolina").
type YearOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// YearTrim is a distinct (year, trim) pair found in the mirror.
type YearTrim struct {
	Year     int
	TrimID   string
	TrimName string
}

// Code returns the composite lookup code of the pair.
func (y YearTrim) Code() string { return FormatYearCode(y.Year, y.TrimID) }

// Option converts the pair to the shape returned by the reference service.
func (y YearTrim) Option() YearOption {
	name := y.TrimName
	if name == "" {
		name = strconv.Itoa(y.Year)
	}
	return YearOption{Code: y.Code(), Name: name}
}

// ReferenceRecord is one row of the mirror: a flattened node of the
// brand/model/year/trim hierarchy. Zero ids, an empty TrimID and a zero
// ModelYear mean "not resolved yet". Detail fields are nil until known.
type ReferenceRecord struct {
	ID             int64
	Category       Category
	BrandID        int
	BrandName      string
	ModelID        int
	ModelName      string
	TrimID         string
	TrimName       string
	ModelYear      int
	FuelType       *string
	EngineSpec     *string
	DoorCount      *int
	BodyCategory   *string
	Displacement   *string
	ReferenceCode  *string
	ReferencePrice *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasDetail reports whether any detail field is filled in.
func (r *ReferenceRecord) HasDetail() bool {
	return r.FuelType != nil || r.EngineSpec != nil || r.DoorCount != nil ||
		r.BodyCategory != nil || r.Displacement != nil
}

// ReferenceDetail is the trim detail document of the reference service.
type ReferenceDetail struct {
	VehicleType    int    `json:"TipoVeiculo"`
	Price          string `json:"Valor"`
	Brand          string `json:"Marca"`
	Model          string `json:"Modelo"`
	ModelYear      int    `json:"AnoModelo"`
	Fuel           string `json:"Combustivel"`
	ReferenceCode  string `json:"CodigoFipe"`
	ReferenceMonth string `json:"MesReferencia"`
	FuelAcronym    string `json:"SiglaCombustivel"`
}

// IsZero reports whether d carries no data.
func (d ReferenceDetail) IsZero() bool { return d == ReferenceDetail{} }

// VehicleTypeLabel names the reference service vehicle type code.
func VehicleTypeLabel(t int) string {
	switch t {
	case 1:
		return "car"
	case 2:
		return "motorcycle"
	case 3:
		return "truck"
	default:
		return ""
	}
}

// TrimDetail is the normalized trim detail returned to callers regardless of
// whether it came from the mirror or the reference service. Nil fields are
// unknown.
type TrimDetail struct {
	Category       Category `json:"category"`
	BrandID        int      `json:"brand_id"`
	BrandName      string   `json:"brand_name,omitempty"`
	ModelID        int      `json:"model_id"`
	ModelName      string   `json:"model_name,omitempty"`
	Year           int      `json:"year"`
	TrimID         string   `json:"trim_id,omitempty"`
	TrimName       string   `json:"trim_name,omitempty"`
	FuelType       *string  `json:"fuel_type"`
	EngineSpec     *string  `json:"engine_spec"`
	DoorCount      *int     `json:"door_count"`
	BodyCategory   *string  `json:"body_category"`
	Displacement   *string  `json:"displacement"`
	ReferenceCode  *string  `json:"reference_code,omitempty"`
	ReferencePrice *string  `json:"reference_price,omitempty"`
}

// TrimDetailFromRecord copies a mirror row, nulls preserved.
func TrimDetailFromRecord(r *ReferenceRecord) TrimDetail {
	return TrimDetail{
		Category:       r.Category,
		BrandID:        r.BrandID,
		BrandName:      r.BrandName,
		ModelID:        r.ModelID,
		ModelName:      r.ModelName,
		Year:           r.ModelYear,
		TrimID:         r.TrimID,
		TrimName:       r.TrimName,
		FuelType:       r.FuelType,
		EngineSpec:     r.EngineSpec,
		DoorCount:      r.DoorCount,
		BodyCategory:   r.BodyCategory,
		Displacement:   r.Displacement,
		ReferenceCode:  r.ReferenceCode,
		ReferencePrice: r.ReferencePrice,
	}
}

// RecordFromDetail builds the mirror row for a trim whose detail document
// was fetched from the reference service. Empty strings stay nil so an
// upsert never blanks a known value.
func RecordFromDetail(category Category, brand Brand, model Model, year YearOption, d ReferenceDetail, defaultYear int) *ReferenceRecord {
	modelYear, trimID := ParseYearCode(year.Code, defaultYear)
	if d.ModelYear != 0 && trimID == "" {
		modelYear = d.ModelYear
	}

	brandName := brand.Name
	if brandName == "" {
		brandName = d.Brand
	}
	modelName := model.Name
	if modelName == "" {
		modelName = d.Model
	}

	return &ReferenceRecord{
		Category:       category,
		BrandID:        brand.ID,
		BrandName:      brandName,
		ModelID:        model.ID,
		ModelName:      modelName,
		TrimID:         trimID,
		TrimName:       year.Name,
		ModelYear:      modelYear,
		FuelType:       nonEmpty(d.Fuel),
		EngineSpec:     nonEmpty(d.FuelAcronym),
		BodyCategory:   nonEmpty(VehicleTypeLabel(d.VehicleType)),
		ReferenceCode:  nonEmpty(d.ReferenceCode),
		ReferencePrice: nonEmpty(d.Price),
	}
}

// TrimDetailFromReference normalizes a reference document, tagged with the
// year and trim parsed from the lookup code.
func TrimDetailFromReference(category Category, brandID, modelID, year int, trimID string, d ReferenceDetail) TrimDetail {
	return TrimDetail{
		Category:       category,
		BrandID:        brandID,
		BrandName:      d.Brand,
		ModelID:        modelID,
		ModelName:      d.Model,
		Year:           year,
		TrimID:         trimID,
		TrimName:       d.Model,
		FuelType:       nonEmpty(d.Fuel),
		EngineSpec:     nonEmpty(d.FuelAcronym),
		BodyCategory:   nonEmpty(VehicleTypeLabel(d.VehicleType)),
		ReferenceCode:  nonEmpty(d.ReferenceCode),
		ReferencePrice: nonEmpty(d.Price),
	}
}

// CacheStats summarizes the mirror contents.
type CacheStats struct {
	TotalRecords int64              `json:"total_records"`
	Brands       map[Category]int64 `json:"brands"`
	Models       map[Category]int64 `json:"models"`
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
