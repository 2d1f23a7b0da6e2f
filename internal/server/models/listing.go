package models

import (
	"encoding/xml"
	"time"
)

// Listing is a published vehicle offer. Taxonomy fields are denormalized
// copies taken from the reference hierarchy when the listing is saved.
type Listing struct {
	ID              int64     `json:"id" xml:"id"`
	Category        Category  `json:"category" xml:"category"`
	BrandID         int       `json:"brand_id" xml:"brand_id"`
	BrandName       string    `json:"brand_name" xml:"brand_name"`
	ModelID         int       `json:"model_id" xml:"model_id"`
	ModelName       string    `json:"model_name" xml:"model_name"`
	TrimID          string    `json:"trim_id" xml:"trim_id"`
	TrimName        string    `json:"trim_name" xml:"trim_name"`
	ModelYear       int       `json:"model_year" xml:"model_year"`
	ManufactureYear int       `json:"manufacture_year" xml:"manufacture_year"`
	Mileage         int       `json:"mileage" xml:"mileage"`
	Color           string    `json:"color" xml:"color"`
	FuelType        string    `json:"fuel_type" xml:"fuel_type"`
	Transmission    string    `json:"transmission" xml:"transmission"`
	Engine          string    `json:"engine" xml:"engine"`
	Doors           *int      `json:"doors" xml:"doors,omitempty"`
	BodyCategory    string    `json:"body_category" xml:"body_category"`
	Displacement    string    `json:"displacement,omitempty" xml:"displacement,omitempty"`
	Price           float64   `json:"price" xml:"price"`
	Photos          []string  `json:"photos" xml:"photos>photo"`
	Active          bool      `json:"active" xml:"active"`
	CreatedAt       time.Time `json:"created_at" xml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" xml:"updated_at"`
}

// Feed is the public listing feed served as JSON and XML.
type Feed struct {
	XMLName   xml.Name  `json:"-" xml:"feed"`
	Vehicles  []Listing `json:"vehicles" xml:"vehicles>vehicle"`
	Total     int       `json:"total" xml:"total"`
	Timestamp time.Time `json:"timestamp" xml:"timestamp"`
}
