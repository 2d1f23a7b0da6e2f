// Package models defines the server-side domain types: the reference
// hierarchy mirrored from the pricing service, import progress, listings
// and refresh tokens.
package models

import "github.com/dmitrijs2005/vehiclefeed/internal/common"

// Category is a vehicle class as named by the reference service paths.
type Category string

const (
	CategoryCars        Category = "carros"
	CategoryMotorcycles Category = "motos"
)

// Categories lists every supported category.
var Categories = []Category{CategoryCars, CategoryMotorcycles}

// ParseCategory validates s.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryCars, CategoryMotorcycles:
		return c, nil
	default:
		return "", common.ErrInvalidCategory
	}
}

func (c Category) String() string { return string(c) }
