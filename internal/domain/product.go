package domain

import (
	"fmt"
	"math"
	"time"
)

// Product is a catalog item tracked by the system.
// BasePrice is fixed at creation; later catalog fetches do not update it.
type Product struct {
	ID          int64
	ExternalID  int64 // stable key from the upstream catalog
	Title       string
	Description string
	BasePrice   float64
	Rating      float64
	CreatedAt   time.Time
}

// ProductDescriptor is one item returned by the catalog feed.
type ProductDescriptor struct {
	ExternalID  int64
	Title       string
	Description string
	BasePrice   float64
	Rating      float64
}

// Validate checks that the item can become a Product. Returns
// *ConfigurationError for a missing external id or a base price that is not
// a positive finite number.
func (d ProductDescriptor) Validate() error {
	if d.ExternalID == 0 {
		return &ConfigurationError{Field: "external_id", Reason: "must be set"}
	}
	if !(d.BasePrice > 0) || math.IsInf(d.BasePrice, 1) {
		return &ConfigurationError{
			Field:  "base_price",
			Reason: fmt.Sprintf("must be > 0 for external_id %d, got %v", d.ExternalID, d.BasePrice),
		}
	}
	return nil
}

// NewProduct builds a Product from a catalog descriptor.
func NewProduct(d ProductDescriptor) *Product {
	return &Product{
		ExternalID:  d.ExternalID,
		Title:       d.Title,
		Description: d.Description,
		BasePrice:   d.BasePrice,
		Rating:      d.Rating,
	}
}
