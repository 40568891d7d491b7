package stub

import (
	"context"
	"sync"

	"ecommerce-price-tracker/internal/catalog"
	"ecommerce-price-tracker/internal/domain"
)

// Fetcher implements catalog.Fetcher for testing and offline runs.
type Fetcher struct {
	mu       sync.Mutex
	Products []domain.ProductDescriptor
	Err      error // returned instead of Products when set
	calls    int
}

// NewFetcher creates a stub fetcher returning products.
func NewFetcher(products ...domain.ProductDescriptor) *Fetcher {
	return &Fetcher{Products: products}
}

// FetchAll returns a copy of the configured products or Err.
func (f *Fetcher) FetchAll(_ context.Context) ([]domain.ProductDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]domain.ProductDescriptor, len(f.Products))
	copy(out, f.Products)
	return out, nil
}

// Calls returns how many times FetchAll ran.
func (f *Fetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// SampleCatalog returns a small fixed catalog in the shape of the public
// fake store feed.
func SampleCatalog() []domain.ProductDescriptor {
	return []domain.ProductDescriptor{
		{ExternalID: 1, Title: "Fjallraven - Foldsack No. 1 Backpack", Description: "Your perfect pack for everyday use", BasePrice: 109.95, Rating: 3.9},
		{ExternalID: 2, Title: "Mens Casual Premium Slim Fit T-Shirts", Description: "Slim-fitting style", BasePrice: 22.3, Rating: 4.1},
		{ExternalID: 3, Title: "Mens Cotton Jacket", Description: "Great outerwear jackets", BasePrice: 55.99, Rating: 4.7},
		{ExternalID: 4, Title: "Mens Casual Slim Fit", Description: "The color could be slightly different", BasePrice: 15.99, Rating: 2.1},
		{ExternalID: 5, Title: "Solid Gold Petite Micropave", Description: "Satisfaction guaranteed", BasePrice: 168, Rating: 3.9},
	}
}

// Compile-time interface check.
var _ catalog.Fetcher = (*Fetcher)(nil)
