package catalog

import (
	"context"
	"fmt"

	"ecommerce-price-tracker/internal/domain"
)

// Fetcher returns the current product catalog.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.ProductDescriptor, error)
}

// UpstreamFetchError reports a failed catalog fetch.
// StatusCode is zero when no HTTP response was received.
type UpstreamFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch catalog %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch catalog %s: %v", e.URL, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}
