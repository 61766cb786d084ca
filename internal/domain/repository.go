package domain

import (
	"context"
	"time"
)

// PlacesClient defines the interface for the external local-search API
type PlacesClient interface {
	// SearchPlaces fetches one page of results. An empty slice means the
	// provider has nothing more for the query.
	SearchPlaces(ctx context.Context, query SearchQuery) ([]Place, error)
}

// RunRepository keeps finished runs around for history and downloads
type RunRepository interface {
	Save(ctx context.Context, run *Run, ttl time.Duration) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, limit int) ([]*Run, error)
	Delete(ctx context.Context, id string) error
}
