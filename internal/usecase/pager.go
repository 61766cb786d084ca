package usecase

import (
	"context"
	"time"

	"github.com/localrank/backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultPageDelay is the pause between two page fetches of one query
const DefaultPageDelay = time.Second

// PageFunc receives every fetched page, the final empty one included.
// Returning an error stops pagination.
type PageFunc func(page int, places []domain.Place) error

// PagerConfig holds configuration for the pager
type PagerConfig struct {
	PageDelay time.Duration
	MaxPages  int // 0 means no ceiling
	Logger    *zap.Logger
}

// Pager walks the result pages of one query until the provider runs dry
type Pager struct {
	client   domain.PlacesClient
	delay    time.Duration
	maxPages int
	logger   *zap.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPager creates a pager. A negative delay is treated as zero.
func NewPager(client domain.PlacesClient, config PagerConfig) *Pager {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	delay := config.PageDelay
	if delay < 0 {
		delay = 0
	}
	maxPages := config.MaxPages
	if maxPages < 0 {
		maxPages = 0
	}
	return &Pager{
		client:   client,
		delay:    delay,
		maxPages: maxPages,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Paginate fetches pages 1, 2, ... of query and hands each one to fn.
// It stops after the first page with no places, or after MaxPages fetches when
// a ceiling is configured. The delay is applied between fetches, never before
// the first one. It returns the number of fetches made.
//
// A provider error ends pagination and is returned as is. A cancelled ctx
// stops it before the next fetch.
func (p *Pager) Paginate(ctx context.Context, query domain.SearchQuery, fn PageFunc) (int, error) {
	fetched := 0
	for page := 1; ; page++ {
		if p.maxPages > 0 && fetched >= p.maxPages {
			p.logger.Warn("page ceiling reached, results may be incomplete",
				zap.String("query", query.Q),
				zap.Int("max_pages", p.maxPages))
			return fetched, nil
		}

		if fetched > 0 {
			if err := p.sleep(ctx, p.delay); err != nil {
				return fetched, err
			}
		}
		if err := ctx.Err(); err != nil {
			return fetched, err
		}

		query.Page = page
		places, err := p.client.SearchPlaces(ctx, query)
		if err != nil {
			return fetched, err
		}
		fetched++

		if err := fn(page, places); err != nil {
			return fetched, err
		}
		if len(places) == 0 {
			return fetched, nil
		}
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
