package serper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/localrank/backend/internal/domain"
	"github.com/localrank/backend/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

const placesPath = "/places"

// ClientOptions tunes the transport of a Client
type ClientOptions struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables the limiter
	Burst     int
	Logger    *zap.Logger
}

// Client handles communication with the Serper places API
type Client struct {
	httpClient  *resty.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
}

// NewClient creates a new places API client
func NewClient(apiKey, baseURL string, opts ClientOptions) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// The page delay already paces a run; this limiter caps the whole process
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	// Retries stay off: a failed call aborts the run
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "LocalRank/1.0").
		SetLogger(logger.Sugar())

	return &Client{
		httpClient:  httpClient,
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      logger.Named("serper"),
	}
}

// SetDebug toggles request/response dumps
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
	c.httpClient.SetDebug(debug)
}

// SearchPlaces fetches one page of places for the query
func (c *Client) SearchPlaces(ctx context.Context, query domain.SearchQuery) ([]domain.Place, error) {
	places, err := c.searchPlaces(ctx, query)
	if ctx.Err() == nil {
		metrics.ObserveProvider(err)
	}
	return places, err
}

func (c *Client) searchPlaces(ctx context.Context, query domain.SearchQuery) ([]domain.Place, error) {
	if c.apiKey == "" {
		return nil, domain.ProviderError(domain.ErrMissingCredential)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	if c.debug {
		c.logger.Debug("searching places",
			zap.String("q", query.Q),
			zap.String("gl", query.GL),
			zap.String("hl", query.HL),
			zap.Int("page", query.Page))
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("X-API-KEY", c.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(query).
		Post(c.baseURL + placesPath)
	if err != nil {
		// A cancelled consumer is not a provider failure
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Warn("places request failed", zap.String("q", query.Q), zap.Int("page", query.Page), zap.Error(err))
		return nil, domain.ProviderError(fmt.Errorf("places request failed: %w", err))
	}

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.logger.Warn("places API error",
			zap.Int("status", status),
			zap.String("q", query.Q),
			zap.Int("page", query.Page),
			zap.ByteString("body", truncate(resp.Bytes(), 512)))
		return nil, domain.ProviderError(fmt.Errorf("Serper API error: %d %s", status, http.StatusText(status)))
	}

	places, err := decodePlaces(resp.Bytes())
	if err != nil {
		return nil, domain.ProviderError(err)
	}

	if c.debug {
		c.logger.Debug("places page received", zap.String("q", query.Q), zap.Int("page", query.Page), zap.Int("count", len(places)))
	}
	return places, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
