package usecase

import (
	"context"
	"math"
	"time"

	"github.com/localrank/backend/internal/domain"
	"go.uber.org/zap"
)

// RunContext is the mutable state of a single run.
// It is owned by the goroutine executing the run and never shared.
type RunContext struct {
	ID        string
	Locale    domain.Locale
	Total     int
	Stats     domain.ProcessingStats
	Results   []domain.PlaceResult
	StartedAt time.Time

	now    func() time.Time
	onPage func() error
}

// NewRunContext starts the clock for a run over total rows.
func NewRunContext(id string, locale domain.Locale, total int, now func() time.Time) *RunContext {
	if now == nil {
		now = time.Now
	}
	return &RunContext{
		ID:        id,
		Locale:    locale.WithDefaults(),
		Total:     total,
		StartedAt: now(),
		now:       now,
	}
}

// Elapsed returns the wall time since the run started
func (rc *RunContext) Elapsed() time.Duration {
	return rc.now().Sub(rc.StartedAt)
}

// refreshRates recomputes throughput and the remaining-time estimate
func (rc *RunContext) refreshRates() {
	qps := 0.0
	if elapsed := rc.Elapsed().Seconds(); elapsed > 0 {
		qps = float64(rc.Stats.QueriesProcessed) / elapsed
	}
	rc.Stats.QueriesPerSecond = qps

	rc.Stats.EstimatedTimeRemainingSeconds = 0
	if qps > 0 {
		remaining := float64(rc.Total-rc.Stats.QueriesProcessed) / qps
		rc.Stats.EstimatedTimeRemainingSeconds = int(math.Round(remaining))
	}
}

// Progress snapshots the stats as a progress payload
func (rc *RunContext) Progress() domain.Progress {
	percent := 0
	if rc.Total > 0 {
		percent = rc.Stats.QueriesProcessed * 100 / rc.Total
	}
	return domain.Progress{
		Percent:                percent,
		CurrentQuery:           rc.Stats.CurrentQuery,
		TotalQueries:           rc.Total,
		ProcessedQueries:       rc.Stats.QueriesProcessed,
		QueriesPerSecond:       rc.Stats.QueriesPerSecond,
		EstimatedTimeRemaining: rc.Stats.EstimatedTimeRemainingSeconds,
		APICallsMade:           rc.Stats.APICallsMade,
		CurrentPage:            rc.Stats.CurrentPage,
	}
}

// Result builds the completion payload from the current state
func (rc *RunContext) Result() *domain.RunResult {
	matches := make([]domain.PlaceResult, 0)
	for _, r := range rc.Results {
		if r.BrandMatch {
			matches = append(matches, r)
		}
	}
	all := rc.Results
	if all == nil {
		all = []domain.PlaceResult{}
	}
	return &domain.RunResult{
		AllPlaces:    all,
		BrandMatches: matches,
		Stats: domain.RunStats{
			QueriesProcessed:      rc.Stats.QueriesProcessed,
			PlacesFound:           rc.Stats.PlacesFound,
			APICallsMade:          rc.Stats.APICallsMade,
			ProcessingTimeSeconds: rc.Elapsed().Seconds(),
		},
	}
}

// QueryOutcome summarizes one processed row
type QueryOutcome struct {
	Pages   int
	Items   int
	Matched bool
}

// QueryProcessor runs one input row through the pager and the matcher
type QueryProcessor struct {
	pager   *Pager
	matcher *Matcher
	logger  *zap.Logger
}

// NewQueryProcessor creates a query processor
func NewQueryProcessor(pager *Pager, matcher *Matcher, logger *zap.Logger) *QueryProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryProcessor{pager: pager, matcher: matcher, logger: logger}
}

// Process pages through the results for row and appends them to run.Results.
//
// Every item gets the next rank of the query, counting across pages from 1.
// When no item matched, a single sentinel row is appended instead. Stats are
// updated after every fetch.
func (p *QueryProcessor) Process(ctx context.Context, run *RunContext, row domain.QueryRow) (QueryOutcome, error) {
	brand := NormalizeBrand(row.Brand)
	branch := NormalizeBranch(row.Branch)

	var outcome QueryOutcome
	rank := 0

	query := domain.SearchQuery{Q: row.Keyword, GL: run.Locale.GL, HL: run.Locale.HL}
	pages, err := p.pager.Paginate(ctx, query, func(page int, places []domain.Place) error {
		run.Stats.APICallsMade++
		run.Stats.CurrentPage = page

		for _, place := range places {
			rank++
			matched := p.matcher.match(NormalizeTitle(place.Title()), brand, branch)
			if matched {
				outcome.Matched = true
			}
			run.Results = append(run.Results, domain.PlaceResult{
				Place:      place,
				Query:      row.Keyword,
				Brand:      row.Brand,
				Branch:     row.Branch,
				Rank:       domain.RankOf(rank),
				BrandMatch: matched,
			})
		}
		outcome.Items += len(places)
		run.Stats.PlacesFound += len(places)

		run.refreshRates()
		if run.onPage != nil {
			return run.onPage()
		}
		return nil
	})
	outcome.Pages = pages
	if err != nil {
		return outcome, err
	}

	if !outcome.Matched {
		run.Results = append(run.Results, domain.NewSentinel(row))
	}

	p.logger.Debug("query processed",
		zap.String("run_id", run.ID),
		zap.String("query", row.Keyword),
		zap.Int("pages", outcome.Pages),
		zap.Int("items", outcome.Items),
		zap.Bool("matched", outcome.Matched))
	return outcome, nil
}
