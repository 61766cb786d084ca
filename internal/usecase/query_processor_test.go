package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/localrank/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor(client domain.PlacesClient) *QueryProcessor {
	return NewQueryProcessor(NewPager(client, PagerConfig{}), NewMatcher(MatchConfig{}), nil)
}

func TestProcess_RanksAcrossPages(t *testing.T) {
	client := NewMockPlacesClient()
	client.pages["dentists in leeds"] = [][]domain.Place{
		titled("Smile Clinic", "Leeds Dental"),
		titled("Tooth Co", "Dentist One", "Dentist Two"),
	}
	processor := newTestProcessor(client)
	row := domain.QueryRow{Keyword: "dentists in leeds", Brand: "Bright Smile", Branch: "Leeds"}
	run := NewRunContext("run-1", domain.Locale{}, 1, nil)

	outcome, err := processor.Process(context.Background(), run, row)

	require.NoError(t, err)
	assert.Equal(t, QueryOutcome{Pages: 3, Items: 5, Matched: false}, outcome)
	assert.Len(t, client.Calls(), 3)

	require.Len(t, run.Results, 6)
	for i, r := range run.Results[:5] {
		pos, ok := r.Rank.Position()
		assert.True(t, ok)
		assert.Equal(t, i+1, pos)
		assert.False(t, r.BrandMatch)
		assert.Equal(t, "dentists in leeds", r.Query)
	}

	sentinel := run.Results[5]
	assert.True(t, sentinel.IsSentinel())
	assert.False(t, sentinel.BrandMatch)
	assert.Zero(t, sentinel.Place.Len())
	assert.Equal(t, row.Brand, sentinel.Brand)
	assert.Equal(t, row.Branch, sentinel.Branch)

	assert.Equal(t, 3, run.Stats.APICallsMade)
	assert.Equal(t, 5, run.Stats.PlacesFound)
	assert.Equal(t, 3, run.Stats.CurrentPage)
}

func TestProcess_EmptyFirstPage(t *testing.T) {
	client := NewMockPlacesClient()
	processor := newTestProcessor(client)
	run := NewRunContext("run-1", domain.Locale{}, 1, nil)

	outcome, err := processor.Process(context.Background(), run, domain.QueryRow{Keyword: "nothing here", Brand: "B", Branch: "C"})

	require.NoError(t, err)
	assert.Equal(t, QueryOutcome{Pages: 1}, outcome)
	assert.Len(t, client.Calls(), 1)
	require.Len(t, run.Results, 1)
	assert.True(t, run.Results[0].IsSentinel())
}

func TestProcess_MatchSuppressesSentinel(t *testing.T) {
	client := NewMockPlacesClient()
	client.pages["bakers in york"] = [][]domain.Place{
		titled("Other Bakery", "Bready Steady York"),
		titled("Bready Steady York Station"),
	}
	processor := newTestProcessor(client)
	run := NewRunContext("run-1", domain.Locale{GL: "us", HL: "fr"}, 1, nil)

	outcome, err := processor.Process(context.Background(), run, domain.QueryRow{Keyword: "bakers in york", Brand: "Bready Steady", Branch: "York"})

	require.NoError(t, err)
	assert.True(t, outcome.Matched)
	require.Len(t, run.Results, 3)
	assert.False(t, run.Results[0].BrandMatch)
	assert.True(t, run.Results[1].BrandMatch)
	assert.Equal(t, domain.RankOf(2), run.Results[1].Rank)
	assert.True(t, run.Results[2].BrandMatch)
	assert.Equal(t, domain.RankOf(3), run.Results[2].Rank)
	for _, r := range run.Results {
		assert.False(t, r.IsSentinel())
	}

	calls := client.Calls()
	assert.Equal(t, "us", calls[0].GL)
	assert.Equal(t, "fr", calls[0].HL)
}

func TestProcess_PageHookSeesFreshStats(t *testing.T) {
	client := NewMockPlacesClient()
	client.pages["q"] = [][]domain.Place{titled("a")}
	processor := newTestProcessor(client)
	run := NewRunContext("run-1", domain.Locale{}, 1, nil)

	var snapshots []domain.Progress
	run.onPage = func() error {
		snapshots = append(snapshots, run.Progress())
		return nil
	}

	_, err := processor.Process(context.Background(), run, domain.QueryRow{Keyword: "q", Brand: "b", Branch: "c"})

	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 1, snapshots[0].APICallsMade)
	assert.Equal(t, 1, snapshots[0].CurrentPage)
	assert.Equal(t, 2, snapshots[1].APICallsMade)
	assert.Equal(t, 2, snapshots[1].CurrentPage)
}

func TestRunContext_Rates(t *testing.T) {
	start := time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)
	now := start
	run := NewRunContext("run-1", domain.Locale{}, 4, func() time.Time { return now })

	t.Run("nothing processed yet", func(t *testing.T) {
		run.refreshRates()
		assert.Zero(t, run.Stats.QueriesPerSecond)
		assert.Zero(t, run.Stats.EstimatedTimeRemainingSeconds)
		assert.Zero(t, run.Progress().Percent)
	})

	t.Run("half way", func(t *testing.T) {
		now = start.Add(4 * time.Second)
		run.Stats.QueriesProcessed = 2
		run.refreshRates()

		assert.InDelta(t, 0.5, run.Stats.QueriesPerSecond, 1e-9)
		assert.Equal(t, 4, run.Stats.EstimatedTimeRemainingSeconds)

		p := run.Progress()
		assert.Equal(t, 50, p.Percent)
		assert.Equal(t, 4, p.TotalQueries)
		assert.Equal(t, 2, p.ProcessedQueries)
	})

	t.Run("finished", func(t *testing.T) {
		now = start.Add(8 * time.Second)
		run.Stats.QueriesProcessed = 4
		run.refreshRates()

		assert.Zero(t, run.Stats.EstimatedTimeRemainingSeconds)
		assert.Equal(t, 100, run.Progress().Percent)
		assert.InDelta(t, 8.0, run.Result().Stats.ProcessingTimeSeconds, 1e-9)
	})
}

func TestRunContext_Result(t *testing.T) {
	run := NewRunContext("run-1", domain.Locale{}, 0, nil)

	result := run.Result()
	assert.NotNil(t, result.AllPlaces)
	assert.NotNil(t, result.BrandMatches)

	run.Results = []domain.PlaceResult{
		{Query: "q", Rank: domain.RankOf(1), BrandMatch: true},
		{Query: "q", Rank: domain.RankOf(2)},
		domain.NewSentinel(domain.QueryRow{Keyword: "r", Brand: "b", Branch: "c"}),
	}
	result = run.Result()
	assert.Len(t, result.AllPlaces, 3)
	require.Len(t, result.BrandMatches, 1)
	assert.Equal(t, domain.RankOf(1), result.BrandMatches[0].Rank)
}
