package usecase

import "github.com/localrank/backend/internal/domain"

// Reducer keeps one representative result per (query, brand, branch).
// Results can be fed one at a time while a run is streaming.
type Reducer struct {
	order []domain.ResultKey
	best  map[domain.ResultKey]domain.PlaceResult
}

// NewReducer creates an empty reducer
func NewReducer() *Reducer {
	return &Reducer{best: make(map[domain.ResultKey]domain.PlaceResult)}
}

// Add offers r as the representative of its key.
//
// The first result for a key is kept until a better one arrives: a match
// beats a non-match, and a match with a smaller rank beats another match. A
// sentinel only replaces a representative that is not a match.
func (rd *Reducer) Add(r domain.PlaceResult) {
	key := r.Key()
	current, ok := rd.best[key]
	if !ok {
		rd.order = append(rd.order, key)
		rd.best[key] = r
		return
	}
	if replaces(r, current) {
		rd.best[key] = r
	}
}

// Results returns the representatives in order of first appearance
func (rd *Reducer) Results() []domain.PlaceResult {
	out := make([]domain.PlaceResult, 0, len(rd.order))
	for _, key := range rd.order {
		out = append(out, rd.best[key])
	}
	return out
}

// Len returns the number of distinct keys seen
func (rd *Reducer) Len() int {
	return len(rd.order)
}

// ReduceResults runs a fresh Reducer over results.
func ReduceResults(results []domain.PlaceResult) []domain.PlaceResult {
	rd := NewReducer()
	for _, r := range results {
		rd.Add(r)
	}
	return rd.Results()
}

func replaces(candidate, current domain.PlaceResult) bool {
	if candidate.BrandMatch {
		return !current.BrandMatch || candidate.Rank.Better(current.Rank)
	}
	return candidate.IsSentinel() && !current.BrandMatch
}
