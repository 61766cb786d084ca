package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/localrank/backend/internal/domain"
)

// MockPlacesClient is a mock implementation of domain.PlacesClient.
// Pages are served per keyword; pages past the end are empty.
type MockPlacesClient struct {
	mu        sync.Mutex
	pages     map[string][][]domain.Place
	err       error
	errOnCall int // 1-based call that fails, 0 = never
	calls     []domain.SearchQuery
	onCall    func(n int)
}

func NewMockPlacesClient() *MockPlacesClient {
	return &MockPlacesClient{pages: make(map[string][][]domain.Place)}
}

func (m *MockPlacesClient) SearchPlaces(ctx context.Context, query domain.SearchQuery) ([]domain.Place, error) {
	m.mu.Lock()
	m.calls = append(m.calls, query)
	n := len(m.calls)
	hook := m.onCall
	m.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if m.errOnCall > 0 && n == m.errOnCall {
		return nil, m.err
	}

	pages := m.pages[query.Q]
	if query.Page-1 < len(pages) {
		return pages[query.Page-1], nil
	}
	return []domain.Place{}, nil
}

func (m *MockPlacesClient) Calls() []domain.SearchQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SearchQuery(nil), m.calls...)
}

// MockRunRepository is a mock implementation of domain.RunRepository
type MockRunRepository struct {
	mu      sync.Mutex
	data    map[string]domain.Run
	saveErr error
	saves   int
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{data: make(map[string]domain.Run)}
}

func (m *MockRunRepository) Save(ctx context.Context, run *domain.Run, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[run.ID] = *run
	return nil
}

func (m *MockRunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.data[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return &run, nil
}

func (m *MockRunRepository) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var runs []*domain.Run
	for _, r := range m.data {
		run := r
		runs = append(runs, &run)
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (m *MockRunRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

// titled builds provider records that only carry a title
func titled(titles ...string) []domain.Place {
	places := make([]domain.Place, 0, len(titles))
	for _, title := range titles {
		raw, _ := json.Marshal(title)
		places = append(places, domain.NewPlace(domain.Field{Key: "title", Value: raw}))
	}
	return places
}

// newTestOrchestrator wires the pipeline around client without page delays
func newTestOrchestrator(client domain.PlacesClient) *Orchestrator {
	pager := NewPager(client, PagerConfig{})
	processor := NewQueryProcessor(pager, NewMatcher(MatchConfig{}), nil)
	return NewOrchestrator(processor, nil)
}
