package runstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/localrank/backend/internal/domain"
)

// fakeClock lets tests move time forward without sleeping
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 11, 11, 9, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = clock.Now
	return store, clock
}

func TestMemoryStore_SaveAndGet(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	run := &domain.Run{ID: "run-1", FileName: "queries.csv", Status: domain.RunStatusCompleted}
	if err := store.Save(ctx, run, time.Hour); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.FileName != "queries.csv" {
		t.Errorf("FileName = %q, want queries.csv", got.FileName)
	}

	// The store hands out copies
	got.Status = domain.RunStatusFailed
	again, _ := store.Get(ctx, "run-1")
	if again.Status != domain.RunStatusCompleted {
		t.Errorf("Status = %q after mutating a returned copy, want completed", again.Status)
	}
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get() error = %v, want ErrRunNotFound", err)
	}
}

func TestMemoryStore_Expiration(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	store.Save(ctx, &domain.Run{ID: "short"}, time.Minute)
	store.Save(ctx, &domain.Run{ID: "long"}, time.Hour)

	clock.Advance(2 * time.Minute)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get(short) error = %v, want ErrRunNotFound", err)
	}
	if _, err := store.Get(ctx, "long"); err != nil {
		t.Errorf("Get(long) error = %v, want nil", err)
	}

	if store.Size() != 2 {
		t.Errorf("Size() = %d before sweep, want 2", store.Size())
	}
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if store.Size() != 1 {
		t.Errorf("Size() = %d after sweep, want 1", store.Size())
	}
}

func TestMemoryStore_List(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()
	base := clock.Now()

	for i, id := range []string{"a", "b", "c"} {
		store.Save(ctx, &domain.Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Minute)}, time.Hour)
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all newest first", limit: 0, want: []string{"c", "b", "a"}},
		{name: "limited", limit: 2, want: []string{"c", "b"}},
		{name: "limit above size", limit: 10, want: []string{"c", "b", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := store.List(ctx, tt.limit)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(runs) != len(tt.want) {
				t.Fatalf("List() returned %d runs, want %d", len(runs), len(tt.want))
			}
			for i, id := range tt.want {
				if runs[i].ID != id {
					t.Errorf("runs[%d].ID = %s, want %s", i, runs[i].ID, id)
				}
			}
		})
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	store.Save(ctx, &domain.Run{ID: "gone"}, time.Hour)
	store.Delete(ctx, "gone")

	if _, err := store.Get(ctx, "gone"); !errors.Is(err, domain.ErrRunNotFound) {
		t.Errorf("Get() after Delete error = %v, want ErrRunNotFound", err)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i%26))
			store.Save(ctx, &domain.Run{ID: id}, time.Hour)
			store.Get(ctx, id)
			store.List(ctx, 5)
			store.Sweep()
		}(i)
	}
	wg.Wait()
}
