package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"itemservice/internal/models"
	"itemservice/internal/storage"
)

var errDiskFull = errors.New("disk full")

// fakeStore wraps a MemoryStore and injects failures for selected ids.
type fakeStore struct {
	*storage.MemoryStore

	mu        sync.Mutex
	failSave  map[int64]bool
	listErr   error
	saveCalls int
}

func newFakeStore(ids ...int64) *fakeStore {
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, models.Item{ID: id, Name: "item", Status: "NEW", Email: "a@domain.com"})
	}
	return &fakeStore{MemoryStore: storage.NewMemoryStore(items...), failSave: map[int64]bool{}}
}

func (s *fakeStore) Save(ctx context.Context, item models.Item) (models.Item, error) {
	s.mu.Lock()
	s.saveCalls++
	fail := s.failSave[item.ID]
	s.mu.Unlock()
	if fail {
		return models.Item{}, errDiskFull
	}
	return s.MemoryStore.Save(ctx, item)
}

func (s *fakeStore) ListIDs(ctx context.Context) ([]int64, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.ListIDs(ctx)
}

func (s *fakeStore) saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}

// newTestPool starts a pool that is shut down when the test ends.
func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	p := NewPool(size, 0, zerolog.Nop())
	p.Start()
	t.Cleanup(func() {
		require.NoError(t, p.Shutdown(context.Background()))
	})
	return p
}

func seq(from, to int64) []int64 {
	ids := make([]int64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return ids
}

// outcomeIDs returns the id of every outcome, failing on duplicates.
func outcomeIDs(t *testing.T, outcomes []Outcome) map[int64]Outcome {
	t.Helper()
	byID := make(map[int64]Outcome, len(outcomes))
	for _, o := range outcomes {
		_, dup := byID[o.ID]
		require.False(t, dup, "duplicate outcome for id %d", o.ID)
		byID[o.ID] = o
	}
	return byID
}
