package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"itemservice/internal/models"
)

// MemoryStore is an ItemStore kept in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]models.Item
	nextID int64
}

// NewMemoryStore returns an empty MemoryStore, optionally seeded with items.
// Seeded items keep their ids.
func NewMemoryStore(seed ...models.Item) *MemoryStore {
	s := &MemoryStore{items: make(map[int64]models.Item)}
	for _, item := range seed {
		s.items[item.ID] = item
		if item.ID > s.nextID {
			s.nextID = item.ID
		}
	}
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]models.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]models.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	slices.SortFunc(items, func(a, b models.Item) int { return cmp.Compare(a.ID, b.ID) })
	return items, nil
}

func (s *MemoryStore) ListIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (models.Item, error) {
	if err := ctx.Err(); err != nil {
		return models.Item{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return models.Item{}, ErrNotFound
	}
	return item, nil
}

func (s *MemoryStore) Save(ctx context.Context, item models.Item) (models.Item, error) {
	if err := ctx.Err(); err != nil {
		return models.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == 0 {
		s.nextID++
		item.ID = s.nextID
	} else if item.ID > s.nextID {
		s.nextID = item.ID
	}
	s.items[item.ID] = item
	return item, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}
