// Package storage holds the item record stores used by the API and the batch
// engine: an in-memory store for development and tests, and a Postgres store
// backed by pgx.
package storage

import (
	"context"
	"errors"

	"itemservice/internal/models"
)

// ErrNotFound is returned when no item exists for the requested id.
var ErrNotFound = errors.New("item not found")

// ItemStore is the persistent record store for items. Implementations must be
// safe for concurrent use.
type ItemStore interface {
	// List returns every item ordered by id.
	List(ctx context.Context) ([]models.Item, error)
	// ListIDs returns every item id ordered ascending.
	ListIDs(ctx context.Context) ([]int64, error)
	// Get returns the item with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (models.Item, error)
	// Save inserts the item when its ID is zero and upserts it otherwise. The
	// stored item, with its assigned id, is returned.
	Save(ctx context.Context, item models.Item) (models.Item, error)
	// Delete removes the item. Deleting a missing item is not an error.
	Delete(ctx context.Context, id int64) error
}
