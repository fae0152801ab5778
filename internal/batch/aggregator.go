package batch

import (
	"fmt"
	"sync"
)

// Aggregator collects the Outcome of every id in a batch. It is safe for
// concurrent use by any number of workers.
type Aggregator struct {
	mu       sync.Mutex
	ids      []int64
	expected map[int64]struct{}
	outcomes map[int64]Outcome
	sealed   bool
}

// NewAggregator returns an Aggregator expecting one Outcome for each of ids.
// ids must not contain duplicates.
func NewAggregator(ids []int64) *Aggregator {
	expected := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		expected[id] = struct{}{}
	}
	return &Aggregator{
		ids:      ids,
		expected: expected,
		outcomes: make(map[int64]Outcome, len(ids)),
	}
}

// Record stores the outcome for id. The first outcome recorded for an id wins;
// it returns false when the outcome was rejected because the id already has
// one, is not part of the batch, or the aggregator has been sealed.
func (a *Aggregator) Record(id int64, outcome Outcome) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed {
		return false
	}
	if _, exists := a.outcomes[id]; exists {
		return false
	}
	if _, ok := a.expected[id]; !ok {
		return false
	}
	a.outcomes[id] = outcome
	return true
}

// Len returns the number of recorded outcomes.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.outcomes)
}

// Seal rejects every later Record call and fills each id still missing an
// outcome with fill(id). It returns how many ids were filled.
func (a *Aggregator) Seal(fill func(id int64) Outcome) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sealed = true
	filled := 0
	for _, id := range a.ids {
		if _, ok := a.outcomes[id]; !ok {
			a.outcomes[id] = fill(id)
			filled++
		}
	}
	return filled
}

// Snapshot returns the outcomes in id order. It fails with ErrIncomplete if any
// id is still missing an outcome.
func (a *Aggregator) Snapshot() ([]Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.outcomes) != len(a.ids) {
		return nil, fmt.Errorf("%w: %d of %d recorded", ErrIncomplete, len(a.outcomes), len(a.ids))
	}
	out := make([]Outcome, 0, len(a.ids))
	for _, id := range a.ids {
		out = append(out, a.outcomes[id])
	}
	return out, nil
}
