package batch

import (
	"context"
	"errors"
)

// Per-item causes carried inside failed Outcomes.
var (
	ErrPersistence = errors.New("persistence failure")
	ErrInterrupted = errors.New("processing interrupted")
	ErrTimeout     = errors.New("processing timed out")
	ErrTransform   = errors.New("transformation failed")
)

// Batch level errors.
var (
	ErrBatchInfrastructure = errors.New("batch infrastructure failure")
	ErrPoolClosed          = errors.New("worker pool is closed")
	ErrIncomplete          = errors.New("batch has items without an outcome")
)

// ReasonNotFound is the skip reason for ids with no backing item.
const ReasonNotFound = "not found"

// contextCause maps a context error to ErrTimeout or ErrInterrupted.
func contextCause(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrInterrupted
}
