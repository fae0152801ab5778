package trigger

import (
	"context"

	"github.com/segmentio/kafka-go"

	"itemservice/internal/batch"
)

// MessageIterator is a source of batch request messages.
//
// Implementations own the lifecycle of the underlying consumer.
type MessageIterator interface {
	// Messages returns a channel of messages. It is closed when the source
	// is stopped or exhausted.
	Messages() <-chan kafka.Message

	// CommitOffset acknowledges that msg has been handled.
	CommitOffset(ctx context.Context, msg kafka.Message) error
}

// BatchRunner runs one batch over every stored item.
type BatchRunner interface {
	ProcessBatch(ctx context.Context) (*batch.Result, error)
}

// Request is the optional JSON body of a batch request message. An empty
// message value is a valid request.
type Request struct {
	RequestID   string `json:"request_id,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// Completed pairs a finished batch with the request that triggered it.
type Completed struct {
	Request Request
	Result  *batch.Result
	// Offset of the request message.
	Offset int64
}
