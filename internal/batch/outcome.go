package batch

import (
	"encoding/json"
	"fmt"
	"time"

	"itemservice/internal/models"
)

// Status is the terminal state of one item in a batch.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Outcome is the terminal result of processing one item id.
type Outcome struct {
	ID     int64
	Status Status
	// Item is the stored item for processed outcomes.
	Item *models.Item
	// Reason explains a skipped outcome.
	Reason string
	// Err is the cause of a failed outcome.
	Err error
}

// Processed returns a processed outcome for item.
func Processed(item models.Item) Outcome {
	return Outcome{ID: item.ID, Status: StatusProcessed, Item: &item}
}

// Skipped returns a skipped outcome for id.
func Skipped(id int64, reason string) Outcome {
	return Outcome{ID: id, Status: StatusSkipped, Reason: reason}
}

// Failed returns a failed outcome for id.
func Failed(id int64, cause error) Outcome {
	return Outcome{ID: id, Status: StatusFailed, Err: cause}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusSkipped:
		return fmt.Sprintf("%d: skipped (%s)", o.ID, o.Reason)
	case StatusFailed:
		return fmt.Sprintf("%d: failed (%v)", o.ID, o.Err)
	default:
		return fmt.Sprintf("%d: %s", o.ID, o.Status)
	}
}

// Entry is the serialised form of an Outcome, with the failure cause reduced
// to its message.
type Entry struct {
	ID     int64        `json:"id"`
	Status Status       `json:"status"`
	Item   *models.Item `json:"item,omitempty"`
	Reason string       `json:"reason,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// Entry returns the serialised form of o.
func (o Outcome) Entry() Entry {
	e := Entry{ID: o.ID, Status: o.Status, Item: o.Item, Reason: o.Reason}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Entry())
}

// Result is the aggregate of a completed batch: one Outcome per requested id,
// in request order.
type Result struct {
	BatchID     string    `json:"batch_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Outcomes    []Outcome `json:"outcomes"`
}

// Counts tallies the outcomes by status.
func (r *Result) Counts() map[Status]int {
	counts := map[Status]int{StatusProcessed: 0, StatusSkipped: 0, StatusFailed: 0}
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}
