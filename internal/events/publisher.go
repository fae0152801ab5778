// Package events publishes batch outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"itemservice/internal/batch"
)

// MessagePublisher sends keyed messages, see kafkaclient.Producer.
type MessagePublisher interface {
	Publish(ctx context.Context, msgs ...kafka.Message) error
}

// OutcomeEvent is the value of one published message.
type OutcomeEvent struct {
	BatchID string `json:"batch_id"`
	batch.Entry
}

// Publisher emits one message per outcome, keyed by item id, so all events
// for an item stay on one partition. It implements batch.Sink.
type Publisher struct {
	pub MessagePublisher
	log zerolog.Logger
}

func NewPublisher(pub MessagePublisher, log zerolog.Logger) *Publisher {
	return &Publisher{pub: pub, log: log.With().Str("component", "events").Logger()}
}

// Report publishes every outcome of result in a single write.
func (p *Publisher) Report(ctx context.Context, result *batch.Result) error {
	if len(result.Outcomes) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		value, err := json.Marshal(OutcomeEvent{BatchID: result.BatchID, Entry: o.Entry()})
		if err != nil {
			return fmt.Errorf("marshal outcome %d: %w", o.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(o.ID, 10)),
			Value: value,
			Time:  result.CompletedAt,
			Headers: []kafka.Header{
				{Key: "batch_id", Value: []byte(result.BatchID)},
				{Key: "status", Value: []byte(o.Status)},
			},
		})
	}
	if err := p.pub.Publish(ctx, msgs...); err != nil {
		return fmt.Errorf("publish batch %s: %w", result.BatchID, err)
	}
	p.log.Info().Str("batch_id", result.BatchID).Int("events", len(msgs)).Msg("Published outcomes")
	return nil
}
