package kafkaclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by the producer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes keyed messages to a single topic.
type Producer struct {
	writer MessageWriter
	log    zerolog.Logger
}

// NewProducer returns a producer writing to topic on broker. Messages with
// the same key land on the same partition.
func NewProducer(broker, topic string, log zerolog.Logger) (*Producer, error) {
	if broker == "" || topic == "" {
		return nil, errors.New("kafka producer needs a broker and topic")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewProducerWithWriter(w, log.With().Str("topic", topic).Logger()), nil
}

// NewProducerWithWriter returns a producer using an existing writer.
func NewProducerWithWriter(w MessageWriter, log zerolog.Logger) *Producer {
	return &Producer{writer: w, log: log.With().Str("component", "kafka-producer").Logger()}
}

// Publish writes msgs in one call.
func (p *Producer) Publish(ctx context.Context, msgs ...kafka.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	p.log.Debug().Int("messages", len(msgs)).Msg("Published")
	return nil
}

// Close flushes and closes the writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
