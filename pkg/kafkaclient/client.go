// Package kafkaclient wraps segmentio/kafka-go with a channel based consumer
// that commits offsets explicitly, and a small keyed producer.
package kafkaclient

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// readErrorBackoff is the pause after a failed read.
const readErrorBackoff = time.Second

// KafkaReader is the subset of *kafka.Reader used by the consumer.
type KafkaReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads messages on a background goroutine and hands them out
// over a channel. Offsets are only committed through CommitOffset.
type KafkaConsumer struct {
	reader   KafkaReader
	log      zerolog.Logger
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	messages chan kafka.Message
}

// ConsumerConfig describes a consumer group subscription.
type ConsumerConfig struct {
	Broker  string
	Topic   string
	GroupID string
}

// NewKafkaConsumer returns a consumer for cfg. Auto-commit is disabled.
func NewKafkaConsumer(cfg ConsumerConfig, log zerolog.Logger) (*KafkaConsumer, error) {
	if cfg.Broker == "" || cfg.Topic == "" || cfg.GroupID == "" {
		return nil, errors.New("kafka consumer needs a broker, topic and group id")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{cfg.Broker},
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		CommitInterval: 0,
		MinBytes:       1,
		MaxBytes:       10e6,
	})
	return newConsumer(reader, log.With().Str("topic", cfg.Topic).Logger()), nil
}

func newConsumer(reader KafkaReader, log zerolog.Logger) *KafkaConsumer {
	return &KafkaConsumer{
		reader:   reader,
		log:      log.With().Str("component", "kafka-consumer").Logger(),
		doneChan: make(chan struct{}),
		messages: make(chan kafka.Message),
	}
}

// Messages returns the channel of consumed messages. It is closed once the
// consume loop exits.
func (kc *KafkaConsumer) Messages() <-chan kafka.Message {
	return kc.messages
}

// CommitOffset commits msg for the consumer group.
func (kc *KafkaConsumer) CommitOffset(ctx context.Context, msg kafka.Message) error {
	kc.log.Debug().Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("Committing offset")
	return kc.reader.CommitMessages(ctx, msg)
}

// StartConsuming runs the read loop until ctx ends, Stop is called or the
// reader is closed.
func (kc *KafkaConsumer) StartConsuming(ctx context.Context) {
	kc.wg.Add(1)
	go func() {
		defer kc.wg.Done()
		defer close(kc.messages)

		kc.log.Info().Msg("Starting consumer loop")
		for {
			select {
			case <-ctx.Done():
				kc.log.Info().Msg("Context canceled, stopping consumer loop")
				return
			case <-kc.doneChan:
				kc.log.Info().Msg("Stop requested, stopping consumer loop")
				return
			default:
			}

			msg, err := kc.reader.ReadMessage(ctx)
			if err != nil {
				if isClosed(err) || ctx.Err() != nil {
					return
				}
				kc.log.Error().Err(err).Msg("Error reading message")
				select {
				case <-time.After(readErrorBackoff):
				case <-ctx.Done():
					return
				case <-kc.doneChan:
					return
				}
				continue
			}

			select {
			case kc.messages <- msg:
				kc.log.Debug().Int("partition", msg.Partition).Int64("offset", msg.Offset).Msg("Message received")
			case <-ctx.Done():
				return
			case <-kc.doneChan:
				return
			}
		}
	}()
}

// Stop ends the read loop and closes the reader. It is safe to call twice.
func (kc *KafkaConsumer) Stop() {
	kc.stopOnce.Do(func() {
		close(kc.doneChan)
		kc.wg.Wait()
		if err := kc.reader.Close(); err != nil {
			kc.log.Error().Err(err).Msg("Failed to close Kafka reader")
		}
		kc.log.Info().Msg("Consumer stopped")
	})
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe)
}
