package emitters

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"time-release-helper/internal/interfaces"
	"time-release-helper/internal/models"
)

const writeTimeout = 10 * time.Second

var _ interfaces.EventEmitter = (*KafkaEmitter)(nil)

// messageWriter is the part of kafka.Writer the emitter uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaEmitter implements EventEmitter using Kafka
type KafkaEmitter struct {
	writer messageWriter
	logger *zerolog.Logger
	mu     sync.Mutex
}

// NewKafkaEmitter creates a new KafkaEmitter
func NewKafkaEmitter(brokerAddress, topic string, logger *zerolog.Logger) *KafkaEmitter {
	return newKafkaEmitter(&kafka.Writer{
		Addr:         kafka.TCP(brokerAddress),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: writeTimeout,
	}, logger)
}

func newKafkaEmitter(w messageWriter, logger *zerolog.Logger) *KafkaEmitter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &KafkaEmitter{writer: w, logger: logger}
}

// EmitEvent publishes the event keyed by the record key, so every update of
// one submission lands on the same partition once it has a tx hash
func (k *KafkaEmitter) EmitEvent(event models.SubmissionEvent) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer == nil {
		return fmt.Errorf("kafka emitter is closed")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Record.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "session_id", Value: []byte(event.SessionID)},
			{Key: "status", Value: []byte(event.Record.Status)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	k.logger.Debug().
		Str("network", event.Network.String()).
		Str("key", event.Record.Key).
		Str("status", string(event.Record.Status)).
		Msg("Successfully emitted event to Kafka")
	return nil
}

func (k *KafkaEmitter) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.writer != nil {
		err := k.writer.Close()
		k.writer = nil
		return err
	}
	return nil
}
