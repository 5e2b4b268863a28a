package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jwalitptl/hospital-api/pkg/circuitbreaker"
	"github.com/jwalitptl/hospital-api/pkg/messaging"
)

// Config for the Kafka broker. Channels map one-to-one to topics.
type Config struct {
	Brokers     []string
	GroupPrefix string
	MinBytes    int
	MaxBytes    int
}

// Broker publishes and consumes through Kafka topics. Each Subscribe joins a
// consumer group unique to this process so every instance sees every message.
type Broker struct {
	cfg    Config
	writer *kafkago.Writer
	cb     *circuitbreaker.CircuitBreaker
	logger *zerolog.Logger
}

func NewBroker(cfg Config, logger *zerolog.Logger) (*Broker, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker address is required")
	}
	if cfg.GroupPrefix == "" {
		cfg.GroupPrefix = "hospital-api"
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10e6
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	writer := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Balancer:               &kafkago.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}

	return &Broker{
		cfg:    cfg,
		writer: writer,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "kafka-broker",
			FailureThreshold: 5,
			Timeout:          10 * time.Second,
		}),
		logger: logger,
	}, nil
}

func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return b.cb.Execute(func() error {
		return b.writer.WriteMessages(ctx, kafkago.Message{
			Topic: channel,
			Value: payload,
		})
	})
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     b.cfg.Brokers,
		Topic:       channel,
		GroupID:     fmt.Sprintf("%s-%s", b.cfg.GroupPrefix, uuid.NewString()),
		MinBytes:    b.cfg.MinBytes,
		MaxBytes:    b.cfg.MaxBytes,
		StartOffset: kafkago.LastOffset,
	})

	msgChan := make(chan []byte, 100)

	go func() {
		defer func() {
			reader.Close()
			close(msgChan)
		}()

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				b.logger.Error().Err(err).Str("topic", channel).Msg("failed to read kafka message")
				select {
				case <-time.After(time.Second):
					continue
				case <-ctx.Done():
					return
				}
			}
			select {
			case msgChan <- msg.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}

func (b *Broker) Close() error {
	return b.writer.Close()
}

var _ messaging.Broker = (*Broker)(nil)
