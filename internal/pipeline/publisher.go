package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/spreadstat/internal/config"
	"github.com/sanspareilsmyn/spreadstat/internal/spreadstat"
)

// ConfigSink receives configuration fragments for the live strategy config.
type ConfigSink interface {
	Publish(ctx context.Context, handler string, fragment spreadstat.ConfigFragment) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes configuration fragments to the config topic as JSON,
// keyed by handler name so one handler's updates stay ordered.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher creates a Kafka-backed Publisher on cfg.ConfigTopic.
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*Publisher, error) {
	if len(cfg.Brokers) == 0 || cfg.ConfigTopic == "" {
		logger.Error("Kafka publisher configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("config_topic", cfg.ConfigTopic),
		)
		return nil, ErrInvalidKafkaConfig
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ConfigTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafkaZapLogger{logger.Named("kafka-writer").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger:  kafkaZapErrorLogger{logger.Named("kafka-writer-error").WithOptions(zap.AddCallerSkip(1))},
	}

	logger.Info("Kafka publisher created",
		zap.String("topic", cfg.ConfigTopic),
		zap.Strings("brokers", cfg.Brokers),
	)
	return newPublisher(w, cfg.ConfigTopic, logger), nil
}

func newPublisher(w messageWriter, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// Publish implements ConfigSink.
func (p *Publisher) Publish(ctx context.Context, handler string, fragment spreadstat.ConfigFragment) error {
	payload, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	msg := kafka.Message{
		Key:   []byte(handler),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	p.logger.Debug("Published config fragment",
		zap.String("topic", p.topic),
		zap.String("handler", handler),
		zap.ByteString("payload", payload),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
