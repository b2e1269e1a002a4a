package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes booking lifecycle events, one topic per status.
type Producer struct {
	Writer MessageWriter
	Topics config.TopicConfig
	Logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topics: topics, Logger: log}
}

// TopicFor maps a booking status to its topic.
func (p *Producer) TopicFor(status string) (string, error) {
	switch status {
	case models.BookingPending:
		return p.Topics.BookingCreated, nil
	case models.BookingCancelled:
		return p.Topics.BookingCancelled, nil
	case models.BookingApproved:
		return p.Topics.BookingApproved, nil
	case models.BookingRejected:
		return p.Topics.BookingRejected, nil
	}
	return "", fmt.Errorf("no topic for booking status %q", status)
}

// PublishBookingEvent writes ev keyed by booking id so one booking's events stay ordered.
func (p *Producer) PublishBookingEvent(ctx context.Context, ev models.BookingEvent) error {
	topic, err := p.TopicFor(ev.Status)
	if err != nil {
		return err
	}

	msgBytes, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	if err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(ev.BookingID),
		Value: msgBytes,
	}); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, ev.BookingID)
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// NoopPublisher stands in when KAFKA_ENABLED is false.
type NoopPublisher struct {
	Logger *logger.Logger
}

func (n NoopPublisher) PublishBookingEvent(_ context.Context, ev models.BookingEvent) error {
	n.Logger.Debug("KAFKA", fmt.Sprintf("Kafka disabled, dropping %s event for %s", ev.Status, ev.BookingID))
	return nil
}
