package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
)

// Consumer reads booking events from one or more topics.
type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupTopics: topics,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Consumer{reader: reader, logger: log}
}

// Run hands every decodable event to handler until ctx ends. Malformed
// messages are logged and committed past.
func (c *Consumer) Run(ctx context.Context, handler func(topic string, ev models.BookingEvent)) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		var ev models.BookingEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed message on %s at offset %d: %v", msg.Topic, msg.Offset, err))
			continue
		}
		handler(msg.Topic, ev)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
