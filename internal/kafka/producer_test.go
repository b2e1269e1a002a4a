package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func testTopics() config.TopicConfig {
	return config.TopicConfig{
		BookingCreated:   "booking.created",
		BookingCancelled: "booking.cancelled",
		BookingApproved:  "booking.approved",
		BookingRejected:  "booking.rejected",
	}
}

func TestPublishBookingEventRoutesByStatus(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topics: testTopics(), Logger: logger.NewTestLogger()}

	statuses := map[string]string{
		models.BookingPending:   "booking.created",
		models.BookingCancelled: "booking.cancelled",
		models.BookingApproved:  "booking.approved",
		models.BookingRejected:  "booking.rejected",
	}
	for status := range statuses {
		ev := models.BookingEvent{BookingID: "b-" + status, Status: status, Amount: decimal.RequireFromString("12.50")}
		require.NoError(t, p.PublishBookingEvent(context.Background(), ev))
	}

	require.Len(t, w.messages, 4)
	for _, msg := range w.messages {
		var ev models.BookingEvent
		require.NoError(t, json.Unmarshal(msg.Value, &ev))
		assert.Equal(t, statuses[ev.Status], msg.Topic)
		assert.Equal(t, ev.BookingID, string(msg.Key))
		assert.Contains(t, string(msg.Value), `"amount":12.5`)
	}
}

func TestPublishBookingEventUnknownStatus(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Topics: testTopics(), Logger: logger.NewTestLogger()}

	err := p.PublishBookingEvent(context.Background(), models.BookingEvent{BookingID: "b", Status: "archived"})
	assert.Error(t, err)
	assert.Empty(t, w.messages)
}

func TestPublishBookingEventWriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{Writer: w, Topics: testTopics(), Logger: logger.NewTestLogger()}

	err := p.PublishBookingEvent(context.Background(), models.BookingEvent{BookingID: "b", Status: models.BookingApproved})
	assert.ErrorContains(t, err, "booking.approved")
}

func TestNoopPublisher(t *testing.T) {
	n := NoopPublisher{Logger: logger.NewTestLogger()}
	assert.NoError(t, n.PublishBookingEvent(context.Background(), models.BookingEvent{Status: models.BookingPending}))
}
