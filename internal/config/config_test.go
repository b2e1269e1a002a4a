package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CANCEL_STRATEGY", "")
	t.Setenv("WEBHOOK_TEST_MODE", "")
	t.Setenv("SEAT_HOLD_TTL_MINUTES", "")

	cfg := Load()

	assert.Equal(t, CancelStrategyCompensate, cfg.Booking.CancelStrategy)
	assert.Equal(t, 10*time.Minute, cfg.Booking.SeatHoldTTL)
	assert.False(t, cfg.Payment.WebhookTestMode)
	assert.Equal(t, "config/settings.json", cfg.Settings.File)
	assert.Len(t, cfg.Kafka.Topics.All(), 4)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CANCEL_STRATEGY", "Transaction")
	t.Setenv("WEBHOOK_TEST_MODE", "true")
	t.Setenv("SEAT_HOLD_TTL_MINUTES", "3")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg := Load()

	assert.Equal(t, CancelStrategyTransaction, cfg.Booking.CancelStrategy)
	assert.True(t, cfg.Payment.WebhookTestMode)
	assert.Equal(t, 3*time.Minute, cfg.Booking.SeatHoldTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestUnknownCancelStrategyFallsBack(t *testing.T) {
	t.Setenv("CANCEL_STRATEGY", "saga")
	assert.Equal(t, CancelStrategyCompensate, Load().Booking.CancelStrategy)
}

func TestWebhookTestModeOnlyForTrue(t *testing.T) {
	t.Setenv("WEBHOOK_TEST_MODE", "false")
	assert.False(t, Load().Payment.WebhookTestMode)
}
