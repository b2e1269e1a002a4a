package redis

import (
	"context"
	"fmt"
	"strings"

	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
)

// ExpiredFunc is called with the booking id whose countdown ran out.
type ExpiredFunc func(ctx context.Context, bookingID string) error

// ExpiryListener turns Redis expired-key notifications into booking callbacks.
type ExpiryListener struct {
	Client    *redis.Client
	OnExpired ExpiredFunc
	Logger    *logger.Logger
}

func NewExpiryListener(client *redis.Client, onExpired ExpiredFunc, log *logger.Logger) *ExpiryListener {
	return &ExpiryListener{Client: client, OnExpired: onExpired, Logger: log}
}

// EnableNotifications switches on expired-key events. Managed Redis often
// forbids CONFIG SET, so a failure is only logged.
func (l *ExpiryListener) EnableNotifications(ctx context.Context) {
	if err := l.Client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		l.Logger.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
		return
	}
	l.Logger.Info("REDIS", "Keyspace notifications enabled for expired events")
}

func (l *ExpiryListener) channel() string {
	return fmt.Sprintf("__keyevent@%d__:expired", l.Client.Options().DB)
}

// Run blocks until ctx is cancelled, dispatching booking hold expiries.
func (l *ExpiryListener) Run(ctx context.Context) error {
	pubsub := l.Client.PSubscribe(ctx, l.channel())
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to expiry events: %w", err)
	}
	l.Logger.Info("REDIS", fmt.Sprintf("Subscribed to %s", l.channel()))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			l.handle(ctx, msg.Payload)
		}
	}
}

func (l *ExpiryListener) handle(ctx context.Context, key string) {
	switch {
	case strings.HasPrefix(key, bookingHoldPrefix):
		bookingID := strings.TrimPrefix(key, bookingHoldPrefix)
		l.Logger.LogBooking("HOLD_EXPIRED", bookingID, "payment countdown ended")
		if err := l.OnExpired(ctx, bookingID); err != nil {
			l.Logger.Error("REDIS", fmt.Sprintf("Expiry handling failed for booking %s: %v", bookingID, err))
		}
	case strings.HasPrefix(key, seatLockPrefix):
		l.Logger.Debug("REDIS", fmt.Sprintf("Seat hold expired: %s", strings.TrimPrefix(key, seatLockPrefix)))
	}
}
