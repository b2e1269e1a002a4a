package redis

import (
	"context"
	"fmt"
	"time"

	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	seatLockPrefix    = "seat_lock:"
	bookingHoldPrefix = "booking_hold:"
)

// releaseIfOwner deletes KEYS[1] only while it still holds ARGV[1].
var releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Holds keeps the short-lived seat and booking holds that back the payment
// countdown. They are advisory: the database row status stays authoritative.
type Holds struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewHolds(client *redis.Client, ttl time.Duration, log *logger.Logger) *Holds {
	return &Holds{Client: client, TTL: ttl, Logger: log}
}

func seatKey(seatID string) string       { return seatLockPrefix + seatID }
func bookingKey(bookingID string) string { return bookingHoldPrefix + bookingID }

// HoldSeats takes every seat lock for bookingID or none of them.
func (h *Holds) HoldSeats(ctx context.Context, seatIDs []string, bookingID string) (bool, error) {
	locked := make([]string, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		ok, err := h.Client.SetNX(ctx, seatKey(seatID), bookingID, h.TTL).Result()
		if err != nil || !ok {
			if relErr := h.ReleaseSeats(ctx, locked, bookingID); relErr != nil {
				h.Logger.Warn("REDIS", fmt.Sprintf("Rollback of seat holds for %s failed: %v", bookingID, relErr))
			}
			if err != nil {
				return false, fmt.Errorf("hold seat %s: %w", seatID, err)
			}
			h.Logger.LogSeat("HOLD", seatID, "already held by another booking")
			return false, nil
		}
		locked = append(locked, seatID)
	}
	return true, nil
}

// ReleaseSeats drops the seat locks still owned by bookingID.
func (h *Holds) ReleaseSeats(ctx context.Context, seatIDs []string, bookingID string) error {
	var firstErr error
	for _, seatID := range seatIDs {
		if err := releaseIfOwner.Run(ctx, h.Client, []string{seatKey(seatID)}, bookingID).Err(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("release seat %s: %w", seatID, err)
		}
	}
	return firstErr
}

// SeatHolders maps each held seat to the booking holding it. Free seats are
// absent from the result.
func (h *Holds) SeatHolders(ctx context.Context, seatIDs []string) (map[string]string, error) {
	holders := make(map[string]string)
	if len(seatIDs) == 0 {
		return holders, nil
	}
	keys := make([]string, len(seatIDs))
	for i, seatID := range seatIDs {
		keys[i] = seatKey(seatID)
	}
	vals, err := h.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read seat holds: %w", err)
	}
	for i, val := range vals {
		if bookingID, ok := val.(string); ok {
			holders[seatIDs[i]] = bookingID
		}
	}
	return holders, nil
}

// HoldBooking starts the payment countdown and returns when it ends.
func (h *Holds) HoldBooking(ctx context.Context, bookingID string) (time.Time, error) {
	expiresAt := time.Now().Add(h.TTL).UTC()
	if err := h.Client.Set(ctx, bookingKey(bookingID), expiresAt.Unix(), h.TTL).Err(); err != nil {
		return time.Time{}, fmt.Errorf("hold booking %s: %w", bookingID, err)
	}
	return expiresAt, nil
}

// ReleaseBooking stops the countdown without firing an expiry.
func (h *Holds) ReleaseBooking(ctx context.Context, bookingID string) error {
	return h.Client.Del(ctx, bookingKey(bookingID)).Err()
}

// BookingHold reports the time left on the countdown. A missing key is inactive.
func (h *Holds) BookingHold(ctx context.Context, bookingID string) (time.Duration, bool, error) {
	ttl, err := h.Client.TTL(ctx, bookingKey(bookingID)).Result()
	if err != nil {
		return 0, false, err
	}
	// -2: no key, -1: no expiry
	if ttl < 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}
