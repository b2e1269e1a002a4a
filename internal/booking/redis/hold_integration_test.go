//go:build integration

package redis

import (
	"context"
	"testing"
	"time"

	"ms-booking/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestHoldExpiryAgainstRealRedis needs Docker. Real Redis is the only way to
// see the expired-key notification fire on its own.
func TestHoldExpiryAgainstRealRedis(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()

	log := logger.NewTestLogger()
	holds := NewHolds(client, time.Second, log)

	expired := make(chan string, 1)
	listener := NewExpiryListener(client, func(_ context.Context, bookingID string) error {
		expired <- bookingID
		return nil
	}, log)
	listener.EnableNotifications(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go listener.Run(runCtx)
	time.Sleep(200 * time.Millisecond)

	ok, err := holds.HoldSeats(ctx, []string{"s1", "s2"}, "booking-a")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = holds.HoldBooking(ctx, "booking-a")
	require.NoError(t, err)

	select {
	case id := <-expired:
		assert.Equal(t, "booking-a", id)
	case <-time.After(10 * time.Second):
		t.Fatal("no expiry notification received")
	}
}
