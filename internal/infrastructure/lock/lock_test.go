package lock

import (
	"context"
	"testing"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseLocker(t *testing.T, locker ports.Locker) {
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "widget-provision:demo.myshopify.com", time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "widget-provision:demo.myshopify.com", time.Minute)
	assert.ErrorIs(t, err, domain.ErrLeaseHeld)

	other, err := locker.Acquire(ctx, "widget-provision:other.myshopify.com", time.Minute)
	require.NoError(t, err)
	other()

	release()
	again, err := locker.Acquire(ctx, "widget-provision:demo.myshopify.com", time.Minute)
	require.NoError(t, err)
	again()
}

func TestLocalLocker(t *testing.T) {
	exerciseLocker(t, NewLocalLocker())
}

func TestLocalLocker_Expiry(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Now()
	locker.now = func() time.Time { return now }

	stale, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	fresh, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	// the expired holder must not drop the new lease
	stale()
	_, err = locker.Acquire(context.Background(), "k", time.Second)
	assert.ErrorIs(t, err, domain.ErrLeaseHeld)
	fresh()
}

func TestLocalLocker_DropsExpiredLeases(t *testing.T) {
	locker := NewLocalLocker()
	now := time.Now()
	locker.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"widget-provision:a.myshopify.com", "widget-provision:b.myshopify.com", "widget-provision:c.myshopify.com"} {
		_, err := locker.Acquire(ctx, key, time.Second)
		require.NoError(t, err)
	}
	assert.Len(t, locker.leases, 3)

	now = now.Add(time.Minute)
	release, err := locker.Acquire(ctx, "widget-provision:d.myshopify.com", time.Second)
	require.NoError(t, err)
	assert.Len(t, locker.leases, 1)

	release()
	assert.Empty(t, locker.leases)
}

func TestRedisLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	exerciseLocker(t, NewRedisLocker(client, zerolog.Nop()))
}

func TestRedisLocker_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	locker := NewRedisLocker(client, zerolog.Nop())

	stale, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	fresh, err := locker.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)

	stale()
	assert.True(t, mr.Exists("k"))
	fresh()
	assert.False(t, mr.Exists("k"))
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Options().DB)
	_ = client.Close()

	_, err = NewRedisClient("://bad")
	assert.Error(t, err)
}
