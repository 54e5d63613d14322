package lock

import (
	"context"
	"fmt"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// releaseScript deletes the key only while it still belongs to the caller
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out leases with SET NX PX so they are shared across replicas
type RedisLocker struct {
	client redis.UniversalClient
	logger zerolog.Logger
}

var _ ports.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on an existing Redis client
func NewRedisLocker(client redis.UniversalClient, logger zerolog.Logger) *RedisLocker {
	return &RedisLocker{client: client, logger: logger}
}

// NewRedisClient parses a redis:// or rediss:// URL
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lease %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLeaseHeld
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err(); err != nil {
			l.logger.Warn().Err(err).Str("key", key).Msg("Failed to release lease")
		}
	}
	return release, nil
}
