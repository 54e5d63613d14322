package ports

import (
	"context"
	"time"
)

// Locker hands out short-lived exclusive leases. Acquire never blocks: when the
// lease is held it returns domain.ErrLeaseHeld.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}
