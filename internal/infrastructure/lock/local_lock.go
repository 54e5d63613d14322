package lock

import (
	"context"
	"sync"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"
)

type lease struct {
	token     uint64
	expiresAt time.Time
}

// LocalLocker is the single-process Locker used when no Redis is configured
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]lease
	next   uint64
	now    func() time.Time
}

var _ ports.Locker = (*LocalLocker)(nil)

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	// drop expired leases of every key, not just this one
	for k, held := range l.leases {
		if !now.Before(held.expiresAt) {
			delete(l.leases, k)
		}
	}
	if _, ok := l.leases[key]; ok {
		return nil, domain.ErrLeaseHeld
	}

	l.next++
	token := l.next
	l.leases[key] = lease{token: token, expiresAt: now.Add(ttl)}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if held, ok := l.leases[key]; ok && held.token == token {
			delete(l.leases, key)
		}
	}, nil
}
