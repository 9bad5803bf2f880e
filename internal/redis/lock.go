package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Locker is a distributed mutex keyed by name. While held, the lease is
// renewed every ttl/3, so a slow holder keeps the lock; a holder that dies
// keeps it for at most ttl.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	poll   time.Duration
}

// NewLocker returns a Locker whose locks expire after ttl.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl, poll: 25 * time.Millisecond}
}

// Lock blocks until key is acquired or ctx is done. The returned unlock
// releases the lock only if it is still held by this caller.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	rkey := "erm:lock:" + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, rkey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis lock %s: %w", key, ctx.Err())
		case <-time.After(l.poll):
		}
	}

	stop := make(chan struct{})
	go l.keepAlive(rkey, token, stop)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			// The caller's ctx may already be cancelled; release regardless.
			relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			// On failure the key expires after ttl.
			_ = releaseScript.Run(relCtx, l.client, []string{rkey}, token).Err()
		})
	}, nil
}

// keepAlive extends the lease until stop is closed or the lock is no longer
// ours.
func (l *Locker) keepAlive(rkey, token string, stop <-chan struct{}) {
	interval := l.ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := renewScript.Run(ctx, l.client, []string{rkey}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err == nil && n == 0 {
				return
			}
		}
	}
}
