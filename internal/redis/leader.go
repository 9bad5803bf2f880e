package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var renewScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

// Leader elects a single instance among peers sharing key.
type Leader struct {
	client     *redis.Client
	key        string
	instanceID string
	ttl        time.Duration
}

func NewLeader(client *redis.Client, key, instanceID string, ttl time.Duration) *Leader {
	return &Leader{client: client, key: key, instanceID: instanceID, ttl: ttl}
}

func (l *Leader) InstanceID() string { return l.instanceID }

// AcquireOrRenew returns true if this instance holds leadership after the call.
func (l *Leader) AcquireOrRenew(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.instanceID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("leader election setnx: %w", err)
	}
	if ok {
		return true, nil
	}

	// Key already set: renew only if we own it.
	result, err := renewScript.Run(ctx, l.client, []string{l.key}, l.instanceID, l.ttl.Milliseconds()).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("leader renewal: %w", err)
	}
	return result == 1, nil
}

// Resign gives up leadership if held.
func (l *Leader) Resign(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.instanceID).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("leader resign: %w", err)
	}
	return nil
}
