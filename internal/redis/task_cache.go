package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// DefaultTaskTTL bounds how long a cached task can outlive a write made by a
// process that does not invalidate the cache.
const DefaultTaskTTL = 5 * time.Minute

func taskKey(id string) string { return "erm:task:" + id }

// TaskCache caches raw task documents by id.
type TaskCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTaskCache returns a TaskCache. A zero ttl selects DefaultTaskTTL.
func NewTaskCache(client *redis.Client, ttl time.Duration) *TaskCache {
	if ttl <= 0 {
		ttl = DefaultTaskTTL
	}
	return &TaskCache{client: client, ttl: ttl}
}

// Get returns a NotFoundError on a cache miss.
func (c *TaskCache) Get(ctx context.Context, id string) (*domain.Task, error) {
	data, err := c.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			telemetry.TaskCacheLookups.WithLabelValues("miss").Inc()
			return nil, &domain.NotFoundError{Entity: "Task", ID: id}
		}
		return nil, fmt.Errorf("redis get task %s: %w", id, err)
	}
	var task domain.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("unmarshal cached task %s: %w", id, err)
	}
	telemetry.TaskCacheLookups.WithLabelValues("hit").Inc()
	return &task, nil
}

func (c *TaskCache) Set(ctx context.Context, task *domain.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := c.client.Set(ctx, taskKey(task.ID.Hex()), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set task %s: %w", task.ID.Hex(), err)
	}
	return nil
}

func (c *TaskCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, taskKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del task %s: %w", id, err)
	}
	return nil
}
