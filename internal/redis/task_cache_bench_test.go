package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// newBenchClient returns a Redis client connected to localhost:6379.
// Benchmarks are skipped if Redis is not reachable.
func newBenchClient(b *testing.B) *redis.Client {
	b.Helper()
	c := redis.NewClient(&redis.Options{
		Addr:         "localhost:6379",
		DialTimeout:  1 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	if err := c.Ping(context.Background()).Err(); err != nil {
		b.Skipf("Redis not available at localhost:6379: %v", err)
	}
	b.Cleanup(func() { _ = c.Close() })
	return c
}

func benchTask() *domain.Task {
	return &domain.Task{
		ID:      primitive.NewObjectID(),
		Title:   "bench",
		Project: primitive.NewObjectID(),
		Status:  domain.TaskPending,
	}
}

// BenchmarkTaskCache_Set measures a single SET with TTL.
func BenchmarkTaskCache_Set(b *testing.B) {
	cache := NewTaskCache(newBenchClient(b), time.Minute)
	ctx := context.Background()
	task := benchTask()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := cache.Set(ctx, task); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkTaskCache_Get measures a GET plus JSON decode.
func BenchmarkTaskCache_Get(b *testing.B) {
	cache := NewTaskCache(newBenchClient(b), time.Minute)
	ctx := context.Background()
	task := benchTask()
	if err := cache.Set(ctx, task); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := cache.Get(ctx, task.ID.Hex()); err != nil {
			b.Fatal(err)
		}
	}
}
