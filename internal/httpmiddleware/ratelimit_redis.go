package httpmiddleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow is a fixed-window limiter backed by Redis INCR, for
// multi-instance deployments where counters must be shared across replicas.
type RedisWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedisWindow creates a limiter admitting limit requests per window.
func NewRedisWindow(client *redis.Client, limit int, window time.Duration) *RedisWindow {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindow{
		client: client,
		limit:  limit,
		window: window,
		prefix: "classsync:ratelimit",
	}
}

// Allow increments the counter for key's current window. INCR is atomic on
// the server, so concurrent replicas share one consistent count.
func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	slot := time.Now().Unix() / int64(l.window.Seconds())
	bucketKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	n, err := l.client.Incr(ctx, bucketKey).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// first hit in this window owns the expiry
		l.client.Expire(ctx, bucketKey, l.window+time.Second)
	}
	return n <= int64(l.limit), nil
}
