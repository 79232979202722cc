package middleware

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newUnreachableRedis returns a client whose every command fails fast.
func newUnreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}
