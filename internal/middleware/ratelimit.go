package middleware

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/HammerMeetNail/friendgraph/internal/handlers"
	"github.com/HammerMeetNail/friendgraph/internal/logging"
)

// windowCounter counts hits on a per-window key that expires after window.
type windowCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

var errNoRedis = errors.New("no redis client configured")

type redisCounter struct {
	client redis.Cmdable
}

func (c redisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimiter is a fixed-window limiter shared across instances through
// Redis. When Redis is missing or failing and failOpen is set, each process
// falls back to its own token bucket per key.
type RateLimiter struct {
	counter  windowCounter
	limit    int
	window   time.Duration
	prefix   string
	keyFunc  func(r *http.Request) string
	failOpen bool
	local    *localLimiter
	now      func() time.Time
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, prefix string, keyFunc func(r *http.Request) string, failOpen bool) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if keyFunc == nil {
		keyFunc = GetClientIP
	}

	rl := &RateLimiter{
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFunc:  keyFunc,
		failOpen: failOpen,
		local:    newLocalLimiter(limit, window),
		now:      time.Now,
	}
	if redisClient != nil {
		rl.counter = redisCounter{client: redisClient}
	}
	return rl
}

// NewFriendRequestLimiter limits friend request sends per signed in user.
func NewFriendRequestLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return NewRateLimiter(redisClient, limit, window, "ratelimit:friend-request:", UserKey, true)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.keyFunc(r)
		now := rl.now()
		windowStart := now.Truncate(rl.window)
		resetAt := windowStart.Add(rl.window)

		allowed, remaining, err := rl.allow(r.Context(), key, windowStart)
		if err != nil {
			if !rl.failOpen {
				logging.Error("Rate limiter unavailable", map[string]interface{}{"error": err.Error()})
				writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
				return
			}
			logging.Warn("Rate limiter falling back to local limits", map[string]interface{}{"error": err.Error()})
			if !rl.local.Allow(key, now) {
				rl.reject(w, now, resetAt)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			rl.reject(w, now, resetAt)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string, windowStart time.Time) (bool, int, error) {
	if rl.counter == nil {
		return false, 0, errNoRedis
	}

	count, err := rl.counter.Incr(ctx, fmt.Sprintf("%s%s:%d", rl.prefix, key, windowStart.Unix()), rl.window)
	if err != nil {
		return false, 0, err
	}

	remaining := rl.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(rl.limit), remaining, nil
}

func (rl *RateLimiter) reject(w http.ResponseWriter, now, resetAt time.Time) {
	retry := int(resetAt.Sub(now).Seconds())
	if retry < 1 {
		retry = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// UserKey keys limits by the signed in user, falling back to the client IP.
func UserKey(r *http.Request) string {
	if user := handlers.GetUserFromContext(r.Context()); user != nil {
		return "user:" + user.ID.String()
	}
	return "ip:" + GetClientIP(r)
}

func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is an in-process token bucket per key. Idle keys expire after
// one window and are swept at most once per window.
type localLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

func newLocalLimiter(requests int, window time.Duration) *localLimiter {
	return &localLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(window / time.Duration(requests)),
		burst:    requests,
		ttl:      window,
	}
}

func (l *localLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.ttl {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.ttl {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
