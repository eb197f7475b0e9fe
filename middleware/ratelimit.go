package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/aasimohyeah/natours"
)

// RateLimitMessage is the body of 429 responses.
const RateLimitMessage = "Too many requests from this IP, try again in an hour!"

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	RetryIn   time.Duration
}

// Limiter decides whether the client identified by key may make a request.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a fixed-window counter shared by every server instance.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	prefix string
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window, prefix: "natours:ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + key
	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		ttl = l.window
	}

	remaining := l.max - int(n)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: n <= int64(l.max), Remaining: remaining, RetryIn: ttl}, nil
}

// LocalLimiter is a per-process token bucket per client, refilled evenly
// over the window.
type LocalLimiter struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	max     int
	every   rate.Limit
}

func NewLocalLimiter(max int, window time.Duration) *LocalLimiter {
	return &LocalLimiter{
		clients: make(map[string]*rate.Limiter),
		max:     max,
		every:   rate.Every(window / time.Duration(max)),
	}
}

func (l *LocalLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	l.mu.Lock()
	lim, ok := l.clients[key]
	if !ok {
		lim = rate.NewLimiter(l.every, l.max)
		l.clients[key] = lim
	}
	l.mu.Unlock()

	now := time.Now()
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return Decision{RetryIn: delay}, nil
	}
	return Decision{Allowed: true, Remaining: int(lim.TokensAt(now))}, nil
}

// RateLimit answers 429 once the client IP has used up its requests. A
// failing limiter lets the request through.
func RateLimit(limiter Limiter, max int, log *zap.Logger) gin.HandlerFunc {
	limit := strconv.Itoa(max)
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(d.RetryIn.Round(time.Second)/time.Second)))
			se := natours.Fail(http.StatusTooManyRequests, RateLimitMessage)
			c.AbortWithStatusJSON(se.Code, se.Obj)
			return
		}
		c.Next()
	}
}
