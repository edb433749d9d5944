package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/neuroscope-selfcheck/internal/domain"
)

// RateLimiter hands out one token bucket per client. The least recently seen clients
// are evicted once MaxClients buckets exist.
type RateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter from cfg.
func NewRateLimiter(cfg domain.RateLimitConfig) (*RateLimiter, error) {
	size := cfg.MaxClients
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, *rate.Limiter](size)
	if err != nil {
		return nil, err
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: cache,
		limit:    rate.Limit(cfg.RequestsPerSec),
		burst:    burst,
	}, nil
}

// Allow reports whether client may make a request now.
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	limiter, ok := r.limiters.Get(client)
	if !ok {
		limiter = rate.NewLimiter(r.limit, r.burst)
		r.limiters.Add(client, limiter)
	}
	r.mu.Unlock()

	return limiter.Allow()
}

// Clients returns the number of tracked clients.
func (r *RateLimiter) Clients() int {
	return r.limiters.Len()
}

// Middleware rejects requests over the limit with 429.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		retryAfter := time.Second
		if r.limit > 0 {
			retryAfter = time.Duration(float64(time.Second) / float64(r.limit))
		}
		c.Header("Retry-After", retryAfterSeconds(retryAfter))
		appErr := domain.NewAppError(domain.ErrCodeRateLimit, "Too many requests", "", c.GetString(CorrelationIDKey))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": appErr})
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
