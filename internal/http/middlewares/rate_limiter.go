package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// staleAfter bounds how long an idle client entry is kept before eviction.
const staleAfter = 10 * time.Minute

type clientBucket struct {
	tokens   int
	lastSeen time.Time
}

// RateLimiter is a per-client-IP token bucket: rate tokens per second, up to
// burst. Idle clients are evicted so the bucket map stays bounded.
type RateLimiter struct {
	mu      sync.Mutex
	rate    int
	burst   int
	clients map[string]*clientBucket

	lastSweep time.Time
}

func NewRateLimiter(rate, burst int) *RateLimiter {
	return &RateLimiter{
		rate:    rate,
		burst:   burst,
		clients: make(map[string]*clientBucket),
	}
}

func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bucket, exists := rl.clients[ip]
	if !exists {
		bucket = &clientBucket{tokens: rl.burst, lastSeen: now}
		rl.clients[ip] = bucket
	}

	bucket.tokens += int(now.Sub(bucket.lastSeen).Seconds()) * rl.rate
	if bucket.tokens > rl.burst {
		bucket.tokens = rl.burst
	}
	bucket.lastSeen = now

	if now.Sub(rl.lastSweep) > staleAfter {
		rl.sweep(now)
		rl.lastSweep = now
	}

	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

func (rl *RateLimiter) sweep(now time.Time) {
	for ip, bucket := range rl.clients {
		if now.Sub(bucket.lastSeen) > staleAfter {
			delete(rl.clients, ip)
		}
	}
}
