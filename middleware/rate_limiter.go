package middleware

import (
	"net/http"
	"sync"
	"time"

	"api/metrics"

	"github.com/gin-gonic/gin"
)

// RateLimiter is the coarse in-memory token bucket applied to the whole API
// surface. It only protects this instance from floods; the per-action abuse
// limiter is the shared, distributed gate.
type RateLimiter struct {
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int           // tokens added per interval
	burst    int           // bucket capacity
	interval time.Duration // refill interval
}

type Visitor struct {
	tokens      int
	lastUpdated time.Time
}

func NewRateLimiter(rate int, burst int) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*Visitor),
		rate:     rate,
		burst:    burst,
		interval: time.Minute,
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) getVisitor(ip string) *Visitor {
	if visitor, exists := rl.visitors[ip]; exists {
		return visitor
	}

	visitor := &Visitor{
		tokens:      rl.burst,
		lastUpdated: time.Now(),
	}
	rl.visitors[ip] = visitor
	return visitor
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	visitor := rl.getVisitor(ip)

	// Refill tokens
	now := time.Now()
	elapsed := now.Sub(visitor.lastUpdated)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		visitor.tokens += refill * rl.rate
		if visitor.tokens > rl.burst {
			visitor.tokens = rl.burst
		}
		visitor.lastUpdated = now
	}

	if visitor.tokens > 0 {
		visitor.tokens--
		return true
	}

	return false
}

// cleanupLoop drops visitors that have been idle long enough to be full again
func (rl *RateLimiter) cleanupLoop() {
	for {
		time.Sleep(10 * time.Minute)

		rl.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for ip, visitor := range rl.visitors {
			if visitor.lastUpdated.Before(cutoff) {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func RateLimiterMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			metrics.RateLimiterRejections.WithLabelValues(ip).Inc()

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
