package collector

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// corsMiddleware allows dashboard frontends and SDK emitters to talk to the
// collector cross-origin. Trace propagation headers must be listed or
// browsers strip them from preflighted requests.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Accept",
			"Origin",
			"traceparent",
			"X-Event-Source",
			"X-Event-Count",
			"X-Span-Count",
		},
		ExposeHeaders: []string{"traceparent"},
		MaxAge:        12 * time.Hour,
	})
}

// RateLimitConfig tunes the per-source ingest rate limiter.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// rateLimitMiddleware limits ingest per client IP so one misbehaving emitter
// cannot starve the rest.
func rateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		mu.Lock()
		limiter, ok := limiters[ip]
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
			limiters[ip] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
