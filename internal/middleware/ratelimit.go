package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	RequestsPerMin  int
	BurstSize       int
	CleanupInterval time.Duration
}

func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMin:  100,
		BurstSize:       10,
		CleanupInterval: 10 * time.Minute,
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-client token bucket keyed by client IP. Idle
// clients are evicted on a periodic cleanup cycle that runs until Stop.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter

	limit    rate.Limit
	burst    int
	idleFor  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(config.RequestsPerMin) / 60.0),
		burst:   config.BurstSize,
		idleFor: config.CleanupInterval,
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, client := range rl.clients {
		if time.Since(client.lastSeen) > rl.idleFor {
			delete(rl.clients, ip)
		}
	}
}

// Stop terminates the cleanup cycle. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		client, ok := rl.clients[ip]
		if !ok {
			client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
			rl.clients[ip] = client
		}
		client.lastSeen = time.Now()
		allowed := client.limiter.Allow()
		rl.mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limited",
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
