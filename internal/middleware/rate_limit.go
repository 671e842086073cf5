// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/javajoker/assetdesk/internal/config"
	"github.com/javajoker/assetdesk/internal/utils"
)

// visitorTTL is how long an idle client's limiter is kept.
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(r rate.Limit, b int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     r,
		burst:    b,
	}
}

// Sweep drops visitors idle since before cutoff.
func (rl *RateLimiter) Sweep(cutoff time.Time) {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mtx.Lock()
	defer rl.mtx.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			utils.TooManyRequestsResponse(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimits groups the limiters applied by the router.
type RateLimits struct {
	General *RateLimiter
	Auth    *RateLimiter
	Import  *RateLimiter
}

func NewRateLimits(cfg config.RateLimitConfig) *RateLimits {
	return &RateLimits{
		General: NewRateLimiter(perSecond(cfg.RequestsPerSecond), cfg.Burst),
		Auth:    NewRateLimiter(perMinute(cfg.AuthPerMinute), cfg.AuthPerMinute),
		Import:  NewRateLimiter(perMinute(cfg.ImportPerMinute), cfg.ImportPerMinute),
	}
}

// Run evicts idle visitors until stop is closed.
func (r *RateLimits) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			cutoff := now.Add(-visitorTTL)
			r.General.Sweep(cutoff)
			r.Auth.Sweep(cutoff)
			r.Import.Sweep(cutoff)
		}
	}
}

func perSecond(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Limit(n)
}

func perMinute(n int) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Every(time.Minute / time.Duration(n))
}
