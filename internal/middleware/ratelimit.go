package middleware

import (
	"net/http"
	"sync"
	"time"

	"consultlink.id/forum/pkg/apperror"
	"consultlink.id/forum/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now

	// sweep idle buckets while we hold the lock
	for key, other := range rl.visitors {
		if now.Sub(other.lastSeen) > visitorIdleTTL {
			delete(rl.visitors, key)
		}
	}
	return v.limiter
}

// WriteLimiter throttles mutating requests per IP. Safe methods pass through.
func WriteLimiter(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			response.ResponseError(c, apperror.New(http.StatusTooManyRequests, "too many requests, please slow down", apperror.ErrRateLimitExceeded))
			c.Abort()
			return
		}
		c.Next()
	}
}
