package mw

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// idleExpiry is how long a client's limiter is kept after its last request.
const idleExpiry = 10 * time.Minute

// IPRateLimiter keeps a token bucket per client IP. Buckets of idle clients
// expire so the registry does not grow without bound.
type IPRateLimiter struct {
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(idleExpiry, 2*idleExpiry),
		r:        r,
		b:        b,
	}
}

// PerMinute converts a requests-per-minute budget into a rate.Limit.
func PerMinute(n float64) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Limit(n / 60)
}

// GetLimiter returns the rate limiter for an IP address, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	if v, found := i.limiters.Get(ip); found {
		limiter := v.(*rate.Limiter)
		i.limiters.SetDefault(ip, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(i.r, i.b)
	// Another request may have registered a limiter in the meantime.
	if err := i.limiters.Add(ip, limiter, cache.DefaultExpiration); err != nil {
		if v, found := i.limiters.Get(ip); found {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

// Len returns the number of tracked clients.
func (i *IPRateLimiter) Len() int {
	return i.limiters.ItemCount()
}

// RateLimiter is a middleware for IP-based rate limiting.
func RateLimiter(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := limiter.GetLimiter(c.ClientIP()).Reserve()
		if delay := res.Delay(); delay > 0 {
			res.Cancel()
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(delay)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) int {
	if d == rate.InfDuration {
		return 60
	}
	return int(math.Ceil(d.Seconds()))
}
