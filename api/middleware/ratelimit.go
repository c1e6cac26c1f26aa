package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pagecast/config"
	"github.com/use-agent/pagecast/models"
	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an identity's bucket is kept after its last
// request.
const idleLimiterTTL = time.Hour

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterSet holds one token bucket per identity. Idle buckets are dropped
// during lookups, at most once per sweep interval.
type limiterSet struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	entries   map[string]*limiterEntry
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(cfg config.RateLimitConfig) *limiterSet {
	return &limiterSet{
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

func (s *limiterSet) allow(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > 5*time.Minute {
		for id, e := range s.entries {
			if now.Sub(e.lastSeen) > idleLimiterTTL {
				delete(s.entries, id)
			}
		}
		s.lastSweep = now
	}

	e, ok := s.entries[identity]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[identity] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimit returns per-identity (API key or IP) token-bucket rate limiting
// middleware powered by golang.org/x/time/rate.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	set := newLimiterSet(cfg)
	return func(c *gin.Context) {
		identity := c.GetString(apiKeyContextKey)
		if identity == "" {
			identity = c.ClientIP()
		}
		if !set.allow(identity) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded, please slow down",
				},
			})
			return
		}
		c.Next()
	}
}
