package http

import (
	"net/http"
	"sync"

	"github.com/erdsync/erd-sync/internal/auth"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// PatchLimiter hands out one token bucket per user.
type PatchLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func NewPatchLimiter(perSecond float64, burst int) *PatchLimiter {
	if burst < 1 {
		burst = 1
	}
	return &PatchLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (p *PatchLimiter) Allow(userID string) bool {
	p.mu.Lock()
	l, ok := p.limiters[userID]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[userID] = l
	}
	p.mu.Unlock()
	return l.Allow()
}

// Middleware rejects requests over the user's budget with 429.
func (p *PatchLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Allow(auth.UserID(c)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "too many patch requests, slow down"})
			return
		}
		c.Next()
	}
}
