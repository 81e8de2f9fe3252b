package httpserver

import (
	"net/http"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// SendLimiter enforces a per-identity budget on the send endpoint. Limiters
// live in a bounded LRU so an attacker cycling identities cannot grow memory
// without bound; evicting an idle limiter just resets that identity's budget.
type SendLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

const limiterCacheSize = 4096

// NewSendLimiter allows max requests per window for each identity,
// replenished continuously rather than in fixed windows.
func NewSendLimiter(max int, window time.Duration) *SendLimiter {
	cache, _ := lru.New[string, *rate.Limiter](limiterCacheSize)
	return &SendLimiter{
		limiters: cache,
		limit:    rate.Limit(float64(max) / window.Seconds()),
		burst:    max,
	}
}

// Allow reports whether identity may send now and consumes one slot if so.
// The lookup and insert run under one lock: concurrent first requests for an
// identity must all land on the same limiter, or a late Add would replace a
// limiter that has already consumed slots.
func (s *SendLimiter) Allow(identity string) bool {
	s.mu.Lock()
	limiter, ok := s.limiters.Get(identity)
	if !ok {
		limiter = rate.NewLimiter(s.limit, s.burst)
		s.limiters.Add(identity, limiter)
	}
	s.mu.Unlock()
	return limiter.Allow()
}

// Purge drops all cached limiters. Called on the janitor schedule so
// long-idle identities do not pin cache slots.
func (s *SendLimiter) Purge() {
	s.mu.Lock()
	s.limiters.Purge()
	s.mu.Unlock()
}

// RateLimitMiddleware keys on the session identity, so it must run inside
// SessionMiddleware.
func RateLimitMiddleware(limiter *SendLimiter) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			claims, ok := SessionFromContext(req.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody("missing session", nil))
				return
			}
			if !limiter.Allow(claims.Email) {
				writeJSON(w, http.StatusTooManyRequests, errorBody("too many requests, slow down", nil))
				return
			}
			next(w, req, params)
		}
	}
}
