package httpmiddleware

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures per-key request rate limiting.
type RateLimitConfig struct {
	// Max is the number of requests allowed per Window. It is also the
	// burst size, so an idle client may send up to Max requests at once.
	Max int
	// Window is the period over which Max requests are allowed.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. When nil the
	// client IP is used.
	KeyFunc func(*http.Request) string
}

// client is a token bucket for a single key. lastSeen drives eviction.
type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	cfg     RateLimitConfig
	refill  rate.Limit
	mu      sync.Mutex
	clients map[string]*client
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIP
	}
	return &limiter{
		cfg:     cfg,
		refill:  rate.Every(cfg.Window / time.Duration(cfg.Max)),
		clients: make(map[string]*client),
	}
}

// take returns the bucket for key, creating it on first use.
func (l *limiter) take(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.refill, l.cfg.Max)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.bucket
}

// evict drops buckets that have been idle long enough to be full again.
func (l *limiter) evict(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > 3*l.cfg.Window {
			delete(l.clients, key)
		}
	}
}

// RateLimit returns a middleware that enforces a per-key token bucket
// rate limit. Rejected requests get a 429 with a JSON body and a
// Retry-After header. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining.
//
// Buckets are kept for the lifetime of the process; use
// RateLimitWithCleanup to evict idle keys.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that
// evicts buckets idle for more than three windows. The goroutine exits
// when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.evict(now)
			}
		}
	}()
	return l.middleware()
}

func (l *limiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := l.take(l.cfg.KeyFunc(r), time.Now())
			allowed := bucket.Allow()

			remaining := int(bucket.Tokens())
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				// One refill interval until the next token.
				retry := math.Ceil((l.cfg.Window / time.Duration(l.cfg.Max)).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(retry)))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"code":    429,
					"message": "rate limit exceeded",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP picks the best available client address: the first entry of
// X-Forwarded-For, then X-Real-IP, then the connection's remote host.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
