// Package ratelimit throttles write requests per client with a token bucket.
package ratelimit

import (
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"saldo/internal/cache"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// Burst defaults to RequestsPerMinute.
	Burst int
	// MaxClients bounds the number of tracked clients.
	MaxClients int
	// IdleTTL drops a client's bucket after this long without requests.
	IdleTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		MaxClients:        10000,
		IdleTTL:           10 * time.Minute,
	}
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	clients *cache.LRUCache[*rate.Limiter]
	limit   rate.Limit
	burst   int
	hits    int64
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.Burst <= 0 {
		config.Burst = config.RequestsPerMinute
	}
	if config.MaxClients <= 0 {
		config.MaxClients = def.MaxClients
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}
	return &Limiter{
		clients: cache.NewLRUCache[*rate.Limiter](config.MaxClients, config.IdleTTL),
		limit:   rate.Every(time.Minute / time.Duration(config.RequestsPerMinute)),
		burst:   config.Burst,
	}
}

// Allow reports whether a request from clientIP may proceed.
func (rl *Limiter) Allow(clientIP string) bool {
	lim, ok := rl.clients.Get(clientIP)
	if !ok {
		lim = rate.NewLimiter(rl.limit, rl.burst)
		rl.clients.Set(clientIP, lim)
	}
	if lim.Allow() {
		return true
	}
	atomic.AddInt64(&rl.hits, 1)
	return false
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	return rl.clients.Size()
}

// Cleaner exposes the client table for periodic expiry.
func (rl *Limiter) Cleaner() cache.Cleaner {
	return rl.clients
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   atomic.LoadInt64(&rl.hits),
		ClientCount: int64(rl.clients.Size()),
	}
}

// Middleware limits only state-changing methods; reads pass through.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.Allow(extractIP(r)) {
				if onLimit != nil {
					onLimit(w, r)
				} else {
					w.Header().Set("Retry-After", "60")
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
