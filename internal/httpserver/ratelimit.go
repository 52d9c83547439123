package httpserver

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/fdg312/meal-planner/internal/config"
	"golang.org/x/time/rate"
)

// evictEvery: how many lookups pass between sweeps of idle clients.
const evictEvery = 1000

// clientLimiters keeps one token bucket per client address.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
	lookups int
}

func newClientLimiters(rps, burst int) *clientLimiters {
	if burst <= 0 {
		burst = rps
	}
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(rps),
		burst:   burst,
	}
}

func (c *clientLimiters) allow(client string) bool {
	c.mu.Lock()
	b, ok := c.buckets[client]
	if !ok {
		b = rate.NewLimiter(c.limit, c.burst)
		c.buckets[client] = b
	}
	c.lookups++
	if c.lookups%evictEvery == 0 {
		c.evictIdle()
	}
	c.mu.Unlock()

	return b.Allow()
}

// evictIdle drops clients whose bucket has refilled; caller holds mu.
func (c *clientLimiters) evictIdle() {
	for client, b := range c.buckets {
		if b.Tokens() >= float64(c.burst) {
			delete(c.buckets, client)
		}
	}
}

// RateLimitMiddleware limits requests per client address with a token bucket.
// /healthz is never limited. RateLimitRPS <= 0 disables the middleware.
func RateLimitMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	if cfg.RateLimitRPS <= 0 {
		return next
	}

	limiters := newClientLimiters(cfg.RateLimitRPS, cfg.RateLimitBurst)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || limiters.allow(clientAddr(r)) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "rate_limited",
				"message": "Too many requests",
			},
		})
	})
}

// clientAddr берёт первый адрес из X-Forwarded-For, иначе хост RemoteAddr.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
