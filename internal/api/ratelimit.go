package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Buckets idle longer than bucketTTL are dropped on the next sweep.
const (
	sweepInterval = 5 * time.Minute
	bucketTTL     = 10 * time.Minute
)

// ipLimiter hands out one token bucket per client IP. Stale buckets are
// swept during allow calls once sweepInterval has passed, so an idle
// server holds no timers and no goroutines.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	rps       rate.Limit
	burst     int
	nextSweep time.Time
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		buckets:   make(map[string]*bucket),
		rps:       rate.Limit(rps),
		burst:     burst,
		nextSweep: time.Now().Add(sweepInterval),
	}
}

// allow takes one token from ip's bucket, creating the bucket on first
// sight. A fresh bucket starts full, so a new client gets its whole burst.
func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.nextSweep) {
		for ip, b := range l.buckets {
			if now.Sub(b.seen) > bucketTTL {
				delete(l.buckets, ip)
			}
		}
		l.nextSweep = now.Add(sweepInterval)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.rps, l.burst)}
		l.buckets[ip] = b
	}
	b.seen = now
	return b.lim.Allow()
}

// rateLimitMiddleware rejects requests from IPs that have exhausted their
// token bucket with a 429 and a Retry-After hint.
func rateLimitMiddleware(l *ipLimiter, trustProxy bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			if !l.allow(ip) {
				logger.Warn("rate limit exceeded",
					"ip", ip,
					"path", r.URL.Path,
					"method", r.Method,
				)
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP keys the rate limiter. Behind a reverse proxy every request
// shares the proxy's RemoteAddr, so with trustProxy the proxy-set headers
// are consulted first; without it they are attacker-controlled and ignored.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := proxyIP(r); ip != "" {
			return ip
		}
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// proxyIP reads X-Real-IP, then the first X-Forwarded-For entry. Values
// that do not parse as an IP are discarded rather than used as limiter keys.
func proxyIP(r *http.Request) string {
	candidate := r.Header.Get("X-Real-IP")
	if candidate == "" {
		candidate, _, _ = strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
	}
	if ip := net.ParseIP(strings.TrimSpace(candidate)); ip != nil {
		return ip.String()
	}
	return ""
}
