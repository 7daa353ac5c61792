package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig configures the per-IP HTTP limiters guarding the
// control surface itself (connection volume). It sits one layer above
// internal/command.RateLimiter's per-actor command throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64       // read-route (GET) budget per IP
	Burst             int           // read-route burst
	MutateFraction    float64       // mutating routes get RequestsPerSecond*MutateFraction
	CleanupInterval   time.Duration // how often stale per-IP entries are dropped
}

// DefaultRateLimitConfig returns production-safe defaults. Mutating
// routes (POST/DELETE, which enqueue onto command.Queue) get half the
// budget of reads: a burst that would still clear the HTTP gate can be
// absorbed or dropped by the queue's own bound
// (config.ResourceLimits.MaxCommandQueue, surfaced as
// command_queue_dropped_total), but there is no reason to let a single
// IP spend that budget before a single real client even gets a turn.
var DefaultRateLimitConfig = RateLimitConfig{
	RequestsPerSecond: 10,
	Burst:             20,
	MutateFraction:    0.5,
	CleanupInterval:   5 * time.Minute,
}

// ipLimiters holds the two token buckets tracked per source IP.
type ipLimiters struct {
	read     *rate.Limiter
	mutate   *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter rate-limits HTTP requests per source IP, split into a
// read budget and a smaller mutate budget so that polling the snapshot
// feed never starves a client's own command throughput and vice versa.
type IPRateLimiter struct {
	mu       sync.Mutex
	perIP    map[string]*ipLimiters
	cfg      RateLimitConfig
	stopChan chan struct{}
	stopOnce sync.Once

	allowed  atomic.Uint64
	rejected atomic.Uint64
}

// NewIPRateLimiter creates a new IP-based rate limiter and starts its
// stale-entry cleanup loop.
func NewIPRateLimiter(cfg RateLimitConfig) *IPRateLimiter {
	rl := &IPRateLimiter{
		perIP:    make(map[string]*ipLimiters),
		cfg:      cfg,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop stops the cleanup goroutine.
func (rl *IPRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *IPRateLimiter) limitersFor(ip string) *ipLimiters {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.perIP[ip]
	if !ok {
		mutateRPS := rl.cfg.RequestsPerSecond * rl.cfg.MutateFraction
		mutateBurst := int(float64(rl.cfg.Burst) * rl.cfg.MutateFraction)
		if mutateBurst < 1 {
			mutateBurst = 1
		}
		l = &ipLimiters{
			read:   rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst),
			mutate: rate.NewLimiter(rate.Limit(mutateRPS), mutateBurst),
		}
		rl.perIP[ip] = l
	}
	l.lastSeen = time.Now()
	return l
}

func (rl *IPRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopChan:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *IPRateLimiter) cleanup() {
	cutoff := time.Now().Add(-rl.cfg.CleanupInterval * 2)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, l := range rl.perIP {
		if l.lastSeen.Before(cutoff) {
			delete(rl.perIP, ip)
		}
	}
}

func (rl *IPRateLimiter) allow(l *rate.Limiter) bool {
	if l.Allow() {
		rl.allowed.Add(1)
		return true
	}
	rl.rejected.Add(1)
	return false
}

// Allow checks the read budget for ip.
func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.allow(rl.limitersFor(ip).read)
}

// AllowMutate checks the smaller mutating-route budget for ip.
func (rl *IPRateLimiter) AllowMutate(ip string) bool {
	return rl.allow(rl.limitersFor(ip).mutate)
}

// Middleware returns an HTTP middleware that routes each request to the
// read or mutate budget by method.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetClientIP(r)
		ok := rl.Allow(ip)
		if isMutatingMethod(r.Method) {
			ok = rl.AllowMutate(ip)
		}
		if !ok {
			RecordConnectionRejected("rate_limit")
			w.Header().Set("Retry-After", "1")
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isMutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// GetStats returns aggregate allow/reject counters across all IPs.
func (rl *IPRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{
		"allowed":  rl.allowed.Load(),
		"rejected": rl.rejected.Load(),
	}
}

// GetClientIP extracts the client IP from an HTTP request, honoring
// X-Forwarded-For/X-Real-IP for proxied deployments.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// WebSocketRateLimiter limits concurrent WebSocket connections per IP,
// bounding how many snapshot-feed subscribers one client can open.
type WebSocketRateLimiter struct {
	mu          sync.Mutex
	connections map[string]int
	maxPerIP    int

	rejected atomic.Uint64
}

// NewWebSocketRateLimiter creates a WebSocket connection limiter.
func NewWebSocketRateLimiter(maxPerIP int) *WebSocketRateLimiter {
	return &WebSocketRateLimiter{connections: make(map[string]int), maxPerIP: maxPerIP}
}

// Allow checks if a new WebSocket connection from this IP is allowed.
func (wrl *WebSocketRateLimiter) Allow(ip string) bool {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	if wrl.connections[ip] >= wrl.maxPerIP {
		wrl.rejected.Add(1)
		return false
	}
	wrl.connections[ip]++
	return true
}

// Release decrements the connection count for this IP.
func (wrl *WebSocketRateLimiter) Release(ip string) {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	if wrl.connections[ip] > 0 {
		wrl.connections[ip]--
		if wrl.connections[ip] == 0 {
			delete(wrl.connections, ip)
		}
	}
}

// GetConnectionCount returns the current connection count for an IP.
func (wrl *WebSocketRateLimiter) GetConnectionCount(ip string) int {
	wrl.mu.Lock()
	defer wrl.mu.Unlock()
	return wrl.connections[ip]
}

// GetStats returns WebSocket rate limiter statistics.
func (wrl *WebSocketRateLimiter) GetStats() map[string]uint64 {
	return map[string]uint64{"rejected": wrl.rejected.Load()}
}

// AllowedOrigins defines the allowed origins for CORS and WebSocket.
// Local/test origins only; deployments behind a real front-end should
// override via RouterConfig.CORSOrigins.
var AllowedOrigins = []string{
	"http://localhost",
	"http://localhost:3000",
	"http://localhost:8080",
}

// IsAllowedOrigin checks if an origin is in the allowed list.
func IsAllowedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, "http://localhost") {
		return true
	}
	for _, allowed := range AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
