package main

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olgasafonova/gramps-mcp-server/metrics"
	"golang.org/x/time/rate"
)

const (
	// limiterIdleTTL drops per-IP limiters that have not been used for a while
	limiterIdleTTL = 10 * time.Minute

	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"
)

// RateLimiter is a per-IP token bucket. Each IP may burst up to rate requests
// and regains one token every interval/rate.
type RateLimiter struct {
	rate     int
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*ipLimiter

	stopCh    chan struct{}
	closeOnce sync.Once
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing n requests per interval per IP.
func NewRateLimiter(n int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		rate:     n,
		interval: interval,
		limiters: make(map[string]*ipLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a request from ip may proceed.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rate.Every(rl.interval/time.Duration(rl.rate)), rl.rate)}
		rl.limiters[ip] = l
	}
	l.lastSeen = time.Now()
	rl.mu.Unlock()

	return l.limiter.Allow()
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stopCh:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, l := range rl.limiters {
				if now.Sub(l.lastSeen) > limiterIdleTTL {
					delete(rl.limiters, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// SecurityConfig configures the HTTP security middleware.
type SecurityConfig struct {
	// RateLimit is requests per minute per client IP; 0 disables limiting
	RateLimit int
	// MaxBodySize caps request bodies in bytes; 0 disables the cap
	MaxBodySize int64
	// TrustProxy takes the client IP from X-Forwarded-For
	TrustProxy bool
}

// SecurityMiddleware wraps the HTTP transport with rate limiting, body size
// limits, request IDs, access logging and metrics.
type SecurityMiddleware struct {
	next    http.Handler
	logger  *slog.Logger
	config  SecurityConfig
	limiter *RateLimiter
}

// NewSecurityMiddleware wraps next.
func NewSecurityMiddleware(next http.Handler, logger *slog.Logger, config SecurityConfig) *SecurityMiddleware {
	sm := &SecurityMiddleware{
		next:   next,
		logger: logger,
		config: config,
	}
	if config.RateLimit > 0 {
		sm.limiter = NewRateLimiter(config.RateLimit, time.Minute)
	}
	return sm
}

// Close releases the rate limiter.
func (sm *SecurityMiddleware) Close() {
	if sm.limiter != nil {
		sm.limiter.Close()
	}
}

func (sm *SecurityMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	ip := sm.clientIP(r)

	defer func() {
		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
		sm.logger.Info("HTTP request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote_ip", ip,
			"duration_ms", duration.Milliseconds(),
		)
	}()

	if sm.limiter != nil && !sm.limiter.Allow(ip) {
		metrics.RateLimitRejections.Inc()
		rec.Header().Set("Retry-After", "60")
		http.Error(rec, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	if sm.config.MaxBodySize > 0 {
		if r.ContentLength > sm.config.MaxBodySize {
			http.Error(rec, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(rec, r.Body, sm.config.MaxBodySize)
	}

	sm.next.ServeHTTP(rec, r)
}

func (sm *SecurityMiddleware) clientIP(r *http.Request) string {
	if sm.config.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder captures the response status. Unwrap keeps flushing available
// to http.ResponseController for streamed MCP responses.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
