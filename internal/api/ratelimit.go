package api

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// staleLimiterTTL is how long a per-IP limiter can be idle before cleanup.
	staleLimiterTTL = 10 * time.Minute

	cleanupInterval = 1 * time.Minute
)

type endpointLimit struct {
	rps   rate.Limit
	burst int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type endpointRule struct {
	method string // "" matches any method
	prefix string
	limit  endpointLimit
	shared bool
}

// RateLimitMiddleware provides per-endpoint, per-IP rate limiting.
// Faucet and claim get the tight limit; everything else the default one.
type RateLimitMiddleware struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry // key: "endpoint|clientIP"
	rules    []endpointRule
	shared   SharedLimiter
	trusted  []netip.Prefix
	logger   *slog.Logger
	nowFunc  func() time.Time
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimitMiddleware allows perMinute faucet and claim requests per client.
// Call Stop() to release the cleanup goroutine.
func NewRateLimitMiddleware(logger *slog.Logger, perMinute int) *RateLimitMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	if perMinute <= 0 {
		perMinute = 6
	}
	tight := endpointLimit{rps: rate.Limit(float64(perMinute) / 60), burst: 1}

	rl := &RateLimitMiddleware{
		limiters: make(map[string]*limiterEntry),
		logger:   logger,
		nowFunc:  time.Now,
		stopCh:   make(chan struct{}),
		rules: []endpointRule{
			{method: http.MethodPost, prefix: "/wallet/faucet", limit: tight, shared: true},
			{method: http.MethodPost, prefix: "/wallet/claim", limit: tight, shared: true},
			{method: "", prefix: "", limit: endpointLimit{rps: 10, burst: 20}},
		},
	}

	go rl.cleanupLoop()
	return rl
}

// UseShared makes faucet and claim limits hold across every process sharing s
func (rl *RateLimitMiddleware) UseShared(s SharedLimiter) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.shared = s
}

// Stop shuts down the cleanup goroutine. Safe to call multiple times.
func (rl *RateLimitMiddleware) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
	})
}

func (rl *RateLimitMiddleware) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictStale()
		}
	}
}

func (rl *RateLimitMiddleware) evictStale() {
	now := rl.nowFunc()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > staleLimiterTTL {
			delete(rl.limiters, key)
		}
	}
}

// LimiterCount returns the number of active limiter entries
func (rl *RateLimitMiddleware) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Wrap applies per-IP rate limiting before delegating to next.
func (rl *RateLimitMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := rl.clientIP(r)
		endpointKey := rl.resolveEndpointKey(r.Method, r.URL.Path)

		key := endpointKey + "|" + clientIP

		if shared := rl.sharedFor(endpointKey); shared != nil {
			allowed, retryAfter, err := shared.Allow(r.Context(), key)
			switch {
			case err != nil:
				rl.logger.Warn("shared rate limiter unavailable, using local limit", "error", err)
			case !allowed:
				rl.reject(w, r, clientIP, retryAfter)
				return
			}
		}

		limiter := rl.getOrCreateLimiter(key, endpointKey)
		if !limiter.Allow() {
			rl.reject(w, r, clientIP, time.Minute)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimitMiddleware) reject(w http.ResponseWriter, r *http.Request, clientIP string, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"rate limit exceeded","code":"rate_limited"}`))
	rl.logger.Warn("rate limit exceeded",
		"method", r.Method,
		"path", r.URL.Path,
		"client_ip", clientIP,
	)
}

// sharedFor returns the shared limiter when endpointKey belongs to a shared rule
func (rl *RateLimitMiddleware) sharedFor(endpointKey string) SharedLimiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.shared == nil {
		return nil
	}
	for _, rule := range rl.rules {
		if rule.shared && fmt.Sprintf("%s:%s", rule.method, rule.prefix) == endpointKey {
			return rl.shared
		}
	}
	return nil
}

// TrustProxies lists the proxy addresses (IPs or CIDRs) whose X-Forwarded-For
// and X-Real-IP headers are believed. Without it only RemoteAddr is used.
func (rl *RateLimitMiddleware) TrustProxies(proxies []string) error {
	prefixes := make([]netip.Prefix, 0, len(proxies))
	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "/") {
			prefix, err := netip.ParsePrefix(p)
			if err != nil {
				return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(p)
		if err != nil {
			return fmt.Errorf("invalid trusted proxy %q: %w", p, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.trusted = prefixes
	return nil
}

func (rl *RateLimitMiddleware) isTrusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for _, p := range rl.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// clientIP is the peer address. Forwarding headers count only when the peer
// is a trusted proxy; X-Forwarded-For is walked right to left and the first
// untrusted hop wins.
func (rl *RateLimitMiddleware) clientIP(r *http.Request) string {
	peer := remoteHost(r)
	if !rl.isTrusted(peer) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !rl.isTrusted(hop) {
				return hop
			}
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (rl *RateLimitMiddleware) resolveEndpointKey(method, path string) string {
	for _, rule := range rl.rules {
		if rule.method != "" && !strings.EqualFold(rule.method, method) {
			continue
		}
		if rule.prefix != "" && !strings.HasPrefix(path, rule.prefix) {
			continue
		}
		return fmt.Sprintf("%s:%s", rule.method, rule.prefix)
	}
	return "default"
}

func (rl *RateLimitMiddleware) getOrCreateLimiter(key, endpointKey string) *rate.Limiter {
	now := rl.nowFunc()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.limiters[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	el := rl.resolveLimit(endpointKey)
	limiter := rate.NewLimiter(el.rps, el.burst)
	rl.limiters[key] = &limiterEntry{limiter: limiter, lastSeen: now}
	return limiter
}

func (rl *RateLimitMiddleware) resolveLimit(endpointKey string) endpointLimit {
	for _, rule := range rl.rules {
		if fmt.Sprintf("%s:%s", rule.method, rule.prefix) == endpointKey {
			return rule.limit
		}
	}
	return endpointLimit{rps: 10, burst: 20}
}
