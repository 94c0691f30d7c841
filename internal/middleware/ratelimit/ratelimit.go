// Package ratelimit throttles write requests per client IP with one-minute
// fixed windows.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Limiter counts requests per client in fixed one-minute windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow
	now     func() time.Time

	limit   int
	idleTTL time.Duration
	sweep   time.Duration

	rejected int64
	stop     chan struct{}
	stopOnce sync.Once
}

type clientWindow struct {
	opened   time.Time
	lastSeen time.Time
	count    int
}

type Config struct {
	RequestsPerMinute int
	// CleanupInterval is how often idle clients are swept.
	CleanupInterval time.Duration
	// IdleTTL drops a client that has not been seen for this long.
	IdleTTL time.Duration
	// Methods limits which request methods are counted. Empty means all.
	Methods []string
}

// DefaultConfig throttles POST requests only; projections read with GET
// are served from cache.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		CleanupInterval:   5 * time.Minute,
		IdleTTL:           10 * time.Minute,
		Methods:           []string{http.MethodPost},
	}
}

// NewLimiter starts the background sweep. Call Stop to release it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}
	if config.IdleTTL <= 0 {
		config.IdleTTL = def.IdleTTL
	}

	l := &Limiter{
		windows: make(map[string]*clientWindow),
		now:     time.Now,
		limit:   config.RequestsPerMinute,
		idleTTL: config.IdleTTL,
		sweep:   config.CleanupInterval,
		stop:    make(chan struct{}),
	}
	go l.sweepLoop()
	return l
}

// WithClock replaces the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	return l
}

// Allow records one request from clientIP and reports whether it fits in
// the client's current window.
func (l *Limiter) Allow(clientIP string) bool {
	ok, _ := l.take(clientIP)
	return ok
}

// take is Allow plus the time left until the client's window resets.
func (l *Limiter) take(clientIP string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, seen := l.windows[clientIP]
	if !seen || now.Sub(w.opened) >= window {
		w = &clientWindow{opened: now}
		l.windows[clientIP] = w
	}
	w.count++
	w.lastSeen = now

	if w.count > l.limit {
		atomic.AddInt64(&l.rejected, 1)
		return false, window - now.Sub(w.opened)
	}
	return true, 0
}

func (l *Limiter) sweepLoop() {
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than IdleTTL and
// returns how many were dropped.
func (l *Limiter) cleanupStaleEntries() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idleTTL)
	dropped := 0
	for ip, w := range l.windows {
		if w.lastSeen.Before(cutoff) {
			delete(l.windows, ip)
			dropped++
		}
	}
	return dropped
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the background sweep. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{
		TotalHits:   atomic.LoadInt64(&l.rejected),
		ClientCount: int64(l.ActiveClients()),
	}
}

// Middleware throttles requests whose method is in methods (all requests
// when methods is empty). Rejected requests get a Retry-After header in
// whole seconds and are passed to onLimit, or answered with a plain 429
// when onLimit is nil.
func (l *Limiter) Middleware(extractIP func(*http.Request) string, methods []string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	counted := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		counted[m] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := counted[r.Method]; len(counted) > 0 && !ok {
				next.ServeHTTP(w, r)
				return
			}
			ok, wait := l.take(extractIP(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			if onLimit == nil {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
