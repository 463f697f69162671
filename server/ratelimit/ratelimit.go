// Package ratelimit keeps one token bucket per client key, typically the
// caller's IP address.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter allows max requests per window for every key independently
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	window   time.Duration
	nowTime  func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type Option func(*Limiter)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(l *Limiter) {
		l.nowTime = nowFunc
	}
}

// New creates a limiter admitting bursts of up to max requests and refilling
// at max per window.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	if max < 1 {
		max = 1
	}
	l := &Limiter{
		visitors:    make(map[string]*visitor),
		limit:       rate.Every(window / time.Duration(max)),
		burst:       max,
		window:      window,
		nowTime:     time.Now,
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow consumes one request for key. When the request is refused the
// returned duration is how long the caller should wait.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	now := l.nowTime()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now

	if v.limiter.AllowN(now, 1) {
		return true, 0
	}
	r := v.limiter.ReserveN(now, 1)
	wait := r.DelayFrom(now)
	r.CancelAt(now)
	return false, wait
}

// StartCleanup evicts idle keys every interval until Stop is called
func (l *Limiter) StartCleanup(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Cleanup()
			case <-l.stopCleanup:
				return
			}
		}
	}()
}

// Cleanup removes keys idle for longer than the window and returns how many went
func (l *Limiter) Cleanup() int {
	now := l.nowTime()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.window {
			delete(l.visitors, key)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// ExtractIP returns the client address, preferring the first X-Forwarded-For
// hop, then X-Real-IP, then the connection's remote address.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
