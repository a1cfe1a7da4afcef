package http

import (
	"sync"
	"time"
)

// ipLimiter throttles requests per client IP with a fixed-window counter.
// Idle clients are dropped by a background sweep so the map stays bounded.
type ipLimiter struct {
	mu     sync.Mutex
	seen   map[string]*ipWindow
	limit  int
	window time.Duration
	stop   chan struct{}
	once   sync.Once
}

type ipWindow struct {
	start time.Time
	count int
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	l := &ipLimiter{
		seen:   make(map[string]*ipWindow),
		limit:  limit,
		window: window,
		stop:   make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *ipLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropIdle(10 * time.Minute)
		case <-l.stop:
			return
		}
	}
}

func (l *ipLimiter) dropIdle(age time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-age)
	for ip, w := range l.seen {
		if w.start.Before(cutoff) {
			delete(l.seen, ip)
		}
	}
}

func (l *ipLimiter) close() {
	l.once.Do(func() { close(l.stop) })
}

// allow reports whether the client may issue another request in its current
// window. A window opens on the first request and resets after it elapses.
func (l *ipLimiter) allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.seen[clientIP]
	if !ok || now.Sub(w.start) > l.window {
		l.seen[clientIP] = &ipWindow{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.limit
}
