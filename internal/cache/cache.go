// Package cache provides a generic in-memory LRU cache with TTL, used to
// memoize analysis reports between requests.
package cache

import (
	"sync"
	"time"
)

// Cache is the generic cache contract.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can purge expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager sweeps registered caches on a shared interval so each cache does
// not need its own goroutine.
type Manager struct {
	caches []Cleaner
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewManager() *Manager {
	return &Manager{quit: make(chan struct{})}
}

// Register adds a cache to the sweep. Not safe to call after StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup launches the background sweep.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for _, c := range m.caches {
					c.CleanExpired()
				}
			case <-m.quit:
				return
			}
		}
	}()
}

// Stop halts the sweep and waits for it to finish. Safe to call more than
// once.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.quit) })
	m.wg.Wait()
}
