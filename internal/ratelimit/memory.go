package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rajasatyajit/lifesaver/internal/logger"
	"golang.org/x/time/rate"
)

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per client in process memory. Each
// bucket holds a single token that refills once per window.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	clock   clockwork.Clock
	clients map[string]*client
}

// NewMemoryLimiter creates a limiter; a nil clock means real time
func NewMemoryLimiter(window time.Duration, clock clockwork.Clock) *MemoryLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryLimiter{
		window:  window,
		clock:   clock,
		clients: make(map[string]*client),
	}
}

// Allow consumes the client's token if one is available
func (m *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	c, ok := m.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Every(m.window), 1)}
		m.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// Sweep forgets clients idle for longer than the window. Their buckets are
// full again, so dropping them changes no decision.
func (m *MemoryLimiter) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	removed := 0
	for key, c := range m.clients {
		if now.Sub(c.lastSeen) > m.window {
			delete(m.clients, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked clients
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Run sweeps once per window until ctx is done
func (m *MemoryLimiter) Run(ctx context.Context) error {
	ticker := m.clock.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			if n := m.Sweep(); n > 0 {
				logger.Debug("Swept idle submission clients", "removed", n)
			}
		}
	}
}
