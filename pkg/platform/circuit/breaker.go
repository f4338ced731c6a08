// Package circuit provides a consecutive-failure circuit breaker for optional
// dependencies such as caches.
package circuit

import (
	"sync"
	"time"
)

// Breaker opens after a run of consecutive failures and stays open for the
// cooldown. Once the cooldown passes it lets calls through again; the next
// failure reopens it and the next success closes it.
type Breaker struct {
	mu sync.Mutex

	name      string
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	failures  int
	openUntil time.Time
}

type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:      name,
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// Allow reports whether a call may go to the dependency.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.openLocked()
}

// IsOpen reports whether calls are currently being rejected.
func (b *Breaker) IsOpen() bool {
	return !b.Allow()
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openUntil = time.Time{}
}

// RecordFailure counts a failure and reports whether it opened the circuit.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openLocked() {
		return false
	}
	b.failures++
	if b.failures < b.threshold {
		return false
	}
	b.openUntil = b.now().Add(b.cooldown)
	return true
}

func (b *Breaker) Reset() {
	b.RecordSuccess()
}

func (b *Breaker) openLocked() bool {
	return b.failures >= b.threshold && b.now().Before(b.openUntil)
}
