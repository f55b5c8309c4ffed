// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

// Package ratelimit provides a keyed token bucket limiter used to slow down
// credential guessing against the login and registration endpoints.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Defaults.
const (
	// DefaultBurst is the number of attempts a client may make at once.
	DefaultBurst = 10

	// DefaultRate is the refill rate in attempts per second.
	DefaultRate = 0.2

	// MinRate bounds the refill rate from below.
	MinRate = 0.01

	DefaultCleanupInterval = 5 * time.Minute
	DefaultMaxAge          = time.Hour
)

// Config configures a Limiter. Zero fields take the defaults.
type Config struct {
	Burst           int
	Rate            float64 // tokens per second
	CleanupInterval time.Duration
	MaxAge          time.Duration
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter tracks one token bucket per key. It is safe for concurrent use.
//
// A background goroutine evicts idle keys; call Close to stop it.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	burst   int
	rate    float64
	maxAge  time.Duration
	now     func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup

	tracked prometheus.Gauge // nil without a registry
}

// New creates a Limiter and starts its cleanup goroutine. A non-nil reg
// receives a gauge of tracked keys.
func New(cfg Config, reg prometheus.Registerer) *Limiter {
	l := newLimiter(cfg, time.Now)
	if reg != nil {
		l.tracked = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "storytable_login_limiter_clients",
			Help: "Current number of clients tracked by the login rate limiter",
		})
		reg.MustRegister(l.tracked)
	}

	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	l.wg.Add(1)
	go l.cleanupLoop(interval)
	return l
}

func newLimiter(cfg Config, now func() time.Time) *Limiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultBurst
	}
	rate := cfg.Rate
	if rate <= 0 {
		rate = DefaultRate
	}
	if rate < MinRate {
		rate = MinRate
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		burst:   burst,
		rate:    rate,
		maxAge:  maxAge,
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Allow consumes a token for key. When none is left it returns false and
// the wait until the next token.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastCheck).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastCheck = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
	return false, wait
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Cleanup drops keys idle for longer than maxAge.
func (l *Limiter) Cleanup(maxAge time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := l.now().Add(-maxAge)
	for key, b := range l.buckets {
		if b.lastCheck.Before(threshold) {
			delete(l.buckets, key)
		}
	}
	if l.tracked != nil {
		l.tracked.Set(float64(len(l.buckets)))
	}
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	defer l.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Cleanup(l.maxAge)
		}
	}
}

// Close stops the cleanup goroutine and waits for it to exit.
func (l *Limiter) Close() {
	close(l.stop)
	l.wg.Wait()
}
