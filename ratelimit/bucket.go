// Package ratelimit limits how often one client may post the contact
// form. Limits are kept in memory (token bucket per key) or in Redis
// (fixed window shared by every instance).
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// KeyLimiter keeps one token bucket per key (usually client IP).
type KeyLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	rate    rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewKeyLimiter allows limit requests per window with bursts of up to
// burst (limit when burst <= 0). Keys idle for ttl are dropped by a
// background sweeper that runs until Close.
func NewKeyLimiter(limit int, window time.Duration, burst int, ttl time.Duration) *KeyLimiter {
	if burst <= 0 {
		burst = limit
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	kl := &KeyLimiter{
		entries: make(map[string]*entry),
		rate:    rate.Limit(float64(limit) / window.Seconds()),
		burst:   burst,
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go kl.sweep()
	return kl
}

// Allow takes one token for key. When refused it returns how long until
// a token is available.
func (kl *KeyLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.now()
	e, ok := kl.entries[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(kl.rate, kl.burst)}
		kl.entries[key] = e
	}
	e.lastSeen = now

	if e.lim.AllowN(now, 1) {
		return true, 0, nil
	}
	if kl.rate <= 0 {
		return false, time.Hour, nil
	}
	missing := 1 - e.lim.TokensAt(now)
	wait := time.Duration(math.Ceil(missing/float64(kl.rate)*1000)) * time.Millisecond
	return false, wait, nil
}

// Size returns the number of tracked keys.
func (kl *KeyLimiter) Size() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.entries)
}

// Close stops the sweeper.
func (kl *KeyLimiter) Close() error {
	kl.once.Do(func() { close(kl.stop) })
	return nil
}

func (kl *KeyLimiter) sweep() {
	ticker := time.NewTicker(kl.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-kl.stop:
			return
		case <-ticker.C:
			kl.evict()
		}
	}
}

func (kl *KeyLimiter) evict() {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	now := kl.now()
	for key, e := range kl.entries {
		if now.Sub(e.lastSeen) > kl.ttl {
			delete(kl.entries, key)
		}
	}
}
