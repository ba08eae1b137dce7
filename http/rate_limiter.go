package http

import (
	"sync"
	"time"
)

const (
	idleBucketTTL = 1 * time.Hour
	sweepInterval = 30 * time.Minute
)

// bucket tracks one client's quota for the current window.
type bucket struct {
	remaining   int
	windowStart time.Time
}

// RateLimiter grants each client capacity requests per window. A window
// opens with the client's first request and the quota is restored in full
// once it has elapsed. Clients idle for idleBucketTTL are forgotten by a
// background sweep that runs until Stop.
type RateLimiter struct {
	mu       sync.Mutex
	capacity int
	window   time.Duration
	buckets  map[string]*bucket
	now      func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		capacity: capacity,
		window:   window,
		buckets:  make(map[string]*bucket),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (r *RateLimiter) sweepLoop() {
	defer close(r.done)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}

func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idleBucketTTL)
	for client, b := range r.buckets {
		if b.windowStart.Before(cutoff) {
			delete(r.buckets, client)
		}
	}
}

// Stop ends the sweep loop and waits for it. Safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// Allow consumes one request of the client's quota. When the quota is spent
// it reports how long until the client's window reopens.
func (r *RateLimiter) Allow(client string) (bool, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.buckets[client]
	if !ok || now.Sub(b.windowStart) >= r.window {
		if !ok {
			b = &bucket{}
			r.buckets[client] = b
		}
		b.remaining = r.capacity
		b.windowStart = now
	}

	if b.remaining <= 0 {
		return false, b.windowStart.Add(r.window).Sub(now)
	}
	b.remaining--
	return true, 0
}

func (r *RateLimiter) clientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
