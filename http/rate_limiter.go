package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const sweepInterval = 30 * time.Minute

// RateLimiter keeps a token bucket per client. Each bucket holds capacity
// tokens and refills continuously at capacity per window.
type RateLimiter struct {
	mu       sync.Mutex
	capacity int
	every    rate.Limit
	buckets  map[string]*rate.Limiter
	now      func() time.Time

	stopOnce  sync.Once
	stop      chan struct{}
	sweepDone chan struct{}
}

func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		capacity:  capacity,
		every:     rate.Every(window / time.Duration(max(capacity, 1))),
		buckets:   make(map[string]*rate.Limiter),
		now:       time.Now,
		stop:      make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// Allow spends a token for client. When none is left it reports false and
// how long until the next token arrives.
func (r *RateLimiter) Allow(client string) (bool, time.Duration) {
	now := r.now()
	bucket := r.bucket(client)

	if bucket.AllowN(now, 1) {
		return true, 0
	}
	if r.every <= 0 {
		return false, 0
	}
	missing := 1 - bucket.TokensAt(now)
	return false, time.Duration(missing / float64(r.every) * float64(time.Second))
}

func (r *RateLimiter) bucket(client string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.buckets[client]
	if !ok {
		bucket = rate.NewLimiter(r.every, r.capacity)
		r.buckets[client] = bucket
	}
	return bucket
}

// sweep forgets clients whose bucket has refilled completely; a new bucket
// would behave identically.
func (r *RateLimiter) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for client, bucket := range r.buckets {
		if bucket.TokensAt(now) >= float64(r.capacity) {
			delete(r.buckets, client)
		}
	}
}

func (r *RateLimiter) sweepLoop() {
	defer close(r.sweepDone)

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

// Stop ends the background sweep and waits for it. It is safe to call more
// than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		<-r.sweepDone
	})
}

func (r *RateLimiter) clientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}
