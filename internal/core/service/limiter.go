package service

import (
	"container/list"
	"sync"

	"golang.org/x/time/rate"
)

// DefaultLimiterCapacity bounds the number of tracked keys.
const DefaultLimiterCapacity = 10000

// LimiterRegistry hands out one token-bucket limiter per key (client IP,
// source name). Least recently used keys are evicted past capacity.
type LimiterRegistry struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	key     string
	limiter *rate.Limiter
}

// NewLimiterRegistry creates a registry whose limiters allow limit events
// per second with the given burst.
func NewLimiterRegistry(limit rate.Limit, burst, capacity int) *LimiterRegistry {
	if capacity <= 0 {
		capacity = DefaultLimiterCapacity
	}
	return &LimiterRegistry{
		items:    make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		limit:    limit,
		burst:    burst,
	}
}

// Get returns the limiter for key, creating it if needed.
func (r *LimiterRegistry) Get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.items[key]; ok {
		r.order.MoveToFront(elem)
		return elem.Value.(*limiterEntry).limiter
	}

	for r.order.Len() >= r.capacity {
		oldest := r.order.Back()
		delete(r.items, oldest.Value.(*limiterEntry).key)
		r.order.Remove(oldest)
	}

	entry := &limiterEntry{key: key, limiter: rate.NewLimiter(r.limit, r.burst)}
	r.items[key] = r.order.PushFront(entry)
	return entry.limiter
}

// Allow reports whether an event for key may happen now.
func (r *LimiterRegistry) Allow(key string) bool {
	return r.Get(key).Allow()
}

// Delete forgets key.
func (r *LimiterRegistry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elem, ok := r.items[key]; ok {
		r.order.Remove(elem)
		delete(r.items, key)
	}
}

// Len returns the number of tracked keys.
func (r *LimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
