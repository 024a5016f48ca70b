package repository

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key       string
	value     string
	expiresAt time.Time
}

// MemoryCache is a process-local CacheRepository bounded to maxEntries. The
// least recently used entry is evicted first. Expired entries are dropped on
// read and by the sweeper started with StartSweeper.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int
	ttl        time.Duration
	items      map[string]*list.Element
	order      *list.List // front is most recently used
	now        func() time.Time

	stopOnce  sync.Once
	stop      chan struct{}
	sweepDone chan struct{}
}

// NewMemoryCache creates a cache holding at most maxEntries values, each for
// ttl. A ttl of zero keeps values until they are evicted.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &MemoryCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return "", false
	}
	entry := elem.Value.(*memoryEntry)
	if m.expired(entry, m.now()) {
		m.remove(elem)
		return "", false
	}

	m.order.MoveToFront(elem)
	return entry.value, true
}

func (m *MemoryCache) Set(_ context.Context, key string, value string) error {
	entry := &memoryEntry{key: key, value: value}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.items[key]; ok {
		elem.Value = entry
		m.order.MoveToFront(elem)
		return nil
	}

	m.items[key] = m.order.PushFront(entry)
	for m.order.Len() > m.maxEntries {
		m.remove(m.order.Back())
	}
	return nil
}

// CleanExpired drops every expired entry and reports how many were removed.
func (m *MemoryCache) CleanExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for elem := m.order.Back(); elem != nil; {
		prev := elem.Prev()
		if m.expired(elem.Value.(*memoryEntry), now) {
			m.remove(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// StartSweeper runs CleanExpired every interval until Close. It must be
// called at most once.
func (m *MemoryCache) StartSweeper(interval time.Duration) {
	m.sweepDone = make(chan struct{})
	go func() {
		defer close(m.sweepDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.CleanExpired()
			case <-m.stop:
				return
			}
		}
	}()
}

// Close stops the sweeper and waits for it to exit. It is safe to call more
// than once, and without a sweeper.
func (m *MemoryCache) Close() error {
	m.stopOnce.Do(func() {
		close(m.stop)
		if m.sweepDone != nil {
			<-m.sweepDone
		}
	})
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *MemoryCache) expired(entry *memoryEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && now.After(entry.expiresAt)
}

func (m *MemoryCache) remove(elem *list.Element) {
	m.order.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).key)
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (string, bool) { return "", false }

func (NoopCache) Set(context.Context, string, string) error { return nil }
