package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 50
)

// Memory is a bounded in-memory cache. Once the bound is exceeded the oldest
// inserted key is dropped; reads do not change the order.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	items map[string]*list.Element
	order *list.List // front = oldest insertion
}

type item struct {
	key   string
	entry Entry
}

type Option func(*Memory)

func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) { m.ttl = ttl }
}

func WithMaxEntries(n int) Option {
	return func(m *Memory) { m.maxEntries = n }
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty cache with a 5 minute lifetime and a 50 entry bound.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		ttl:        DefaultTTL,
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Read implements Reader interface
func (m *Memory) Read(key string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*item).entry
	return &e, e.Valid(m.now())
}

// Write implements Writer interface. Overwriting a key refreshes its expiry
// but keeps its insertion position.
func (m *Memory) Write(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := Entry{Value: value, Expiry: m.now().Add(m.ttl)}
	if el, ok := m.items[key]; ok {
		el.Value.(*item).entry = entry
		return
	}
	m.items[key] = m.order.PushBack(&item{key: key, entry: entry})

	if m.maxEntries > 0 && m.order.Len() > m.maxEntries {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.items, oldest.Value.(*item).key)
	}
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(key)
}

// DeletePrefix removes every key starting with prefix and returns how many went.
func (m *Memory) DeletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			m.deleteLocked(key)
			n++
		}
	}
	return n
}

func (m *Memory) deleteLocked(key string) {
	if el, ok := m.items[key]; ok {
		m.order.Remove(el)
		delete(m.items, key)
	}
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Keys returns the cached keys, oldest insertion first.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, m.order.Len())
	for el := m.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*item).key)
	}
	return keys
}

var _ Cache = (*Memory)(nil)
