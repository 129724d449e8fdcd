package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore implements an in-memory LRU cache with TTL support
type MemoryStore struct {
	maxSize    int
	defaultTTL time.Duration
	items      map[string]*list.Element
	lru        *list.List
	mu         sync.Mutex
	now        func() time.Time
}

type memoryItem struct {
	key       string
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates a new memory cache
func NewMemoryStore(maxSize int, defaultTTL time.Duration) *MemoryStore {
	if maxSize < 1 {
		maxSize = 1
	}
	return &MemoryStore{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
	}
}

// Get retrieves an item from the memory cache
func (m *MemoryStore) Get(_ context.Context, key string, target any) (bool, error) {
	m.mu.Lock()
	element, exists := m.items[key]
	if !exists {
		m.mu.Unlock()
		return false, nil
	}

	item := element.Value.(*memoryItem)

	if m.now().After(item.expiresAt) {
		m.removeElement(element)
		m.mu.Unlock()
		return false, nil
	}

	m.lru.MoveToFront(element)
	data := item.data
	m.mu.Unlock()

	if err := decode(data, target); err != nil {
		return false, err
	}
	return true, nil
}

// Put stores an item in the memory cache
func (m *MemoryStore) Put(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.defaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item := &memoryItem{key: key, data: data, expiresAt: m.now().Add(ttl)}

	if element, exists := m.items[key]; exists {
		element.Value = item
		m.lru.MoveToFront(element)
		return nil
	}

	m.items[key] = m.lru.PushFront(item)
	m.evictIfNecessary()
	return nil
}

// Delete removes an item from the memory cache
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if element, exists := m.items[key]; exists {
		m.removeElement(element)
	}
	return nil
}

func (m *MemoryStore) removeElement(element *list.Element) {
	item := element.Value.(*memoryItem)
	delete(m.items, item.key)
	m.lru.Remove(element)
}

func (m *MemoryStore) evictIfNecessary() {
	for len(m.items) > m.maxSize {
		oldest := m.lru.Back()
		if oldest == nil {
			return
		}
		m.removeElement(oldest)
	}
}
