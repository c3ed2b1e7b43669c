package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type memoryManager struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewMemoryManager builds an in-memory Manager whose sessions expire
// after ttl of inactivity. Expiry is sliding: every Get or GetOrCreate
// on an existing session restarts the clock.
func NewMemoryManager(ttl time.Duration) Manager {
	cleanup := ttl
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &memoryManager{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

func (m *memoryManager) Get(sender string) (*Session, bool) {
	v, ok := m.cache.Get(sender)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	m.cache.Set(sender, s, m.ttl)
	return s, true
}

func (m *memoryManager) GetOrCreate(sender string) *Session {
	if s, ok := m.Get(sender); ok {
		return s
	}
	s := &Session{}
	m.cache.Set(sender, s, m.ttl)
	return s
}

func (m *memoryManager) Clear(sender string) {
	m.cache.Delete(sender)
}
