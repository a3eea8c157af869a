package adapter

import (
	"context"
	"sync"
	"time"

	"quizforge/internal/domain"
)

type memoryEntry struct {
	fields    map[string]string
	expiresAt time.Time
}

// sweepInterval bounds how often a write scans for expired entries.
const sweepInterval = time.Minute

// MemoryCacheAdapter implements domain.Cache in process memory. It is used
// when no Redis address is configured; state does not survive restarts.
type MemoryCacheAdapter struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryCacheAdapter() *MemoryCacheAdapter {
	return &MemoryCacheAdapter{
		entries:   make(map[string]*memoryEntry),
		now:       time.Now,
		lastSweep: time.Now(),
	}
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// maybeSweep drops every expired entry, at most once per sweepInterval.
// Callers hold mu.
func (m *MemoryCacheAdapter) maybeSweep() {
	now := m.now()
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
}

// live returns the entry for key, dropping it first when expired. Callers hold mu.
func (m *MemoryCacheAdapter) live(key string) *memoryEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if e.expired(m.now()) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *MemoryCacheAdapter) HGet(_ context.Context, key, field string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return "", domain.ErrCacheMiss
	}
	val, ok := e.fields[field]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return val, nil
}

func (m *MemoryCacheAdapter) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string)
	if e := m.live(key); e != nil {
		for k, v := range e.fields {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryCacheAdapter) HSet(_ context.Context, key string, field string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep()
	e := m.live(key)
	if e == nil {
		e = &memoryEntry{fields: make(map[string]string)}
		m.entries[key] = e
	}
	e.fields[field] = value
	return nil
}

func (m *MemoryCacheAdapter) ReplaceHash(_ context.Context, key string, fields map[string]string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep()
	e := &memoryEntry{fields: make(map[string]string, len(fields))}
	for k, v := range fields {
		e.fields[k] = v
	}
	if expiration > 0 {
		e.expiresAt = m.now().Add(expiration)
	}
	m.entries[key] = e
	return nil
}

func (m *MemoryCacheAdapter) HSetIfEqual(_ context.Context, key, guardField, guardValue, field, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return false, nil
	}
	if current, ok := e.fields[guardField]; !ok || current != guardValue {
		return false, nil
	}
	e.fields[field] = value
	return true, nil
}

func (m *MemoryCacheAdapter) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Expire mirrors Redis: a non-positive duration deletes the key.
func (m *MemoryCacheAdapter) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return nil
	}
	if expiration <= 0 {
		delete(m.entries, key)
		return nil
	}
	e.expiresAt = m.now().Add(expiration)
	return nil
}

func (m *MemoryCacheAdapter) Ping(context.Context) error {
	return nil
}

var _ domain.Cache = (*MemoryCacheAdapter)(nil)
