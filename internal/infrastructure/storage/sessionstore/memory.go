package sessionstore

import (
	"context"
	"sync"
	"time"

	"nedlog/internal/domain/session"
	"nedlog/pkg/logger"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps encoded sessions in process memory with a TTL.
// Values are stored encoded so callers never share a Session.
type MemoryStore struct {
	codec *Codec
	ttl   time.Duration
	now   func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(codec *Codec, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		codec:   codec,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// Start runs the janitor that drops expired sessions every interval.
func (m *MemoryStore) Start(ctx context.Context, interval time.Duration) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logger.Debug(ctx, "expired analysis sessions removed", "count", n)
				}
			}
		}
	}()
}

// Stop stops the janitor.
func (m *MemoryStore) Stop() {
	m.lifecycleMu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Sweep removes expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Save stores s and resets its TTL.
func (m *MemoryStore) Save(_ context.Context, s *session.Session) error {
	data, err := m.codec.Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[s.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the session.
func (m *MemoryStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok || m.now().After(e.expiresAt) {
		return nil, session.NotFound(id)
	}
	return m.codec.Decode(e.data)
}

// Update applies fn under the store lock. The TTL is kept.
func (m *MemoryStore) Update(_ context.Context, id string, fn func(*session.Session) error) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok || m.now().After(e.expiresAt) {
		return nil, session.NotFound(id)
	}

	s, err := m.codec.Decode(e.data)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	data, err := m.codec.Encode(s)
	if err != nil {
		return nil, err
	}
	m.entries[id] = memoryEntry{data: data, expiresAt: e.expiresAt}
	return s, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

var _ session.Store = (*MemoryStore)(nil)
