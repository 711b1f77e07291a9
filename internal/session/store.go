package session

import (
	"context"
	"sync"
	"time"
)

// TTL is the fixed inactivity window after which a session expires
const TTL = 10 * time.Minute

// Store keeps per-identity sessions. Implementations must serialize
// expiry against explicit deletes for the same identity.
type Store interface {
	// Get returns the session for the identity, or nil when none exists
	Get(ctx context.Context, phone string) (*Session, error)
	// Put stores the session and arms (or re-arms) its inactivity timer
	Put(ctx context.Context, s *Session) error
	// Touch resets the inactivity timer without changing state
	Touch(ctx context.Context, phone string) error
	// Delete destroys the session and cancels its pending timer
	Delete(ctx context.Context, phone string) error
}

// ExpireFunc is called after a session is removed by the watchdog,
// outside the store lock.
type ExpireFunc func(s *Session)

// MemoryStore is the in-process Store: a keyed map plus one watchdog
// timer per session. Scoped to a single process instance.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	timers   map[string]*time.Timer
	onExpire ExpireFunc
	now      func() time.Time
}

// NewMemoryStore creates an in-memory store with the given inactivity
// window. onExpire may be nil.
func NewMemoryStore(ttl time.Duration, onExpire ExpireFunc) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		timers:   make(map[string]*time.Timer),
		onExpire: onExpire,
		now:      time.Now,
	}
}

// Get returns the session for the identity, or nil when none exists
func (m *MemoryStore) Get(_ context.Context, phone string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[phone], nil
}

// Put stores the session and re-arms its watchdog timer
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastActivity = m.now()
	m.sessions[s.Phone] = s
	m.armLocked(s.Phone, m.ttl)
	return nil
}

// Touch resets the inactivity timer for an existing session
func (m *MemoryStore) Touch(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[phone]
	if !ok {
		return nil
	}
	s.LastActivity = m.now()
	m.armLocked(phone, m.ttl)
	return nil
}

// Delete destroys the session and cancels the pending timer, so a stale
// timer can never fire against a reused identity.
func (m *MemoryStore) Delete(_ context.Context, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(phone)
	return nil
}

// Len returns the number of live sessions
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) armLocked(phone string, d time.Duration) {
	if t, ok := m.timers[phone]; ok {
		t.Stop()
	}
	m.timers[phone] = time.AfterFunc(d, func() { m.expire(phone) })
}

func (m *MemoryStore) dropLocked(phone string) {
	if t, ok := m.timers[phone]; ok {
		t.Stop()
		delete(m.timers, phone)
	}
	delete(m.sessions, phone)
}

// expire runs on the watchdog goroutine. A Touch racing the timer wins:
// the session is rescheduled for its remaining lifetime instead.
func (m *MemoryStore) expire(phone string) {
	m.mu.Lock()
	s, ok := m.sessions[phone]
	if !ok {
		m.mu.Unlock()
		return
	}
	if remaining := m.ttl - m.now().Sub(s.LastActivity); remaining > 0 {
		m.armLocked(phone, remaining)
		m.mu.Unlock()
		return
	}
	m.dropLocked(phone)
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(s)
	}
}
