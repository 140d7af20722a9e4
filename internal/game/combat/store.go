package combat

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultSessionTTL is the idle duration after which an untouched session is
// expired and purged.
const DefaultSessionTTL = 15 * time.Minute

// DefaultSweepInterval is how often the expiry sweep runs.
const DefaultSweepInterval = 30 * time.Second

// SessionStore is a keyed, TTL-expiring store of active combat sessions.
// Implementations enforce at most one active session per player and
// serialize all mutations of a given session.
type SessionStore interface {
	// Create registers a new session. Fails with ErrConflict if the player
	// already owns an active session.
	Create(sess *Session) error
	// Update runs fn against the live session under its per-session lock and
	// refreshes the idle clock on success. Fails with ErrSessionNotFound for
	// unknown ids; an error from fn is returned unchanged and the idle clock
	// is still refreshed (the player did act).
	Update(id string, fn func(*Session) error) error
	// Get returns a defensive snapshot of the session, or false.
	Get(id string) (*Session, bool)
	// Delete removes the session and frees the player's active slot.
	Delete(id string)
	// ActiveSessionID returns the id of the player's active session, if any.
	ActiveSessionID(playerID string) (string, bool)
}

// entry pairs a session with its mutation lock. The lock serializes engine
// actions and the expiry sweep for that session only; operations on
// different sessions never contend.
type entry struct {
	mu   sync.Mutex
	sess *Session
}

// MemoryStore is an in-memory SessionStore with a background expiry sweep.
// All methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*entry // session id → entry
	byPlayer map[string]string // player id → session id
	ttl      time.Duration
	interval time.Duration
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates an empty store.
//
// Precondition: logger must be non-nil; ttl and sweepInterval must be > 0.
func NewMemoryStore(ttl, sweepInterval time.Duration, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]*entry),
		byPlayer: make(map[string]string),
		ttl:      ttl,
		interval: sweepInterval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Create registers sess.
//
// Precondition: sess must have non-empty ID and PlayerID.
// Postcondition: returns ErrConflict if the player already has a session;
// otherwise the session is stored with a fresh idle clock.
func (m *MemoryStore) Create(sess *Session) error {
	if sess == nil || sess.ID == "" || sess.PlayerID == "" {
		return fmt.Errorf("session must have id and player id: %w", ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byPlayer[sess.PlayerID]; ok {
		return fmt.Errorf("player %q already in session %q: %w", sess.PlayerID, existing, ErrConflict)
	}
	if _, ok := m.entries[sess.ID]; ok {
		return fmt.Errorf("session id %q already exists: %w", sess.ID, ErrConflict)
	}

	sess.LastActiveAt = time.Now()
	m.entries[sess.ID] = &entry{sess: sess}
	m.byPlayer[sess.PlayerID] = sess.ID
	return nil
}

// Update runs fn under the session's lock.
//
// Postcondition: fn observed and mutated the one live copy of the session;
// no two Update calls for the same id ever interleave.
func (m *MemoryStore) Update(id string, fn func(*Session) error) error {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The sweep may have expired the entry between the map read and the
	// lock acquisition.
	if e.sess == nil {
		return fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	e.sess.LastActiveAt = time.Now()
	return fn(e.sess)
}

// Get returns a snapshot of the session.
func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil, false
	}
	return e.sess.snapshot(), true
}

// Delete removes the session and releases the owning player's slot.
// Deleting an unknown id is a no-op.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

// ActiveSessionID returns the player's current session id, if any.
func (m *MemoryStore) ActiveSessionID(playerID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPlayer[playerID]
	return id, ok
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// removeLocked unlinks the entry and its player index.
//
// Precondition: m.mu is held for writing.
func (m *MemoryStore) removeLocked(id string) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	if e.sess != nil {
		delete(m.byPlayer, e.sess.PlayerID)
	}
	delete(m.entries, id)
}

// Sweep expires every session idle past the TTL. It acquires each entry's
// lock before expiring so it cannot race an in-flight action. Returns the
// number of sessions expired.
func (m *MemoryStore) Sweep(now time.Time) int {
	m.mu.RLock()
	candidates := make([]string, 0, len(m.entries))
	for id := range m.entries {
		candidates = append(candidates, id)
	}
	m.mu.RUnlock()

	expired := 0
	for _, id := range candidates {
		m.mu.RLock()
		e, ok := m.entries[id]
		m.mu.RUnlock()
		if !ok {
			continue
		}

		e.mu.Lock()
		if e.sess == nil || now.Sub(e.sess.LastActiveAt) < m.ttl {
			e.mu.Unlock()
			continue
		}
		e.sess.Status = StatusExpired
		m.logger.Info("combat session expired",
			zap.String("session_id", e.sess.ID),
			zap.String("player_id", e.sess.PlayerID),
			zap.Int("turn", e.sess.Turn),
		)
		playerID := e.sess.PlayerID

		// Unlink both indexes before dropping the session so a Create by
		// the same player never conflicts against an already expired
		// session. No other code path acquires m.mu under an entry lock,
		// so nesting here cannot deadlock.
		m.mu.Lock()
		delete(m.byPlayer, playerID)
		delete(m.entries, id)
		m.mu.Unlock()

		e.sess = nil
		e.mu.Unlock()
		expired++
	}
	return expired
}

// Start runs the periodic expiry sweep until Stop is called. Implements the
// server Service interface; Start blocks.
func (m *MemoryStore) Start() error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return nil
		case <-ticker.C:
			if n := m.Sweep(time.Now()); n > 0 {
				m.logger.Debug("expiry sweep completed", zap.Int("expired", n))
			}
		}
	}
}

// Stop terminates the sweep loop.
func (m *MemoryStore) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}
