package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/clinic-booking-agent/pkg/logging"
)

// MemoryStore keeps sessions in a process-local map. This is the default
// store: sessions are conversation-scoped and do not survive restarts.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create allocates a fresh INIT session. When id is empty a new unique
// one is generated.
func (s *MemoryStore) Create(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = uuid.NewString()
	}
	sess := &Session{
		ID:         id,
		State:      StateInit,
		Data:       Data{},
		LastActive: s.now().UTC(),
	}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	out := *sess
	return &out, nil
}

// Get returns a copy of the stored session, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *sess
	return &out, nil
}

// Update replaces state and data wholesale and refreshes LastActive.
// Unknown ids are a no-op.
func (s *MemoryStore) Update(ctx context.Context, id string, state State, data Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	sess.State = state
	sess.Data = data
	sess.LastActive = s.now().UTC()
	return nil
}

// Sweep evicts sessions whose LastActive is older than ttl and returns
// how many were removed.
func (s *MemoryStore) Sweep(ttl time.Duration) int {
	cutoff := s.now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper evicts idle sessions on a fixed interval until ctx is
// cancelled. Best-effort housekeeping for long-lived processes.
func (s *MemoryStore) StartSweeper(ctx context.Context, interval, ttl time.Duration, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(ttl); n > 0 {
					logger.Info("session sweeper evicted idle sessions", "count", n, "ttl", ttl.String())
				}
			}
		}
	}()
}

// Len reports the number of live sessions. Used by tests and metrics.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
