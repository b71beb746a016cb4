package session

import (
	"time"

	"github.com/bowerhall/mediaqa/internal/media"
)

// SetItem replaces the working set with item.
func (s *Session) SetItem(item media.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.item = &item
}

// Item returns a copy of the current item.
func (s *Session) Item() (media.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.item == nil {
		return media.Item{}, false
	}
	return *s.item, true
}

// Remove clears the working set and reports whether an item was held.
func (s *Session) Remove() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	had := s.item != nil
	s.item = nil
	return had
}

// TryAcquire attempts to acquire the processing lock.
// Returns true if acquired, false if already processing.
func (s *Session) TryAcquire() bool {
	return s.processing.TryLock()
}

// Release releases the processing lock.
func (s *Session) Release() {
	s.processing.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Get returns the session for sessionID, creating it if needed, and marks it
// active. The touch happens under the store lock so a concurrent Sweep never
// drops a session that was just handed out.
func (s *Store) Get(sessionID string) *Session {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &Session{}
		s.sessions[sessionID] = sess
	}
	sess.touch(now)

	return sess
}

// Acquire returns the session holding its processing lock, or ErrBusy. The
// caller must Release it.
func (s *Store) Acquire(sessionID string) (*Session, error) {
	for {
		sess := s.Get(sessionID)
		if !sess.TryAcquire() {
			return nil, ErrBusy
		}

		s.mu.Lock()
		current := s.sessions[sessionID]
		s.mu.Unlock()

		if current == sess {
			return sess, nil
		}
		// swept between Get and TryAcquire
		sess.Release()
	}
}

// Len reports how many sessions are held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than ttl. Sessions with a request in
// flight are kept. It returns how many were dropped.
func (s *Store) Sweep(ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for id, sess := range s.sessions {
		if !sess.idleSince().Before(cutoff) {
			continue
		}
		if !sess.TryAcquire() {
			continue
		}
		delete(s.sessions, id)
		sess.Release()
		dropped++
	}

	return dropped
}
