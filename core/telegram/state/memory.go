package state

import (
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store holds sessions keyed by Telegram user id and hands out per-user locks.
// Callers that read, decide and write a session must hold Lock for that user.
type Store struct {
	sessions *cache.Cache

	locksMu sync.Mutex
	locks   map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates a Store. A ttl <= 0 keeps sessions until they are cleared.
func NewStore(ttl time.Duration) *Store {
	expiration, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		expiration, cleanup = ttl, max(ttl/2, time.Second)
	}
	return &Store{
		sessions: cache.New(expiration, cleanup),
		locks:    make(map[int64]*userLock),
	}
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

// Get returns the user's session. Missing, expired or unreadable entries yield an idle session.
func (s *Store) Get(userID int64) Session {
	v, ok := s.sessions.Get(key(userID))
	if !ok {
		return Session{Step: StepIdle}
	}
	sess, ok := v.(Session)
	if !ok {
		return Session{Step: StepIdle}
	}
	return sess.normalized()
}

// Set stores the session and restarts its TTL. Storing an idle session clears it.
func (s *Store) Set(userID int64, sess Session) {
	sess = sess.normalized()
	if sess.Idle() {
		s.Clear(userID)
		return
	}
	s.sessions.SetDefault(key(userID), sess)
}

// Clear removes the user's session.
func (s *Store) Clear(userID int64) {
	s.sessions.Delete(key(userID))
}

// Len reports the number of stored sessions, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.sessions.ItemCount()
}

// Lock acquires the user's mutex and returns the matching unlock func.
func (s *Store) Lock(userID int64) func() {
	s.locksMu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &userLock{}
		s.locks[userID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, userID)
		}
		s.locksMu.Unlock()
	}
}
