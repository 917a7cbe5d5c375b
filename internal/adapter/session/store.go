package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"beautyrec/internal/domain"
	"beautyrec/internal/metrics"
)

// Store keeps sessions in memory with LRU eviction and an idle TTL. The
// active sessions gauge follows every insert, expiry, eviction and delete.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	session  *domain.Session
	lastSeen time.Time
}

func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, *entry](maxSize)
	return &Store{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live session and marks it as recently used.
func (s *Store) Get(id string) (*domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(id)
	if !ok {
		return nil, false
	}
	if s.now().Sub(e.lastSeen) > s.ttl {
		s.entries.Remove(id)
		s.report()
		return nil, false
	}

	e.lastSeen = s.now()
	return e.session, true
}

// Create starts a new Idle session, evicting the least recently used one when full.
func (s *Store) Create() *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := domain.NewSession(uuid.NewString())
	s.entries.Add(sess.ID, &entry{session: sess, lastSeen: s.now()})
	s.report()
	return sess
}

// GetOrCreate returns the session for id, or a new one when id is unknown or expired.
func (s *Store) GetOrCreate(id string) (*domain.Session, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// Delete drops a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries.Remove(id)
	s.report()
}

// Size returns the number of stored sessions, expired ones included until touched.
func (s *Store) Size() int {
	return s.entries.Len()
}

func (s *Store) report() {
	metrics.ActiveSessions.Set(float64(s.entries.Len()))
}
