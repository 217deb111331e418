package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swelljoe/wxlookup/internal/lookup"
)

// CookieName carries the session id.
const CookieName = "wxlookup_session"

type entry struct {
	lookup   *lookup.Lookup
	lastSeen time.Time
}

// Store keeps one lookup form per browser session and forgets sessions
// idle longer than the ttl.
type Store struct {
	mu      sync.Mutex
	items   map[string]*entry
	ttl     time.Duration
	newForm func() *lookup.Lookup
	now     func() time.Time
}

// New creates a store whose forms are built by newForm.
func New(ttl time.Duration, newForm func() *lookup.Lookup) *Store {
	return &Store{
		items:   make(map[string]*entry),
		ttl:     ttl,
		newForm: newForm,
		now:     time.Now,
	}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether id looks like an id issued by NewID.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the lookup for id, creating it if missing or expired.
func (s *Store) Get(id string) *lookup.Lookup {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	e, ok := s.items[id]
	if !ok {
		e = &entry{lookup: s.newForm()}
		s.items[id] = e
	}
	e.lastSeen = now
	return e.lookup
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) sweep(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, e := range s.items {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.items, id)
		}
	}
}
