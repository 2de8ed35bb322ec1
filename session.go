package sessiongate

import "sync"

// Session is the local, in-memory projection used for authorization
// decisions. While Loading is true no decision may be treated as final.
type Session struct {
	Identity Identity
	Role     Role
	IsActive bool
	Loading  bool
}

// Authenticated reports whether an identity is attached.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// Store is the single source of truth for the current Session. Reads are
// many, writes are one: only the owning Watcher calls publish. Construct one
// per client and hand it to consumers by reference; there is no package-level
// instance.
type Store struct {
	mu        sync.RWMutex
	session   Session
	listeners map[int]func(Session)
	nextID    int
}

// NewStore returns a Store holding the neutral pre-resolution session:
// no identity, active, loading.
func NewStore() *Store {
	return &Store{
		session:   Session{IsActive: true, Loading: true},
		listeners: map[int]func(Session){},
	}
}

// Current returns the latest session synchronously.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Subscribe registers a listener invoked on every session replacement and
// returns its removal func. The listener is called outside the store lock.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// publish replaces the session and notifies listeners. The watcher owns all
// writes; admin actions never reach in from outside.
func (s *Store) publish(next Session) {
	s.mu.Lock()
	s.session = next
	fns := make([]func(Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}
