// Package session holds the client's single active session: the token and what it was issued for.
package session

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/shafisadique/school-project-sub003/core/auth"
)

// Session is the whole client-side session state; the token is the session.
type Session struct {
	Token     string    `json:"token"`
	Role      auth.Role `json:"role"`
	TenantID  string    `json:"tenantId,omitempty"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Storage persists the session between client runs.
type Storage interface {
	Load() (Session, bool, error)
	Save(s Session) error
	Clear() error
}

// Store is an observable cell holding the current session.
// Subscribers are told whenever the logged-in state flips.
type Store struct {
	storage Storage
	wmu     sync.Mutex // serializes writers, so storage & memory change together

	mu       sync.RWMutex
	current  Session
	loggedIn bool
	nextID   int
	subs     map[int]func(bool)
}

// NewStore restores the session persisted in storage, if any.
func NewStore(storage Storage) (*Store, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s, ok, err := storage.Load()
	if err != nil {
		return nil, errors.Wrap(err, "loading session")
	}
	return &Store{
		storage:  storage,
		current:  s,
		loggedIn: ok && s.Token != "",
		subs:     make(map[int]func(bool)),
	}, nil
}

// Set replaces the current session (login).
func (st *Store) Set(s Session) error {
	if s.Token == "" {
		return errors.New("session token is empty")
	}
	st.wmu.Lock()
	if err := st.storage.Save(s); err != nil {
		st.wmu.Unlock()
		return errors.Wrap(err, "saving session")
	}
	st.mu.Lock()
	st.current = s
	changed := !st.loggedIn
	st.loggedIn = true
	subs := st.subscribers(changed)
	st.mu.Unlock()
	st.wmu.Unlock()

	notify(subs, true)
	return nil
}

// Clear drops the current session (logout, rejected token).
// The in-memory state is cleared even when the storage fails.
func (st *Store) Clear() error {
	st.wmu.Lock()
	err := st.storage.Clear()
	st.mu.Lock()
	st.current = Session{}
	changed := st.loggedIn
	st.loggedIn = false
	subs := st.subscribers(changed)
	st.mu.Unlock()
	st.wmu.Unlock()

	notify(subs, false)
	return errors.Wrap(err, "clearing session")
}

// Snapshot returns a copy of the current session and whether there is one.
func (st *Store) Snapshot() (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current, st.loggedIn
}

func (st *Store) IsLoggedIn() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loggedIn
}

// Subscribe calls fn with the current state, then on every change, until unsubscribe is called.
func (st *Store) Subscribe(fn func(loggedIn bool)) (unsubscribe func()) {
	st.mu.Lock()
	id := st.nextID
	st.nextID++
	st.subs[id] = fn
	loggedIn := st.loggedIn
	st.mu.Unlock()

	fn(loggedIn)
	return func() {
		st.mu.Lock()
		delete(st.subs, id)
		st.mu.Unlock()
	}
}

// subscribers must be called with mu held.
func (st *Store) subscribers(changed bool) []func(bool) {
	if !changed {
		return nil
	}
	subs := make([]func(bool), 0, len(st.subs))
	for _, fn := range st.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(bool), loggedIn bool) {
	for _, fn := range subs {
		fn(loggedIn)
	}
}
