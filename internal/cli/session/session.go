// Package session holds the client's authenticated identity. The store
// is the only writer path for session state: a successful sign-in calls
// Set, sign-out (or token invalidation) calls Clear, and everything else
// reads snapshots through Current.
package session

import (
	"errors"
	"sync"
)

// Role values as carried by the identity provider's role claim
const (
	RoleAdmin   = "admin"
	RoleVisitor = "visitor"
)

var (
	// ErrPartialIdentity rejects a Set with any required field missing.
	// A half-populated session must never become observable.
	ErrPartialIdentity = errors.New("identity is not fully populated")

	// ErrUnknownRole rejects a Set with a role outside the known enum
	ErrUnknownRole = errors.New("unknown role")
)

// Session is the in-memory representation of the authenticated identity.
// The zero value is the logged-out session.
type Session struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

// IsAuthenticated reports whether the session carries an identity
func (s Session) IsAuthenticated() bool {
	return s.Email != ""
}

func (s Session) fullyPopulated() bool {
	return s.Email != "" && s.IDToken != "" && s.AccessToken != ""
}

func knownRole(role string) bool {
	return role == RoleAdmin || role == RoleVisitor
}

// Persister is the durable copy of the session kept under a single known
// key. The keyring implementation is the production one; tests substitute
// an in-memory fake.
type Persister interface {
	Save(s Session) error
	Load() (Session, bool, error)
	Delete() error
}

// Store owns the process-wide session. Set and Clear are atomic: readers
// observe either the old state or the new one, never a mix, and the
// persisted copy is updated in the same logical operation.
type Store struct {
	mu         sync.Mutex
	current    Session
	generation uint64
	persister  Persister
}

// NewStore creates an empty store backed by the given persister
func NewStore(p Persister) *Store {
	return &Store{persister: p}
}

// Hydrate loads a previously persisted session at process start. A
// missing entry leaves the store empty; a partial or corrupt entry is
// deleted rather than trusted.
func (st *Store) Hydrate() error {
	s, ok, err := st.persister.Load()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if !s.fullyPopulated() || !knownRole(s.Role) {
		// Stored state that would authorize less than it claims, or
		// more, gets discarded wholesale.
		return st.persister.Delete()
	}

	st.mu.Lock()
	st.current = s
	st.generation++
	st.mu.Unlock()
	return nil
}

// Set replaces the session with a fully populated identity. The durable
// copy is written before the new state becomes observable in memory, so
// no reader sees credentials the storage doesn't hold.
func (st *Store) Set(s Session) error {
	if !s.fullyPopulated() {
		return ErrPartialIdentity
	}
	if !knownRole(s.Role) {
		return ErrUnknownRole
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.persister.Save(s); err != nil {
		return err
	}
	st.current = s
	st.generation++
	return nil
}

// SetIfCurrent applies the identity only if the store generation still
// matches gen. Callers snapshot the generation before starting an
// asynchronous sign-in and use this to discard late-arriving results
// after a logout or a competing sign-in.
func (st *Store) SetIfCurrent(gen uint64, s Session) (bool, error) {
	if !s.fullyPopulated() {
		return false, ErrPartialIdentity
	}
	if !knownRole(s.Role) {
		return false, ErrUnknownRole
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.generation != gen {
		return false, nil
	}
	if err := st.persister.Save(s); err != nil {
		return false, err
	}
	st.current = s
	st.generation++
	return true, nil
}

// Clear resets to the empty session. The durable copy is removed before
// memory is wiped; either way no ordering leaves storage authorizing a
// session memory has dropped.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.persister.Delete(); err != nil {
		return err
	}
	st.current = Session{}
	st.generation++
	return nil
}

// Current returns an immutable snapshot of the session
func (st *Store) Current() Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current
}

// Generation returns the current write generation. It changes on every
// Set, Clear and Hydrate.
func (st *Store) Generation() uint64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.generation
}
