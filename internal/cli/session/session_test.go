package session

import (
	"errors"
	"testing"
)

// memPersister is an in-memory stand-in for the keyring
type memPersister struct {
	stored  *Session
	saveErr error
}

func (m *memPersister) Save(s Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := s
	m.stored = &copied
	return nil
}

func (m *memPersister) Load() (Session, bool, error) {
	if m.stored == nil {
		return Session{}, false, nil
	}
	return *m.stored, true, nil
}

func (m *memPersister) Delete() error {
	m.stored = nil
	return nil
}

func fullSession(email string) Session {
	return Session{
		Name:        "Vera",
		Email:       email,
		Role:        RoleVisitor,
		IDToken:     "id-token",
		AccessToken: "access-token",
	}
}

func TestSetRoundTrip(t *testing.T) {
	store := NewStore(&memPersister{})

	want := fullSession("vera@example.com")
	if err := store.Set(want); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if got := store.Current(); got != want {
		t.Errorf("Current() = %+v, want %+v", got, want)
	}
}

func TestSetRejectsPartialIdentity(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr error
	}{
		{name: "missing email", session: Session{Role: RoleVisitor, IDToken: "id", AccessToken: "at"}, wantErr: ErrPartialIdentity},
		{name: "missing id token", session: Session{Email: "a@b.com", Role: RoleVisitor, AccessToken: "at"}, wantErr: ErrPartialIdentity},
		{name: "missing access token", session: Session{Email: "a@b.com", Role: RoleVisitor, IDToken: "id"}, wantErr: ErrPartialIdentity},
		{name: "unknown role", session: Session{Email: "a@b.com", Role: "owner", IDToken: "id", AccessToken: "at"}, wantErr: ErrUnknownRole},
		{name: "empty role", session: Session{Email: "a@b.com", Role: "", IDToken: "id", AccessToken: "at"}, wantErr: ErrUnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(&memPersister{})
			if err := store.Set(tt.session); !errors.Is(err, tt.wantErr) {
				t.Errorf("Set() error = %v, want %v", err, tt.wantErr)
			}
			if store.Current().IsAuthenticated() {
				t.Error("rejected Set must leave the session empty")
			}
		})
	}
}

func TestClearWipesStorage(t *testing.T) {
	persister := &memPersister{}
	store := NewStore(persister)

	if err := store.Set(fullSession("vera@example.com")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if persister.stored == nil {
		t.Fatal("Set did not persist the session")
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	if store.Current() != (Session{}) {
		t.Errorf("Current() after Clear = %+v, want empty", store.Current())
	}
	if persister.stored != nil {
		t.Error("Clear left a persisted session behind")
	}
}

func TestSetPersistFailureLeavesOldState(t *testing.T) {
	persister := &memPersister{}
	store := NewStore(persister)

	old := fullSession("old@example.com")
	if err := store.Set(old); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	persister.saveErr = errors.New("keyring unavailable")
	if err := store.Set(fullSession("new@example.com")); err == nil {
		t.Fatal("expected Set to surface persist failure")
	}

	// Memory must not run ahead of storage
	if got := store.Current(); got != old {
		t.Errorf("Current() = %+v, want previous session", got)
	}
}

func TestHydrate(t *testing.T) {
	persisted := fullSession("vera@example.com")
	persister := &memPersister{stored: &persisted}

	store := NewStore(persister)
	if err := store.Hydrate(); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	if got := store.Current(); got != persisted {
		t.Errorf("Current() = %+v, want persisted session", got)
	}
}

func TestHydrateDiscardsPartialEntry(t *testing.T) {
	partial := Session{Email: "vera@example.com"} // no tokens
	persister := &memPersister{stored: &partial}

	store := NewStore(persister)
	if err := store.Hydrate(); err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}

	if store.Current().IsAuthenticated() {
		t.Error("partial persisted entry must not hydrate the session")
	}
	if persister.stored != nil {
		t.Error("partial persisted entry must be deleted")
	}
}

func TestSetIfCurrentDiscardsStaleResult(t *testing.T) {
	store := NewStore(&memPersister{})

	// First sign-in starts and snapshots the generation
	gen := store.Generation()

	// Second sign-in completes first
	second := fullSession("second@example.com")
	if err := store.Set(second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// First sign-in's late success must be discarded, not merged
	applied, err := store.SetIfCurrent(gen, fullSession("first@example.com"))
	if err != nil {
		t.Fatalf("SetIfCurrent failed: %v", err)
	}
	if applied {
		t.Error("stale sign-in result was applied")
	}
	if got := store.Current(); got != second {
		t.Errorf("Current() = %+v, want the session from the resolved attempt", got)
	}
}

func TestSetIfCurrentDiscardsAfterLogout(t *testing.T) {
	store := NewStore(&memPersister{})

	gen := store.Generation()
	if err := store.Clear(); err != nil { // user abandoned the login
		t.Fatalf("Clear failed: %v", err)
	}

	applied, err := store.SetIfCurrent(gen, fullSession("late@example.com"))
	if err != nil {
		t.Fatalf("SetIfCurrent failed: %v", err)
	}
	if applied {
		t.Error("late-arriving login populated a cleared session")
	}
	if store.Current().IsAuthenticated() {
		t.Error("session must stay empty after abandoned login resolves")
	}
}

func TestSetIfCurrentAppliesWhenUnchanged(t *testing.T) {
	store := NewStore(&memPersister{})

	gen := store.Generation()
	applied, err := store.SetIfCurrent(gen, fullSession("vera@example.com"))
	if err != nil {
		t.Fatalf("SetIfCurrent failed: %v", err)
	}
	if !applied {
		t.Fatal("expected result to apply when generation is unchanged")
	}
	if !store.Current().IsAuthenticated() {
		t.Error("session not populated")
	}
}
