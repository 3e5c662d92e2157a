package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service    = "bookhub-cli"
	sessionKey = "session"
)

// KeyringPersister stores the session JSON in the OS keychain/credential
// manager under a single known key
type KeyringPersister struct{}

// NewKeyringPersister returns the production persister
func NewKeyringPersister() *KeyringPersister {
	return &KeyringPersister{}
}

// Save writes the session to the keyring
func (p *KeyringPersister) Save(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := keyring.Set(service, sessionKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads the session from the keyring; ok is false when no session
// has been persisted
func (p *KeyringPersister) Load() (Session, bool, error) {
	data, err := keyring.Get(service, sessionKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		// Corrupt entry: report present-but-empty so the store wipes it
		return Session{}, true, nil
	}
	return s, true, nil
}

// Delete removes the session from the keyring
func (p *KeyringPersister) Delete() error {
	if err := keyring.Delete(service, sessionKey); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
