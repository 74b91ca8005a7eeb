package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const serviceName = "newsdigest"

// ErrNotFound is returned by Get when no secret is stored under the key.
var ErrNotFound = errors.New("credential not found")

// Store reads and writes named secrets in a keyring.
type Store struct {
	open func() (keyring.Keyring, error)
}

// Default returns a Store backed by the system keyring.
func Default() *Store {
	return &Store{open: openKeyring}
}

// NewStore returns a Store over an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{open: func() (keyring.Keyring, error) { return ring, nil }}
}

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	dir := "~/.config/newsdigest/credentials"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", serviceName, "credentials")
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt("newsdigest-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a secret by key.
func (s *Store) Get(key string) (string, error) {
	ring, err := s.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a secret by key.
func (s *Store) Set(key string, value string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "newsdigest credential",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a secret by key.
func (s *Store) Delete(key string) error {
	ring, err := s.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
