// Package session persists the device's token pair between runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/contactbook/backend/internal/auth"
)

var ErrNoSession = errors.New("session: no stored session")

// Tokens is the persisted session
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// FileStore keeps Tokens in a JSON file
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (*Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var t Tokens
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if t.AccessToken == "" {
		return nil, ErrNoSession
	}
	return &t, nil
}

// Save replaces the stored session atomically
func (s *FileStore) Save(t *Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.Marshal(t)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// UserID reads the user id from the stored access token. The signature is
// not checked; the server does that. Any failure means no identity.
func (s *FileStore) UserID() (string, bool) {
	t, err := s.Load()
	if err != nil {
		return "", false
	}
	claims, err := auth.PeekClaims(t.AccessToken)
	if err != nil {
		return "", false
	}
	return claims.UserID.String(), true
}
