// Package storage keeps the client's session on disk and prompts for input.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSessionFile is the session file name used when none is given.
const DefaultSessionFile = ".taskmanager-session.json"

// Session is the persisted login state of the client.
type Session struct {
	BaseURL string `json:"base_url"`
	Email   string `json:"email"`
	Token   string `json:"token"`

	mu   sync.Mutex
	path string
}

// NewSession returns an empty session stored at path.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// Load reads the session file. A missing file leaves the session empty.
func (s *Session) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("corrupt session file %s: %w", s.path, err)
	}
	return nil
}

// Save writes the session file readable by the owner only.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Set records a successful login.
func (s *Session) Set(baseURL, email, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL, s.Email, s.Token = baseURL, email, token
}

// Clear forgets the token and removes the session file.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.Email, s.Token = "", ""
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// LoggedIn reports whether a token is held.
func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Token != ""
}
