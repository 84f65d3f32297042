// Package session manages the persisted admin session credential. The
// credential is written once at login, read lazily by every outgoing API
// call, and removed at logout. There is no multi-client reconciliation:
// exactly one active copy exists per installation.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the session object persisted after a successful login.
type Credential struct {
	AccessToken               string `json:"access_token"`
	ActiveSessionRefreshToken string `json:"active_session_refresh_token,omitempty"`
	Device                    string `json:"device,omitempty"`
	TokenExpiry               int64  `json:"token_expiry,omitempty"`
}

// BearerValue renders the credential in the wire format the backend
// expects: the access token and the refresh token joined by "||". A
// credential without a refresh token yields just the access token.
func (c *Credential) BearerValue() string {
	if c == nil || c.AccessToken == "" {
		return ""
	}
	if c.ActiveSessionRefreshToken == "" {
		return c.AccessToken
	}
	return c.AccessToken + "||" + c.ActiveSessionRefreshToken
}

// Expired reports whether the credential's access token is past its expiry.
// The stored token_expiry field wins when present; otherwise the JWT "exp"
// claim is inspected without signature verification (the client has no
// signing key and only needs the timestamp). Tokens carrying neither are
// treated as unexpired; the backend remains the authority and will answer
// 401 if it disagrees.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	if c.TokenExpiry > 0 {
		return now.Unix() >= c.TokenExpiry
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(c.AccessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// Provider supplies the current credential to the transport layer.
// Implementations return (nil, nil) when no session exists; that is not an
// error, it simply means the request goes out unauthenticated.
type Provider interface {
	Current() (*Credential, error)
}

// ---------------------------------------------------------------------------
// FileStore
// ---------------------------------------------------------------------------

// FileStore persists the credential as a single JSON file, the CLI
// analogue of the browser panel's local-storage key.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a store rooted at path. The file need not exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Current implements Provider. A missing file means no session.
func (s *FileStore) Current() (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if cred.AccessToken == "" {
		return nil, nil
	}
	return &cred, nil
}

// Save writes the credential, creating parent directories as needed. The
// file is written 0600 since it holds bearer tokens.
func (s *FileStore) Save(cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cred == nil || cred.AccessToken == "" {
		return fmt.Errorf("refusing to save empty credential")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear removes the persisted credential. Clearing an absent session is a
// no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Static provider (test double)
// ---------------------------------------------------------------------------

// Static is a Provider that always returns the same credential. Tests use
// it to exercise authenticated paths without touching the filesystem.
type Static struct {
	Cred *Credential
	Err  error
}

func (s *Static) Current() (*Credential, error) {
	return s.Cred, s.Err
}
