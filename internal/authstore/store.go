// Package authstore persists the Xero OAuth2 token between runs.
//
// The web app completes the authorization-code flow and saves the token here;
// the CLI picks it up for headless runs. Refreshed tokens are written back so
// the refresh token chain is never lost.
package authstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when no token has been stored yet.
var ErrNoToken = errors.New("authstore: no token stored")

// Store is a file-backed OAuth2 token store. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Token loads the stored token. Returns ErrNoToken when absent.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("authstore: reading token file: %w", err)
	}

	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("authstore: decoding token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, ErrNoToken
	}
	return tok, nil
}

// Save persists the token. A nil token clears the store.
func (s *Store) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tok == nil {
		return s.clear()
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("authstore: encoding token: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("authstore: creating token dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("authstore: writing token file: %w", err)
	}
	return nil
}

// Clear removes the stored token.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear()
}

func (s *Store) clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("authstore: removing token file: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is stored. It does not check expiry;
// an expired token with a refresh token is still usable.
func (s *Store) IsAuthenticated() bool {
	_, err := s.Token()
	return err == nil
}

// TokenSource wraps conf.TokenSource with write-back: whenever the underlying
// source refreshes the token, the new token is persisted.
func (s *Store) TokenSource(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token) oauth2.TokenSource {
	return &savingSource{
		src:   conf.TokenSource(ctx, tok),
		store: s,
		last:  tok,
	}
}

type savingSource struct {
	src   oauth2.TokenSource
	store *Store
	mu    sync.Mutex
	last  *oauth2.Token
}

func (ss *savingSource) Token() (*oauth2.Token, error) {
	tok, err := ss.src.Token()
	if err != nil {
		return nil, err
	}

	ss.mu.Lock()
	changed := ss.last == nil || tok.AccessToken != ss.last.AccessToken
	ss.last = tok
	ss.mu.Unlock()

	if changed {
		if err := ss.store.Save(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}
