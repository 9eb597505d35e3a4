// Package store holds the process-wide UI-facing state: named loader flags,
// the persisted auth token pair, and notification banners. It is the server
// rendition of the original client-side store, with one difference called
// out in DESIGN.md: mutations go through typed commands instead of an
// untyped key/value reducer.
package store

import (
	"sync"

	"loanbridge/internal/models"
)

// Command is a typed store mutation. Exactly one variant per mutation the
// store supports; Dispatch switches over them exhaustively.
type Command interface {
	isStoreCommand()
}

// SetLoader sets or clears a named busy flag.
type SetLoader struct {
	Key   string
	Value bool
}

// SetAuth stores the bearer token pair and user after a successful login.
type SetAuth struct {
	Tokens models.TokenPair
	User   *models.User
}

// ClearAuth removes the token pair and user (logout).
type ClearAuth struct{}

// SetUser replaces the stored user record (profile refresh).
type SetUser struct {
	User *models.User
}

// PushBanner surfaces a message banner.
type PushBanner struct {
	Banner Banner
}

// ClearBanners removes all banners.
type ClearBanners struct{}

func (SetLoader) isStoreCommand()    {}
func (SetAuth) isStoreCommand()      {}
func (ClearAuth) isStoreCommand()    {}
func (SetUser) isStoreCommand()      {}
func (PushBanner) isStoreCommand()   {}
func (ClearBanners) isStoreCommand() {}

// Banner is a dismissible message surfaced to any UI surface.
type Banner struct {
	Kind    string `json:"kind"` // "success" | "error"
	Message string `json:"message"`
}

// Store is the process-wide shared state container.
type Store struct {
	mu      sync.RWMutex
	loaders map[string]bool
	tokens  models.TokenPair
	user    *models.User
	banners []Banner
}

func New() *Store {
	return &Store{
		loaders: make(map[string]bool),
	}
}

// Dispatch applies a command. Concurrent dispatches against the same loader
// key are last-writer-wins, reproducing the original's known race.
func (s *Store) Dispatch(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch c := cmd.(type) {
	case SetLoader:
		if c.Value {
			s.loaders[c.Key] = true
		} else {
			delete(s.loaders, c.Key)
		}
	case SetAuth:
		s.tokens = c.Tokens
		s.user = c.User
	case ClearAuth:
		s.tokens = models.TokenPair{}
		s.user = nil
	case SetUser:
		s.user = c.User
	case PushBanner:
		s.banners = append(s.banners, c.Banner)
	case ClearBanners:
		s.banners = nil
	}
}

// IsLoading reports whether the named busy flag is set.
func (s *Store) IsLoading(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaders[key]
}

// AccessToken returns the stored bearer token, empty when logged out.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken
}

// Tokens returns the stored token pair.
func (s *Store) Tokens() models.TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

// User returns the stored user, nil when logged out.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Banners returns a copy of the current banners.
func (s *Store) Banners() []Banner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Banner, len(s.banners))
	copy(out, s.banners)
	return out
}
