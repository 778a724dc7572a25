// Package session owns "who is logged in" and "which credential goes on requests".
//
// A [Store] holds the current [Session]; only the [Manager] mutates it. The durable form of a session is a
// [Record] produced by [Serialize]; access tokens never reach it.
package session

import (
	"sync"
	"time"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
	"golang.org/x/oauth2"
)

// Session is a read-only snapshot of the authentication state.
type Session struct {
	User         *models.Profile
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// IsAuthenticated reports whether both a user and an access token are present.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

// Store is the single container for the current session. Construct one per process (or per test) and share
// it by pointer. Reads return copies; writes are only available to this package.
type Store struct {
	mu    sync.RWMutex
	user  *models.Profile
	token oauth2.Token
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Session{
		AccessToken:  s.token.AccessToken,
		RefreshToken: s.token.RefreshToken,
		Expiry:       s.token.Expiry,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Token implements [oauth2.TokenSource] over the current access token.
// It returns [shared.ErrNotAuthenticated] when there is none.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &oauth2.Token{
		AccessToken: s.token.AccessToken,
		TokenType:   "Bearer",
		Expiry:      s.token.Expiry,
	}, nil
}

func (s *Store) establish(user models.Profile, access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = &user
	s.token = oauth2.Token{
		AccessToken:  access,
		TokenType:    "Bearer",
		RefreshToken: refresh,
		Expiry:       ParseExpiry(access),
	}
}

func (s *Store) replaceAccess(access string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token.AccessToken = access
	s.token.Expiry = ParseExpiry(access)
}

func (s *Store) setUser(user models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

// restore loads a deserialized session; it never carries an access token.
func (s *Store) restore(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = sess.User
	s.token = oauth2.Token{TokenType: "Bearer", RefreshToken: sess.RefreshToken}
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.token = oauth2.Token{}
}
