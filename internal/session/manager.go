package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// AuthAPI is the backend's authentication surface.
type AuthAPI interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error)
	Register(ctx context.Context, reg models.Registration) (*models.Profile, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// ManagerOpts configures a [Manager]. Nil fields get defaults: a new store, in-memory storage,
// a navigator that does nothing and a stderr logger.
type ManagerOpts struct {
	Store               *Store
	API                 AuthAPI
	Storage             Storage
	Navigator           Navigator
	Logger              *log.Logger
	PersistRefreshToken bool
}

// Manager runs the session lifecycle: login, registration, logout, token refresh and restore.
//
// Every mutation of the store is followed by writing [Serialize] of the new session to storage.
type Manager struct {
	store          *Store
	api            AuthAPI
	storage        Storage
	navigator      Navigator
	logger         *log.Logger
	persistRefresh bool
}

// NewManager creates a Manager. opts.API is required.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	if opts.Storage == nil {
		opts.Storage = NewMemoryStorage()
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		store:          opts.Store,
		api:            opts.API,
		storage:        opts.Storage,
		navigator:      opts.Navigator,
		logger:         shared.WithLogger(opts.Logger, "component", "session"),
		persistRefresh: opts.PersistRefreshToken,
	}
}

// Store returns the store this manager mutates.
func (m *Manager) Store() *Store {
	return m.store
}

// Login exchanges credentials for tokens and establishes a session.
// On failure the current session is left unchanged.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return m.store.Snapshot(), err
	}

	res, err := m.api.Login(ctx, creds)
	if err != nil {
		return m.store.Snapshot(), fmt.Errorf("login: %w", err)
	}
	if res.Access == "" {
		return m.store.Snapshot(), fmt.Errorf("%w: response carried no access token", shared.ErrAuthFailed)
	}

	m.store.establish(res.User, res.Access, res.Refresh)
	m.persist()

	m.logger.Info("logged in", "user", res.User.Username)
	return m.store.Snapshot(), nil
}

// Register creates an account. It does not log in.
func (m *Manager) Register(ctx context.Context, reg models.Registration) (*models.Profile, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	profile, err := m.api.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	m.logger.Info("registered", "user", profile.Username)
	return profile, nil
}

// Logout asks the backend to invalidate the refresh token, then clears the session and storage
// and redirects to login. The backend call is best effort; local logout always happens.
func (m *Manager) Logout(ctx context.Context) {
	defer m.terminate(nil)

	refresh := m.store.Snapshot().RefreshToken
	if refresh == "" {
		return
	}
	if err := m.api.Logout(ctx, refresh); err != nil {
		m.logger.Warn("backend logout failed", "error", err)
	}
}

// RefreshAccessToken exchanges the refresh token for a new access token and returns it.
//
// Without a refresh token it fails with [shared.ErrNoRefreshToken] and makes no request. A rejected refresh
// fails with [shared.ErrRefreshFailed]; callers treat that as session loss (see [Manager.Expire]).
// Errors that never reached a verdict (network, 5xx, cancellation) are returned unchanged.
// Concurrent callers each perform their own exchange.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	refresh := m.store.Snapshot().RefreshToken
	if refresh == "" {
		return "", shared.ErrNoRefreshToken
	}

	access, err := m.api.Refresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	if access == "" {
		return "", fmt.Errorf("%w: response carried no access token", shared.ErrRefreshFailed)
	}

	m.store.replaceAccess(access)
	m.persist()

	m.logger.Debug("access token refreshed")
	return access, nil
}

// Expire handles an unrecoverable session: it clears everything and redirects to login with the cause.
func (m *Manager) Expire(ctx context.Context, cause error) {
	m.logger.Warn("session expired", "cause", cause)
	m.terminate(fmt.Errorf("%w: %w", shared.ErrSessionExpired, cause))
}

// SetUser replaces the stored profile, e.g. after a profile update.
func (m *Manager) SetUser(p models.Profile) {
	m.store.setUser(p)
	m.persist()
}

// Restore loads the durable record written by a previous process.
//
// The restored session has a profile but no access token. If a refresh token was persisted it is validated
// immediately with a refresh; a rejection clears everything. When the refresh cannot be delivered the
// restored profile and refresh token are kept and the error is returned alongside them. Refresh tokens
// found on disk while persistence is disabled are discarded.
func (m *Manager) Restore(ctx context.Context) (Session, error) {
	rec, err := m.storage.Load()
	if err != nil {
		m.logger.Warn("discarding unreadable session record", "error", err)
		if cerr := m.storage.Clear(); cerr != nil {
			return Session{}, cerr
		}
		return Session{}, nil
	}

	sess := Deserialize(rec)
	if sess.User == nil {
		return Session{}, nil
	}

	if !m.persistRefresh {
		sess.RefreshToken = ""
	}

	m.store.restore(sess)
	m.persist()

	if sess.RefreshToken == "" {
		return m.store.Snapshot(), nil
	}

	if _, err := m.RefreshAccessToken(ctx); err != nil {
		if !errors.Is(err, shared.ErrRefreshFailed) {
			m.logger.Warn("could not validate restored session", "error", err)
			return m.store.Snapshot(), err
		}
		m.Expire(ctx, err)
		return Session{}, fmt.Errorf("%w: %w", shared.ErrSessionExpired, err)
	}
	return m.store.Snapshot(), nil
}

// Session returns a snapshot of the current session.
func (m *Manager) Session() Session {
	return m.store.Snapshot()
}

// AccessToken returns the current access token, or "" when there is none.
func (m *Manager) AccessToken() string {
	return m.store.Snapshot().AccessToken
}

// IsAuthenticated reports whether a user and an access token are present.
func (m *Manager) IsAuthenticated() bool {
	return m.store.Snapshot().IsAuthenticated()
}

func (m *Manager) terminate(cause error) {
	m.store.clear()
	if err := m.storage.Clear(); err != nil {
		m.logger.Error("failed to clear session storage", "error", err)
	}
	m.navigator.RedirectToLogin(cause)
}

// persist writes the serialized session. Storage errors are logged; the in-memory session stays authoritative.
func (m *Manager) persist() {
	rec := Serialize(m.store.Snapshot(), m.persistRefresh)

	var err error
	if rec == nil {
		err = m.storage.Clear()
	} else {
		err = m.storage.Save(rec)
	}
	if err != nil {
		m.logger.Error("failed to persist session", "error", err)
	}
}
