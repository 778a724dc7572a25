package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/cadence/internal/models"
)

// FakeBackend is an httptest server speaking the backend's auth protocol.
//
// Login accepts User.Email with Password. Routes registered with [FakeBackend.Handle] require the
// current access token; [FakeBackend.ExpireAccess] invalidates it so the next request gets a 401 and
// the client has to refresh.
type FakeBackend struct {
	Server   *httptest.Server
	User     models.Profile
	Password string

	mu       sync.Mutex
	mux      *http.ServeMux
	access   string
	refresh  string
	issued   int
	revoked  bool
	refreshN int
	logoutN  int
	requests []string
}

// NewFakeBackend starts a backend that is closed with the test.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		User:     models.Profile{ID: 1, Username: "ada", Email: "ada@example.com", FirstName: "Ada", UserType: models.UserTypeRegular},
		Password: "secret123",
		mux:      http.NewServeMux(),
		refresh:  "refresh-1",
	}

	b.mux.HandleFunc("POST /api/auth/login/", b.login)
	b.mux.HandleFunc("POST /api/auth/refresh/", b.refreshToken)
	b.mux.HandleFunc("POST /api/auth/logout/", b.logout)

	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the API root, suitable as a base URL.
func (b *FakeBackend) URL() string {
	return b.Server.URL + "/api"
}

// Handle registers a route that requires a valid bearer token. pattern uses [http.ServeMux] syntax
// relative to the API root, e.g. "GET /songs/".
func (b *FakeBackend) Handle(pattern string, h http.HandlerFunc) {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		method, path = "", pattern
	}
	full := strings.TrimSpace(method + " /api" + path)

	b.mux.HandleFunc(full, func(w http.ResponseWriter, r *http.Request) {
		if !b.authorized(r) {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		h(w, r)
	})
}

// AccessToken returns the currently valid access token.
func (b *FakeBackend) AccessToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access
}

// RefreshToken returns the refresh token issued at login.
func (b *FakeBackend) RefreshToken() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refresh
}

// ExpireAccess invalidates the current access token.
func (b *FakeBackend) ExpireAccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = "expired"
}

// RevokeRefresh makes every later refresh fail with 401.
func (b *FakeBackend) RevokeRefresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked = true
}

// RefreshCalls returns how many refresh requests were received.
func (b *FakeBackend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshN
}

// LogoutCalls returns how many logout requests were received.
func (b *FakeBackend) LogoutCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logoutN
}

// Requests returns "METHOD /path" for every request received, in order.
func (b *FakeBackend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

func (b *FakeBackend) authorized(r *http.Request) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access != "" && r.Header.Get("Authorization") == "Bearer "+b.access
}

func (b *FakeBackend) issue() string {
	b.issued++
	b.access = fmt.Sprintf("access-%d", b.issued)
	return b.access
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	if creds.Email != b.User.Email || creds.Password != b.Password {
		WriteJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"Invalid credentials"}})
		return
	}

	b.mu.Lock()
	res := models.AuthResult{Access: b.issue(), Refresh: b.refresh, User: b.User}
	b.revoked = false
	b.mu.Unlock()

	WriteJSON(w, http.StatusOK, res)
}

func (b *FakeBackend) refreshToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	b.refreshN++
	if b.revoked || body.Refresh != b.refresh {
		b.mu.Unlock()
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid refresh token"})
		return
	}
	access := b.issue()
	b.mu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (b *FakeBackend) logout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.logoutN++
	b.revoked = true
	b.access = ""
	b.mu.Unlock()

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
