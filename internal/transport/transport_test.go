package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cadence/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// tokenBox is a mutable token source with a refresher over it.
type tokenBox struct {
	mu         sync.Mutex
	access     string
	next       string
	refreshErr error
	refreshes  int
	expired    []error
}

func (b *tokenBox) Token() (*oauth2.Token, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.access == "" {
		return nil, errors.New("no token")
	}
	return &oauth2.Token{AccessToken: b.access, TokenType: "Bearer"}, nil
}

func (b *tokenBox) RefreshAccessToken(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshes++
	if b.refreshErr != nil {
		return "", b.refreshErr
	}
	b.access = b.next
	return b.access, nil
}

func (b *tokenBox) Expire(ctx context.Context, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.access = ""
	b.expired = append(b.expired, cause)
}

// authServer accepts only the given bearer token and records every Authorization header and body it sees.
type authServer struct {
	*httptest.Server
	valid   atomic.Value
	mu      sync.Mutex
	headers []string
	bodies  []string
}

func newAuthServer(t *testing.T, valid string) *authServer {
	t.Helper()
	s := &authServer{}
	s.valid.Store(valid)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.headers = append(s.headers, r.Header.Get("Authorization"))
		s.bodies = append(s.bodies, string(body))
		s.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+s.valid.Load().(string) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": "Given token not valid for any token type"}`))
			return
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *authServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.headers)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestBearer(t *testing.T) {
	t.Run("attaches the token", func(t *testing.T) {
		srv := newAuthServer(t, "abc")
		client := NewClient(ClientOpts{Tokens: &tokenBox{access: "abc"}})

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
		if srv.headers[0] != "Bearer abc" {
			t.Errorf("unexpected Authorization header %q", srv.headers[0])
		}
	})

	t.Run("no token sends the request unauthenticated", func(t *testing.T) {
		srv := newAuthServer(t, "abc")
		client := NewClient(ClientOpts{Tokens: &tokenBox{}})

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if srv.headers[0] != "" {
			t.Errorf("expected no Authorization header, got %q", srv.headers[0])
		}
	})

	t.Run("does not mutate the caller's request", func(t *testing.T) {
		srv := newAuthServer(t, "abc")
		client := NewClient(ClientOpts{Tokens: &tokenBox{access: "abc"}})

		req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if req.Header.Get("Authorization") != "" || req.Header.Get(HeaderRequestID) != "" {
			t.Error("middleware should work on clones")
		}
	})
}

func TestRetryOnUnauthorized(t *testing.T) {
	t.Run("refreshes and retries once", func(t *testing.T) {
		srv := newAuthServer(t, "fresh")
		box := &tokenBox{access: "stale", next: "fresh"}
		client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/play-logs/", strings.NewReader(`{"song": 3}`))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected retried request to succeed, got %d", resp.StatusCode)
		}
		if box.refreshes != 1 {
			t.Errorf("expected exactly one refresh, got %d", box.refreshes)
		}
		if srv.calls() != 2 {
			t.Fatalf("expected 2 calls, got %d", srv.calls())
		}
		if srv.headers[1] != "Bearer fresh" {
			t.Errorf("retry should carry the new token, got %q", srv.headers[1])
		}
		if srv.bodies[1] != `{"song": 3}` {
			t.Errorf("retry should replay the body, got %q", srv.bodies[1])
		}
	})

	t.Run("refresh failure expires the session and returns the 401", func(t *testing.T) {
		srv := newAuthServer(t, "fresh")
		box := &tokenBox{access: "stale", refreshErr: fmt.Errorf("%w: token_not_valid", shared.ErrRefreshFailed)}
		client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "token not valid") {
			t.Errorf("original 401 body should be preserved, got %q", body)
		}
		if len(box.expired) != 1 {
			t.Errorf("expected session expiry, got %d", len(box.expired))
		}
		if srv.calls() != 1 {
			t.Errorf("no retry expected after failed refresh, got %d calls", srv.calls())
		}
	})

	t.Run("undelivered refresh keeps the session and returns the 401", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
		}{
			{"connection refused", fmt.Errorf("%w: dial tcp: connection refused", shared.ErrAPIRequest)},
			{"server error", &shared.RequestError{Method: http.MethodPost, Path: "auth/refresh/", StatusCode: http.StatusBadGateway}},
			{"cancelled", context.Canceled},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := newAuthServer(t, "fresh")
				box := &tokenBox{access: "stale", refreshErr: tt.err}
				client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

				resp, err := client.Get(srv.URL)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				defer resp.Body.Close()

				if resp.StatusCode != http.StatusUnauthorized {
					t.Errorf("expected 401, got %d", resp.StatusCode)
				}
				if len(box.expired) != 0 {
					t.Errorf("session should survive %v, got %d expiries", tt.err, len(box.expired))
				}
				if srv.calls() != 1 {
					t.Errorf("no retry expected, got %d calls", srv.calls())
				}
			})
		}
	})

	t.Run("second 401 is surfaced unmodified", func(t *testing.T) {
		srv := newAuthServer(t, "never-issued")
		box := &tokenBox{access: "stale", next: "also-wrong"}
		client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
		if box.refreshes != 1 || srv.calls() != 2 {
			t.Errorf("expected one refresh and two calls, got %d refreshes, %d calls", box.refreshes, srv.calls())
		}
		if len(box.expired) != 0 {
			t.Error("a 401 after a successful refresh should not expire the session")
		}
	})

	t.Run("already retried requests are not retried", func(t *testing.T) {
		srv := newAuthServer(t, "fresh")
		box := &tokenBox{access: "stale", next: "fresh"}
		client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

		req, _ := http.NewRequestWithContext(WithRetried(context.Background()), http.MethodGet, srv.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized || box.refreshes != 0 {
			t.Errorf("expected untouched 401, got %d with %d refreshes", resp.StatusCode, box.refreshes)
		}
	})

	t.Run("other statuses pass through", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "Not found."}`, http.StatusNotFound)
		}))
		defer srv.Close()

		box := &tokenBox{access: "abc", next: "def"}
		client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound || box.refreshes != 0 {
			t.Errorf("expected untouched 404, got %d with %d refreshes", resp.StatusCode, box.refreshes)
		}
	})

	t.Run("one-shot bodies are not retried", func(t *testing.T) {
		srv := newAuthServer(t, "fresh")
		box := &tokenBox{access: "stale", next: "fresh"}
		client := NewClient(ClientOpts{Tokens: box, Refresher: box, Logger: quietLogger()})

		req, _ := http.NewRequest(http.MethodPost, srv.URL, io.NopCloser(strings.NewReader("stream")))
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized || box.refreshes != 0 {
			t.Errorf("expected 401 without refresh, got %d with %d refreshes", resp.StatusCode, box.refreshes)
		}
	})

	t.Run("without a refresher a 401 is returned", func(t *testing.T) {
		srv := newAuthServer(t, "fresh")
		client := NewClient(ClientOpts{Tokens: &tokenBox{access: "stale"}})

		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized || srv.calls() != 1 {
			t.Errorf("expected single 401, got %d after %d calls", resp.StatusCode, srv.calls())
		}
	})
}

func TestRetriedContext(t *testing.T) {
	ctx := context.Background()
	if IsRetried(ctx) {
		t.Error("fresh context should not be marked")
	}
	if !IsRetried(WithRetried(ctx)) {
		t.Error("marked context should report retried")
	}
}

func TestRequestIDAndUserAgent(t *testing.T) {
	var gotID, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotUA = r.Header.Get(HeaderRequestID), r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient(ClientOpts{UserAgent: "cadence/test"})

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if len(gotID) != 36 {
		t.Errorf("expected a UUID request id, got %q", gotID)
	}
	if gotUA != "cadence/test" {
		t.Errorf("expected user agent cadence/test, got %q", gotUA)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set(HeaderRequestID, "fixed")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()
	if gotID != "fixed" {
		t.Errorf("existing request id should be kept, got %q", gotID)
	}
}

func TestRateLimit(t *testing.T) {
	t.Run("cancelled context stops waiting", func(t *testing.T) {
		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
		limiter.Allow()

		rt := Chain(RoundTripFunc(func(*http.Request) (*http.Response, error) {
			t.Error("request should not reach the base transport")
			return nil, nil
		}), RateLimit(limiter))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost", nil)
		if _, err := rt.RoundTrip(req); err == nil {
			t.Error("expected error from cancelled wait")
		}
	})

	t.Run("NewLimiter", func(t *testing.T) {
		if NewLimiter(0) != nil {
			t.Error("zero rate should disable limiting")
		}
		if l := NewLimiter(0.5); l == nil || l.Burst() != 1 {
			t.Error("fractional rate should get a burst of 1")
		}
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripFunc(func(req *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(req)
			})
		}
	}

	rt := Chain(RoundTripFunc(func(*http.Request) (*http.Response, error) {
		order = append(order, "base")
		return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}, nil
	}), tag("outer"), nil, tag("inner"))

	req, _ := http.NewRequest(http.MethodGet, "http://localhost", nil)
	if _, err := rt.RoundTrip(req); err != nil {
		t.Fatal(err)
	}

	if strings.Join(order, ",") != "outer,inner,base" {
		t.Errorf("unexpected order: %v", order)
	}
}
