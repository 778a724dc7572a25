package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/session"
	"github.com/desertthunder/cadence/internal/shared"
	tu "github.com/desertthunder/cadence/internal/testing"
	"github.com/urfave/cli/v3"
)

type fixture struct {
	backend *tu.FakeBackend
	runner  *Runner
	output  *bytes.Buffer
	storage *session.MemoryStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := tu.NewFakeBackend(t)
	config := shared.DefaultConfig()
	config.API.BaseURL = backend.URL()
	config.API.RateLimit = 0
	config.Database.Path = filepath.Join(t.TempDir(), "cache.db")

	f := &fixture{backend: backend, output: &bytes.Buffer{}, storage: session.NewMemoryStorage()}
	f.runner = NewRunner(RunnerOpts{
		Config:  config,
		Storage: f.storage,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  f.output,
	})
	t.Cleanup(func() { f.runner.Close() })
	return f
}

// run executes the command line args against the runner's command tree.
func (f *fixture) run(args ...string) error {
	app := &cli.Command{Name: "cadence", Commands: f.runner.register()}
	return app.Run(context.Background(), append([]string{"cadence"}, args...))
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	if err := f.run("auth", "login", "--email", f.backend.User.Email, "--password", f.backend.Password); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	f.output.Reset()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/tmp/config.toml",
				Storage:    session.NewMemoryStorage(),
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/tmp/config.toml" {
				t.Errorf("expected configPath to be set, got %q", runner.configPath)
			}
			if runner.manager == nil || runner.auth == nil || runner.api == nil || runner.library == nil {
				t.Error("expected services to be wired")
			}
			if runner.api.BaseURL() != config.API.BaseURL {
				t.Errorf("expected base URL %q, got %q", config.API.BaseURL, runner.api.BaseURL())
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Storage: session.NewMemoryStorage()})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Storage: session.NewMemoryStorage()})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Storage: session.NewMemoryStorage()})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("starts unauthenticated", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Storage: session.NewMemoryStorage()})

			if runner.manager.IsAuthenticated() {
				t.Error("expected no session before login")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Storage: session.NewMemoryStorage()})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Storage: session.NewMemoryStorage()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Storage: session.NewMemoryStorage()})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Storage: session.NewMemoryStorage()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter, Storage: session.NewMemoryStorage()})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Storage: session.NewMemoryStorage()})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Storage: session.NewMemoryStorage()})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Storage: session.NewMemoryStorage()})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "songs", "playlists", "playlogs", "notifications", "dashboard", "api", "cache", "player"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestIDArg(t *testing.T) {
	tc := []struct {
		name    string
		args    []string
		want    int64
		wantErr error
	}{
		{"valid", []string{"42"}, 42, nil},
		{"missing", nil, 0, shared.ErrMissingArgument},
		{"not a number", []string{"abc"}, 0, shared.ErrInvalidArgument},
		{"zero", []string{"0"}, 0, shared.ErrInvalidArgument},
		{"negative", []string{"-3"}, 0, shared.ErrInvalidArgument},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var got int64
			var gotErr error
			cmd := &cli.Command{
				Name:      "probe",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					got, gotErr = idArg(cmd, "id")
					return nil
				},
			}

			args := append([]string{"probe", "--"}, tt.args...)
			if err := cmd.Run(context.Background(), args); err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if tt.wantErr != nil {
				if !errors.Is(gotErr, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, gotErr)
				}
				return
			}
			if gotErr != nil || got != tt.want {
				t.Errorf("idArg = %d, %v; want %d", got, gotErr, tt.want)
			}
		})
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("login stores only the profile", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		rec, err := f.storage.Load()
		if err != nil || rec == nil || rec.User == nil {
			t.Fatalf("expected a stored profile, got %+v (%v)", rec, err)
		}
		if rec.User.Email != f.backend.User.Email {
			t.Errorf("expected %s, got %s", f.backend.User.Email, rec.User.Email)
		}
		if rec.RefreshToken != "" {
			t.Error("refresh token must not be stored by default")
		}
	})

	t.Run("login with bad credentials fails", func(t *testing.T) {
		f := newFixture(t)

		err := f.run("auth", "login", "--email", f.backend.User.Email, "--password", "wrong-password")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		if f.runner.manager.IsAuthenticated() {
			t.Error("expected no session after failed login")
		}
	})

	t.Run("login without credentials is rejected locally", func(t *testing.T) {
		f := newFixture(t)
		t.Setenv(shared.EnvEmail, "")
		t.Setenv(shared.EnvPassword, "")

		if err := f.run("auth", "login"); err == nil {
			t.Fatal("expected an error without credentials")
		}
		for _, req := range f.backend.Requests() {
			if strings.Contains(req, "/auth/login/") {
				t.Errorf("no request should reach the backend, got %s", req)
			}
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		if err := f.run("auth", "logout"); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if f.runner.manager.IsAuthenticated() {
			t.Error("expected no session after logout")
		}
		if rec, _ := f.storage.Load(); rec != nil {
			t.Errorf("expected cleared storage, got %+v", rec)
		}
		if f.backend.LogoutCalls() != 1 {
			t.Errorf("expected one logout call, got %d", f.backend.LogoutCalls())
		}
	})

	t.Run("status reports the stored user", func(t *testing.T) {
		f := newFixture(t)
		f.login(t)

		if err := f.run("auth", "status"); err != nil {
			t.Fatalf("status failed: %v", err)
		}
		if !strings.Contains(f.output.String(), f.backend.User.Email) {
			t.Errorf("expected email in status output, got %q", f.output.String())
		}
	})
}

func TestAuthenticatedCommands(t *testing.T) {
	songs := models.Page[models.Song]{Count: 2, Results: []models.Song{
		{ID: 1, Title: "Blue in Green", Artist: "Miles Davis", Genre: "jazz"},
		{ID: 2, Title: "So What", Artist: "Miles Davis", Genre: "jazz"},
	}}

	t.Run("unauthenticated command without credentials fails", func(t *testing.T) {
		f := newFixture(t)
		t.Setenv(shared.EnvEmail, "")
		t.Setenv(shared.EnvPassword, "")

		err := f.run("songs", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if !isAuthError(err) {
			t.Error("expected isAuthError to recognize the error")
		}
	})

	t.Run("credentials from the environment log in on the fly", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("GET /songs/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, songs)
		})
		t.Setenv(shared.EnvEmail, f.backend.User.Email)
		t.Setenv(shared.EnvPassword, f.backend.Password)

		if err := f.run("songs", "list"); err != nil {
			t.Fatalf("songs list failed: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "Blue in Green") || !strings.Contains(out, "2 of 2 songs") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("expired access token is refreshed once", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("GET /songs/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, songs)
		})
		f.login(t)
		f.backend.ExpireAccess()

		if err := f.run("songs", "list", "--json"); err != nil {
			t.Fatalf("songs list failed: %v", err)
		}
		if f.backend.RefreshCalls() != 1 {
			t.Errorf("expected one refresh, got %d", f.backend.RefreshCalls())
		}
		if !strings.Contains(f.output.String(), `"title":"So What"`) {
			t.Errorf("expected JSON output, got %q", f.output.String())
		}
	})

	t.Run("failed refresh ends the session", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("GET /songs/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, songs)
		})
		f.login(t)
		f.backend.ExpireAccess()
		f.backend.RevokeRefresh()

		err := f.run("songs", "list")
		if !shared.IsStatus(err, http.StatusUnauthorized) {
			t.Errorf("expected the original 401, got %v", err)
		}
		if f.runner.manager.IsAuthenticated() {
			t.Error("expected the session to be expired")
		}
		if rec, _ := f.storage.Load(); rec != nil {
			t.Error("expected storage to be cleared")
		}
	})

	t.Run("playlist create adds songs in order", func(t *testing.T) {
		f := newFixture(t)
		var added []string
		f.backend.Handle("POST /playlists/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusCreated, models.Playlist{ID: 7, Name: "Evening"})
		})
		f.backend.Handle("POST /playlists/7/add_song/", func(w http.ResponseWriter, r *http.Request) {
			added = append(added, r.URL.Path)
			tu.WriteJSON(w, http.StatusCreated, map[string]string{"message": "added"})
		})
		f.backend.Handle("GET /playlists/7/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, models.Playlist{ID: 7, Name: "Evening", Songs: []models.PlaylistSong{
				{Song: songs.Results[1], Order: 0},
				{Song: songs.Results[0], Order: 1},
			}})
		})
		f.login(t)

		if err := f.run("playlists", "create", "--song", "2", "--song", "1", "Evening"); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if len(added) != 2 {
			t.Errorf("expected two add_song calls, got %d", len(added))
		}
		if !strings.Contains(f.output.String(), `"Evening" (id 7, 2 songs)`) {
			t.Errorf("unexpected output: %q", f.output.String())
		}
	})

	t.Run("play log is queued when the backend is down", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("POST /play-logs/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "maintenance"})
		})
		f.login(t)

		if err := f.run("playlogs", "log", "--queue", "2"); err != nil {
			t.Fatalf("expected the play to be queued, got %v", err)
		}

		_, plays, err := f.runner.cache()
		if err != nil {
			t.Fatalf("cache: %v", err)
		}
		pending, err := plays.List()
		if err != nil || len(pending) != 1 || pending[0].SongID != 2 {
			t.Errorf("expected one pending play of song 2, got %+v (%v)", pending, err)
		}
	})

	t.Run("play log rejected by the backend is not queued", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("POST /play-logs/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusBadRequest, map[string][]string{"song": {"Invalid pk"}})
		})
		f.login(t)

		if err := f.run("playlogs", "log", "--queue", "99"); !shared.IsStatus(err, http.StatusBadRequest) {
			t.Errorf("expected the 400 to surface, got %v", err)
		}
	})

	t.Run("api get surfaces non-2xx responses", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("GET /missing/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		})
		f.login(t)

		err := f.run("api", "get", "missing/")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestCacheCommands(t *testing.T) {
	t.Run("sync then read offline", func(t *testing.T) {
		f := newFixture(t)
		f.backend.Handle("GET /songs/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, []models.Song{{ID: 1, Title: "Naima", Artist: "John Coltrane", Genre: "jazz"}})
		})
		f.backend.Handle("GET /playlists/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, []models.Playlist{{ID: 3, Name: "Late", SongCount: 1}})
		})
		f.backend.Handle("GET /playlists/3/", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, models.Playlist{ID: 3, Name: "Late", SongCount: 1, Songs: []models.PlaylistSong{
				{Song: models.Song{ID: 1, Title: "Naima", Artist: "John Coltrane", Genre: "jazz"}, Order: 0},
			}})
		})
		f.login(t)

		if err := f.run("cache", "sync"); err != nil {
			t.Fatalf("sync failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "Cache synced") {
			t.Errorf("unexpected sync output: %q", f.output.String())
		}

		f.output.Reset()
		if err := f.run("songs", "list", "--offline", "--search", "nai"); err != nil {
			t.Fatalf("offline songs failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "Naima") {
			t.Errorf("expected cached song, got %q", f.output.String())
		}

		f.output.Reset()
		if err := f.run("playlists", "get", "--offline", "3"); err != nil {
			t.Fatalf("offline playlist failed: %v", err)
		}
		if !strings.Contains(f.output.String(), "Late") || !strings.Contains(f.output.String(), "Naima") {
			t.Errorf("expected cached playlist with songs, got %q", f.output.String())
		}
	})

	t.Run("offline listing needs no session", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("cache", "playlists"); err != nil {
			t.Fatalf("expected an empty listing, got %v", err)
		}
		if !strings.Contains(f.output.String(), "0 cached playlists") {
			t.Errorf("unexpected output: %q", f.output.String())
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes the default file once", func(t *testing.T) {
		f := newFixture(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := f.run("setup", "config", "--path", path); err != nil {
			t.Fatalf("setup config failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		if err := f.run("setup", "config", "--path", path); err == nil {
			t.Error("expected an error when the file already exists")
		}
	})

	t.Run("database migrates and lists migrations", func(t *testing.T) {
		f := newFixture(t)

		if err := f.run("setup", "database"); err != nil {
			t.Fatalf("setup database failed: %v", err)
		}
		f.output.Reset()

		if err := f.run("setup", "migrations"); err != nil {
			t.Fatalf("setup migrations failed: %v", err)
		}
		out := f.output.String()
		if !strings.Contains(out, "applied") || strings.Contains(out, "pending") {
			t.Errorf("expected every migration applied, got %q", out)
		}

		if err := f.run("setup", "rollback"); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}
		f.output.Reset()
		f.run("setup", "migrations")
		if !strings.Contains(f.output.String(), "pending") {
			t.Errorf("expected a pending migration after rollback, got %q", f.output.String())
		}
	})
}
