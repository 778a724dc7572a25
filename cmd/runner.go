package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/session"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/desertthunder/cadence/internal/tasks"
	"github.com/desertthunder/cadence/internal/transport"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	manager    *session.Manager
	auth       *services.AuthService
	api        *services.APIService
	library    *services.LibraryService
	logger     *log.Logger
	output     io.Writer

	mu        sync.Mutex
	db        *sql.DB
	navigator session.Navigator // receives redirects while the player runs
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Storage    session.Storage   // defaults to a file at config.Session.Path
	Transport  http.RoundTripper // base transport for both API clients
	DB         *sql.DB           // cache database; opened from config.Database on first use when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// It wires two HTTP clients: one for the auth endpoints without the retry policy, and one for everything else
// that carries the bearer token and retries once on 401 through the session manager.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Storage == nil {
		opts.Storage = session.NewFileStorage(shared.ExpandPath(opts.Config.Session.Path))
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}

	cfg := opts.Config.API
	authClient := transport.NewClient(transport.ClientOpts{
		Base:      opts.Transport,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout(),
		Logger:    opts.Logger,
	})
	r.auth = services.NewAuthService(services.NewAPIService(cfg.BaseURL, authClient))

	store := session.NewStore()
	r.manager = session.NewManager(session.ManagerOpts{
		Store:               store,
		API:                 r.auth,
		Storage:             opts.Storage,
		Navigator:           session.NavigatorFunc(r.redirect),
		Logger:              opts.Logger,
		PersistRefreshToken: opts.Config.Session.PersistRefreshToken,
	})

	apiClient := transport.NewClient(transport.ClientOpts{
		Base:      opts.Transport,
		Tokens:    store,
		Refresher: r.manager,
		Limiter:   transport.NewLimiter(cfg.RateLimit),
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout(),
		Logger:    opts.Logger,
	})
	r.api = services.NewAPIService(cfg.BaseURL, apiClient)
	r.library = services.NewLibraryService(r.api)

	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, songsCommand, playlistsCommand, playLogsCommand, notificationsCommand,
		dashboardCommand, apiCommand, cacheCommand, playerCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the cache database if it was opened.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Runner) redirect(cause error) {
	r.mu.Lock()
	nav := r.navigator
	r.mu.Unlock()

	if nav != nil {
		nav.RedirectToLogin(cause)
		return
	}
	if cause != nil {
		r.logger.Warn("session ended, run 'cadence auth login' to sign in again", "cause", cause)
	}
}

func (r *Runner) setNavigator(nav session.Navigator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigator = nav
}

// ensureSession makes sure an access token is available before an authenticated command runs.
//
// A live session is used as is. Otherwise a restored refresh token is exchanged, and failing that the
// --email/--password flags or CADENCE_EMAIL/CADENCE_PASSWORD are used to log in.
func (r *Runner) ensureSession(ctx context.Context, cmd *cli.Command) error {
	if r.manager.IsAuthenticated() {
		return nil
	}

	restored, err := r.manager.Restore(ctx)
	if err != nil {
		r.logger.Warn("stored session could not be resumed", "error", err)
	} else if restored.IsAuthenticated() {
		return nil
	}

	creds := credentialsFrom(cmd)
	if creds.Email == "" && creds.Password == "" {
		return fmt.Errorf("%w: run 'cadence auth login' or pass --email and --password", shared.ErrNotAuthenticated)
	}

	if _, err := r.manager.Login(ctx, creds); err != nil {
		return err
	}
	return nil
}

// authed wraps an action so that it runs with a session.
func (r *Runner) authed(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.ensureSession(ctx, cmd); err != nil {
			return err
		}
		return action(ctx, cmd)
	}
}

func credentialsFrom(cmd *cli.Command) models.Credentials {
	email, password := shared.EnvCredentials()
	if v := cmd.String("email"); v != "" {
		email = v
	}
	if v := cmd.String("password"); v != "" {
		password = v
	}
	return models.Credentials{Email: email, Password: password}
}

// cache opens the catalog cache on first use.
func (r *Runner) cache() (*repositories.CacheAdapter, *repositories.PendingPlayRepository, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		db, err := shared.OpenCache(r.config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open cache: %w", err)
		}
		r.db = db
	}

	adapter := repositories.NewCacheAdapter(repositories.NewSongRepository(r.db), repositories.NewPlaylistRepository(r.db))
	return adapter, repositories.NewPendingPlayRepository(r.db), nil
}

// engine builds a sync engine. The cache is optional for exports.
func (r *Runner) engine(withCache bool) (*tasks.SyncEngine, error) {
	if !withCache {
		return tasks.NewSyncEngine(r.library, nil, nil, r.logger), nil
	}
	adapter, plays, err := r.cache()
	if err != nil {
		return nil, err
	}
	return tasks.NewSyncEngine(r.library, adapter, plays, r.logger), nil
}

// printProgress drains a progress channel to the output until it is closed.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		r.writePlain("%s\n", update.Message)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// writeResult writes data as JSON when --json is set and falls back to plain otherwise.
func (r *Runner) writeResult(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// idArg parses the positional id argument.
func idArg(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// optional returns a pointer to the flag's value when it was set on the command line.
func optional(cmd *cli.Command, name string) *string {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.String(name)
	return &v
}

func optionalBool(cmd *cli.Command, name string) *bool {
	if !cmd.IsSet(name) {
		return nil
	}
	v := cmd.Bool(name)
	return &v
}

func isAuthError(err error) bool {
	return errors.Is(err, shared.ErrNotAuthenticated) || errors.Is(err, shared.ErrSessionExpired) ||
		errors.Is(err, shared.ErrAuthFailed) || errors.Is(err, shared.ErrMissingCredentials)
}
