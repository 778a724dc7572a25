package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/playback"
	"github.com/desertthunder/cadence/internal/services"
	"github.com/desertthunder/cadence/internal/session"
	"github.com/desertthunder/cadence/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	SongListView
	PlaylistListView
	TrackListView
)

// Auth is the part of the session manager the TUI drives.
type Auth interface {
	Login(ctx context.Context, creds models.Credentials) (session.Session, error)
	Logout(ctx context.Context)
	IsAuthenticated() bool
	Session() session.Session
}

// Library is the part of the backend API the TUI reads from.
type Library interface {
	AllSongs(ctx context.Context, q services.SongQuery, onPage func(page, total int)) ([]models.Song, error)
	AllPlaylists(ctx context.Context, q services.PlaylistQuery, onPage func(page, total int)) ([]models.Playlist, error)
	GetPlaylist(ctx context.Context, id int64) (*models.Playlist, error)
	LogPlay(ctx context.Context, songID int64) (*models.PlayLogReceipt, error)
}

// Cache is the local catalog. repositories.CacheAdapter satisfies it.
type Cache interface {
	CacheSongs(songs []models.Song) (int, error)
	CachePlaylist(playlist models.Playlist) error
	CachedSongs(criteria map[string]any) ([]models.Song, error)
	CachedPlaylists(criteria map[string]any) ([]models.Playlist, error)
	CachedPlaylist(id int64) (*models.Playlist, error)
}

// PlayQueue stores plays that could not be delivered. repositories.PendingPlayRepository satisfies it.
type PlayQueue interface {
	Enqueue(songID int64, playedAt time.Time) error
}

// Opts holds the TUI's dependencies. Auth, Library and Player are required.
type Opts struct {
	Auth      Auth
	Library   Library
	Cache     Cache
	Plays     PlayQueue
	Player    *playback.Player
	Navigator *Navigator
	Logger    *log.Logger
	OpenURL   func(string) error // defaults to shared.OpenURL
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	auth      Auth
	library   Library
	cache     Cache
	plays     PlayQueue
	player    *playback.Player
	navigator *Navigator
	logger    *log.Logger
	openURL   func(string) error

	width        int
	height       int
	email        textinput.Model
	password     textinput.Model
	songList     list.Model
	playlistList list.Model
	trackList    list.Model
	playlist     *models.Playlist
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenURL
	}
	if opts.Player == nil {
		opts.Player = playback.NewPlayer()
	}

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email    "
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := &Model{
		ctx:          ctx,
		view:         LoginView,
		auth:         opts.Auth,
		library:      opts.Library,
		cache:        opts.Cache,
		plays:        opts.Plays,
		player:       opts.Player,
		navigator:    opts.Navigator,
		logger:       shared.WithLogger(opts.Logger, "component", "tui"),
		openURL:      opts.OpenURL,
		width:        80,
		height:       24,
		email:        email,
		password:     password,
		songList:     newList("Songs"),
		playlistList: newList("Playlists"),
		trackList:    newList("Tracks"),
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.resize()

	if m.auth.IsAuthenticated() {
		m.view = SongListView
	} else {
		m.email.Focus()
	}
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}

// CurrentView returns the view being shown.
func (m *Model) CurrentView() ViewState {
	return m.view
}

// Init starts listening for login redirects and loads the catalog when a session already exists.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.navigator.listen(m.ctx)}
	if m.view == LoginView {
		cmds = append(cmds, textinput.Blink)
	} else {
		cmds = append(cmds, m.fetchSongs(), m.fetchPlaylists())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.view == LoginView {
			return m.handleLoginKeys(msg)
		}
		return m.handleBrowseKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLoggedIn:
		m.password.SetValue("")
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		m.err = nil
		m.status = "Signed in"
		if user, ok := msg.data.(*models.Profile); ok && user != nil {
			m.status = fmt.Sprintf("Signed in as %s", user.DisplayName())
		}
		m.email.Blur()
		m.password.Blur()
		m.view = SongListView
		return m, tea.Batch(m.fetchSongs(), m.fetchPlaylists())

	case MsgSongsFetched:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		payload := msg.data.(songsPayload)
		m.offline(payload.offline, "songs")
		return m, m.songList.SetItems(songItems(payload.songs))

	case MsgPlaylistsFetched:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		payload := msg.data.(playlistsPayload)
		m.offline(payload.offline, "playlists")
		return m, m.playlistList.SetItems(playlistItems(payload.playlists))

	case MsgPlaylistFetched:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			return m, nil
		}
		payload := msg.data.(playlistPayload)
		m.err = nil
		m.status = ""
		m.offline(payload.offline, "playlist")
		m.playlist = payload.playlist
		m.trackList.Title = payload.playlist.Name
		m.trackList.ResetFilter()
		m.trackList.Select(0)
		m.view = TrackListView
		return m, m.trackList.SetItems(trackItems(payload.playlist.Tracks()))

	case MsgPlayLogged:
		payload := msg.data.(playPayload)
		switch {
		case msg.err == nil:
			m.logger.Debug("play logged", "song", payload.track.ID)
		case payload.queued:
			m.status = fmt.Sprintf("Offline: play of %q will be sent on the next sync", payload.track.Title)
		default:
			m.logger.Warn("play not logged", "song", payload.track.ID, "error", msg.err)
		}
		return m, nil

	case MsgRedirect:
		m.player.Stop()
		m.playlist = nil
		m.view = LoginView
		m.password.SetValue("")
		m.password.Blur()
		m.email.Focus()
		m.err = nil
		m.status = "Signed out"
		if msg.err != nil {
			m.status = "Your session has ended. Please sign in again."
		}
		m.resize()
		return m, tea.Batch(m.navigator.listen(m.ctx), textinput.Blink)

	case MsgOpened:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.status = fmt.Sprintf("Opened %s", msg.data)
		return m, nil
	}
	return m, nil
}

func (m *Model) offline(offline bool, what string) {
	if offline {
		m.status = fmt.Sprintf("Backend unreachable: showing cached %s", what)
		return
	}
	m.err = nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.switchField()
		return m, textinput.Blink
	case "enter":
		if m.email.Focused() {
			m.switchField()
			return m, textinput.Blink
		}
		return m, m.login()
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) switchField() {
	if m.email.Focused() {
		m.email.Blur()
		m.password.Focus()
		return
	}
	m.password.Blur()
	m.email.Focus()
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.activeList().FilterState() == list.Filtering {
		return m.updateActive(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.switchTo):
		if m.view == SongListView {
			m.view = PlaylistListView
		} else {
			m.view = SongListView
		}
		return m, nil
	case key.Matches(msg, m.keys.back) && m.view == TrackListView:
		m.view = PlaylistListView
		m.playlist = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.selectEntry()
	case key.Matches(msg, m.keys.playAll):
		return m, m.playAll()
	case key.Matches(msg, m.keys.toggle):
		m.player.TogglePlayback()
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.player.Next() {
			return m, m.logCurrent()
		}
		return m, nil
	case key.Matches(msg, m.keys.previous):
		if m.player.Previous() {
			return m, m.logCurrent()
		}
		return m, nil
	case key.Matches(msg, m.keys.stop):
		m.player.Stop()
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.visible):
		m.player.SetPlayerVisible(!m.player.Snapshot().IsPlayerVisible)
		m.resize()
		return m, nil
	case key.Matches(msg, m.keys.open):
		return m, m.openCurrent()
	}

	return m.updateActive(msg)
}

func (m *Model) activeList() *list.Model {
	switch m.view {
	case PlaylistListView:
		return &m.playlistList
	case TrackListView:
		return &m.trackList
	default:
		return &m.songList
	}
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.view == LoginView {
		return m, nil
	}
	active := m.activeList()
	var cmd tea.Cmd
	*active, cmd = active.Update(msg)
	return m, cmd
}

// selectEntry plays the selected song or track, or opens the selected playlist.
func (m *Model) selectEntry() tea.Cmd {
	switch item := m.activeList().SelectedItem().(type) {
	case songItem:
		m.player.PlayTrack(item.song.Track())
		m.player.SetQueue(m.upNext())
	case trackItem:
		m.player.PlayTrack(item.track)
		m.player.SetQueue(m.upNext())
	case playlistItem:
		m.status = fmt.Sprintf("Loading %s...", item.playlist.Name)
		return m.fetchPlaylist(item.playlist.ID)
	default:
		return nil
	}
	m.resize()
	return m.logCurrent()
}

// visibleTracks returns the playable entries of the active list in display order.
func (m *Model) visibleTracks() []models.Track {
	var tracks []models.Track
	for _, it := range m.activeList().VisibleItems() {
		switch item := it.(type) {
		case songItem:
			tracks = append(tracks, item.song.Track())
		case trackItem:
			tracks = append(tracks, item.track)
		}
	}
	return tracks
}

// upNext is the visible list from the selected entry onward, so the cursor starts on the track just played.
func (m *Model) upNext() []models.Track {
	tracks := m.visibleTracks()
	if i := m.activeList().Index(); i > 0 && i < len(tracks) {
		return tracks[i:]
	}
	return tracks
}

// playAll queues the visible entries of the song or track list and starts at the first.
func (m *Model) playAll() tea.Cmd {
	tracks := m.visibleTracks()
	if !m.player.PlayQueue(tracks) {
		m.status = "Nothing to play"
		return nil
	}
	if m.view == TrackListView && m.playlist != nil {
		m.status = fmt.Sprintf("Playing %s", m.playlist.Name)
	}
	m.resize()
	return m.logCurrent()
}

func (m *Model) openCurrent() tea.Cmd {
	current := m.player.CurrentTrack()
	if current == nil || !current.Playable() {
		m.err = fmt.Errorf("%w: no playable track selected", shared.ErrInvalidInput)
		return nil
	}
	url := current.AudioURL
	return func() tea.Msg {
		return openedMsg(url, m.openURL(url))
	}
}

func (m *Model) login() tea.Cmd {
	creds := models.Credentials{Email: strings.TrimSpace(m.email.Value()), Password: m.password.Value()}
	if err := creds.Validate(); err != nil {
		m.err = err
		return nil
	}

	m.err = nil
	m.status = "Signing in..."
	return func() tea.Msg {
		sess, err := m.auth.Login(m.ctx, creds)
		return loggedInMsg(sess.User, err)
	}
}

// logout revokes the session; the manager's redirect moves the UI to the login view.
func (m *Model) logout() tea.Cmd {
	m.status = "Signing out..."
	return func() tea.Msg {
		m.auth.Logout(m.ctx)
		return nil
	}
}

// logCurrent posts a play log for the current track in the background.
// Plays the backend never received are queued for the next sync.
func (m *Model) logCurrent() tea.Cmd {
	current := m.player.CurrentTrack()
	if current == nil {
		return nil
	}
	track := *current

	return func() tea.Msg {
		_, err := m.library.LogPlay(m.ctx, track.ID)
		if err == nil || m.plays == nil || !shared.IsUndelivered(err) {
			return playLoggedMsg(track, false, err)
		}
		if qerr := m.plays.Enqueue(track.ID, time.Now()); qerr != nil {
			return playLoggedMsg(track, false, errors.Join(err, qerr))
		}
		return playLoggedMsg(track, true, err)
	}
}

func (m *Model) fetchSongs() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.library.AllSongs(m.ctx, services.SongQuery{}, nil)
		if err == nil {
			if m.cache != nil {
				if _, cerr := m.cache.CacheSongs(songs); cerr != nil {
					m.logger.Warn("could not cache songs", "error", cerr)
				}
			}
			return songsFetchedMsg(songs, false, nil)
		}

		if m.cache != nil {
			if cached, cerr := m.cache.CachedSongs(nil); cerr == nil && len(cached) > 0 {
				m.logger.Warn("song fetch failed, using cache", "error", err)
				return songsFetchedMsg(cached, true, nil)
			}
		}
		return songsFetchedMsg(nil, false, err)
	}
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.library.AllPlaylists(m.ctx, services.PlaylistQuery{}, nil)
		if err == nil {
			if m.cache != nil {
				for _, p := range playlists {
					p.Songs = nil
					if cerr := m.cache.CachePlaylist(p); cerr != nil {
						m.logger.Warn("could not cache playlist", "playlist", p.ID, "error", cerr)
					}
				}
			}
			return playlistsFetchedMsg(playlists, false, nil)
		}

		if m.cache != nil {
			if cached, cerr := m.cache.CachedPlaylists(nil); cerr == nil && len(cached) > 0 {
				m.logger.Warn("playlist fetch failed, using cache", "error", err)
				return playlistsFetchedMsg(cached, true, nil)
			}
		}
		return playlistsFetchedMsg(nil, false, err)
	}
}

func (m *Model) fetchPlaylist(id int64) tea.Cmd {
	return func() tea.Msg {
		playlist, err := m.library.GetPlaylist(m.ctx, id)
		if err == nil {
			if m.cache != nil {
				if cerr := m.cache.CachePlaylist(*playlist); cerr != nil {
					m.logger.Warn("could not cache playlist", "playlist", id, "error", cerr)
				}
			}
			return playlistFetchedMsg(playlist, false, nil)
		}

		if m.cache != nil && !errors.Is(err, shared.ErrPlaylistNotFound) {
			if cached, cerr := m.cache.CachedPlaylist(id); cerr == nil {
				m.logger.Warn("playlist fetch failed, using cache", "playlist", id, "error", err)
				return playlistFetchedMsg(cached, true, nil)
			}
		}
		return playlistFetchedMsg(nil, false, err)
	}
}

func (m *Model) resize() {
	height := m.height - 6
	if m.player.Snapshot().IsPlayerVisible {
		height -= 3
	}
	height = max(height, 3)
	width := max(m.width-4, 20)

	m.songList.SetSize(width, height)
	m.playlistList.SetSize(width, height)
	m.trackList.SetSize(width, height)
}

// View renders the current view with the status line, player bar and key help below it.
func (m *Model) View() string {
	if m.view == LoginView {
		return m.renderLogin()
	}

	sections := []string{m.renderHeader(), m.activeList().View()}
	if line := m.renderStatus(); line != "" {
		sections = append(sections, line)
	}
	if bar := m.renderPlayer(); bar != "" {
		sections = append(sections, bar)
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader() string {
	header := "cadence"
	if user := m.auth.Session().User; user != nil {
		header = fmt.Sprintf("cadence • %s", user.DisplayName())
	}
	return styles.label.Render(header)
}

func (m *Model) renderStatus() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.status != "" {
		return styles.help.Render(m.status)
	}
	return ""
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in to cadence")
	form := lipgloss.JoinVertical(lipgloss.Left, m.email.View(), m.password.View())
	helpLine := styles.help.Render("enter submit • tab switch field • esc quit")

	sections := []string{title, form}
	if line := m.renderStatus(); line != "" {
		sections = append(sections, "", line)
	}
	sections = append(sections, "", helpLine)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderPlayer() string {
	snap := m.player.Snapshot()
	if !snap.IsPlayerVisible || snap.CurrentTrack == nil {
		return ""
	}

	icon := "⏸"
	if snap.IsPlaying {
		icon = "▶"
	}

	track := snap.CurrentTrack
	line := fmt.Sprintf("%s %s", icon, styles.ok.Render(track.Title))
	if track.Artist != "" {
		line += " • " + track.Artist
	}
	line += "  " + styles.label.Render(track.DurationString())
	if snap.InQueue() {
		line += styles.label.Render(fmt.Sprintf("  [%d/%d]", snap.CurrentIndex+1, len(snap.Queue)))
	}
	return styles.player.Width(max(m.width-4, 20)).Render(line)
}
