package models

import "time"

// Notification types.
const (
	NotificationPlaylistUpdate = "playlist_update"
	NotificationNewSong        = "new_song"
	NotificationWelcome        = "welcome"
	NotificationGeneral        = "general"
)

// PlayLog records one play of a song.
type PlayLog struct {
	ID         int64     `json:"id"`
	UserName   string    `json:"user_name,omitempty"`
	SongTitle  string    `json:"song_title"`
	SongArtist string    `json:"song_artist"`
	PlayedAt   time.Time `json:"played_at"`
}

// PlayLogReceipt is returned when a play is logged.
type PlayLogReceipt struct {
	ID       int64     `json:"id"`
	Message  string    `json:"message"`
	PlayedAt time.Time `json:"played_at"`
}

// PlayStats summarizes the current user's listening history.
type PlayStats struct {
	TotalPlays      int `json:"total_plays"`
	WeeklyPlays     int `json:"weekly_plays"`
	MostPlayedSongs []struct {
		Title     string `json:"song__title"`
		Artist    string `json:"song__artist"`
		PlayCount int    `json:"play_count"`
	} `json:"most_played_songs"`
	GenrePreferences []struct {
		Genre     string `json:"song__genre"`
		PlayCount int    `json:"play_count"`
	} `json:"genre_preferences"`
}

// Notification is a message addressed to the current user.
type Notification struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	NotificationType string    `json:"notification_type"`
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// UnreadCount is the unread notifications counter.
type UnreadCount struct {
	UnreadCount int `json:"unread_count"`
}

// DashboardStats aggregates catalog and activity counters.
type DashboardStats struct {
	TotalSongs     int              `json:"total_songs"`
	TotalPlaylists int              `json:"total_playlists"`
	TotalUsers     int              `json:"total_users"`
	PlaysToday     int              `json:"plays_today"`
	RecentPlays    []RecentPlay     `json:"recent_plays"`
	TopPlaylists   []TopPlaylist    `json:"top_playlists"`
	GenreStats     []GenreStat      `json:"genre_stats"`
	RecentActivity []ActivityRecord `json:"recent_activity"`
}

type RecentPlay struct {
	SongTitle  string `json:"song_title"`
	SongArtist string `json:"song_artist"`
	PlayedAt   string `json:"played_at"`
}

type TopPlaylist struct {
	Name      string `json:"name"`
	SongCount int    `json:"song_count"`
}

type GenreStat struct {
	Genre      string  `json:"genre"`
	Percentage float64 `json:"percentage"`
}

type ActivityRecord struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// PendingPlay is a play recorded locally while the backend was unreachable.
type PendingPlay struct {
	ID       int64
	SongID   int64
	PlayedAt time.Time
}
