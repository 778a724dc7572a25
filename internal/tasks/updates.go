package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase (0 when unknown)
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchSongs Phase = iota
	CacheSongs
	FetchPlaylists
	FetchPlaylistDetails
	FlushPlays
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchSongs:
		return "fetch_songs"
	case CacheSongs:
		return "cache_songs"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchPlaylistDetails:
		return "fetch_playlist_details"
	case FlushPlays:
		return "flush_plays"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func pageUpdate(phase Phase, what string, page, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    page,
		Message: fmt.Sprintf("Fetched page %d of %s (%d total)...", page, what, count),
	}
}

func cacheSongsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheSongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Caching %d songs...", total),
	}
}

func detailUpdate(step, total int, name string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   FetchPlaylistDetails,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
		}
	}
	return ProgressUpdate{
		Phase:   FetchPlaylistDetails,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, name),
	}
}

func flushUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FlushPlays,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Sending offline plays...", step, total),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
