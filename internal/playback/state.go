// Package playback tracks what is playing and what comes next, independent of whatever renders the audio.
package playback

import "github.com/desertthunder/cadence/internal/models"

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No current track
	StatePlaying              // Current track set and playing
	StatePaused               // Current track set, not playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time copy of the player.
//
// CurrentIndex is only meaningful when Queue is non-empty. A track played directly with [Player.PlayTrack]
// may be current while the queue still holds an unrelated earlier queue.
type Snapshot struct {
	CurrentTrack    *models.Track
	IsPlaying       bool
	IsPlayerVisible bool
	Queue           []models.Track
	CurrentIndex    int
}

// State derives the playback state from the snapshot.
func (s Snapshot) State() State {
	switch {
	case s.CurrentTrack == nil:
		return StateIdle
	case s.IsPlaying:
		return StatePlaying
	default:
		return StatePaused
	}
}

// InQueue reports whether the current track is the queue entry under the cursor.
func (s Snapshot) InQueue() bool {
	if s.CurrentTrack == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return false
	}
	return s.Queue[s.CurrentIndex].ID == s.CurrentTrack.ID
}
