package playback

import (
	"slices"
	"sync"

	"github.com/desertthunder/cadence/internal/models"
)

// Player owns the playback state. All mutation goes through its methods.
//
// Queue navigation is bounded: there is no wraparound, shuffle or repeat.
type Player struct {
	mu              sync.RWMutex
	currentTrack    *models.Track
	isPlaying       bool
	isPlayerVisible bool
	queue           []models.Track
	currentIndex    int
}

// NewPlayer returns an idle player with an empty queue.
func NewPlayer() *Player {
	return &Player{}
}

// PlayTrack plays a single track outside any queue context. The queue and cursor are left alone.
func (p *Player) PlayTrack(t models.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.setCurrent(t)
	p.isPlaying = true
	p.isPlayerVisible = true
}

// PlayQueue replaces the queue and starts playing its first track.
// An empty input is a no-op and returns false.
func (p *Player) PlayQueue(tracks []models.Track) bool {
	if len(tracks) == 0 {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = slices.Clone(tracks)
	p.currentIndex = 0
	p.setCurrent(p.queue[0])
	p.isPlaying = true
	p.isPlayerVisible = true
	return true
}

// SetQueue replaces the queue and resets the cursor without changing what is playing.
func (p *Player) SetQueue(tracks []models.Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = slices.Clone(tracks)
	p.currentIndex = 0
}

// Pause stops playback while keeping the current track.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isPlaying = false
}

// Resume continues playback of the current track. It is a no-op returning false when there is none.
func (p *Player) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentTrack == nil {
		return false
	}
	p.isPlaying = true
	return true
}

// TogglePlayback pauses when playing and resumes otherwise. It returns the resulting state.
func (p *Player) TogglePlayback() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentTrack == nil {
		return StateIdle
	}
	p.isPlaying = !p.isPlaying
	if p.isPlaying {
		return StatePlaying
	}
	return StatePaused
}

// Stop clears the current track and hides the player. The queue is kept.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentTrack = nil
	p.isPlaying = false
	p.isPlayerVisible = false
}

// Next advances the cursor and makes that entry current.
// At the last index (or with an empty queue) it is a no-op returning false.
func (p *Player) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentIndex >= len(p.queue)-1 {
		return false
	}
	p.currentIndex++
	p.setCurrent(p.queue[p.currentIndex])
	return true
}

// Previous moves the cursor back and makes that entry current.
// At index 0 (or with an empty queue) it is a no-op returning false.
func (p *Player) Previous() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentIndex <= 0 || len(p.queue) == 0 {
		return false
	}
	p.currentIndex--
	p.setCurrent(p.queue[p.currentIndex])
	return true
}

// SetPlayerVisible shows or hides the player without affecting playback.
func (p *Player) SetPlayerVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.isPlayerVisible = visible
}

// Snapshot returns a copy of the current state that the caller may keep.
func (p *Player) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		IsPlaying:       p.isPlaying,
		IsPlayerVisible: p.isPlayerVisible,
		Queue:           slices.Clone(p.queue),
		CurrentIndex:    p.currentIndex,
	}
	if p.currentTrack != nil {
		t := *p.currentTrack
		s.CurrentTrack = &t
	}
	return s
}

// State returns the current playback state.
func (p *Player) State() State {
	return p.Snapshot().State()
}

// CurrentTrack returns a copy of the current track, or nil when idle.
func (p *Player) CurrentTrack() *models.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.currentTrack == nil {
		return nil
	}
	t := *p.currentTrack
	return &t
}

// QueuePosition returns the cursor and queue length; ok is false when the queue is empty.
func (p *Player) QueuePosition() (index, length int, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.queue) == 0 {
		return 0, 0, false
	}
	return p.currentIndex, len(p.queue), true
}

func (p *Player) setCurrent(t models.Track) {
	p.currentTrack = &t
}
