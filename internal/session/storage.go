package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/cadence/internal/models"
)

// Record is the durable form of a session: the user profile and, only when explicitly enabled,
// the refresh token. Access tokens are never part of it.
type Record struct {
	User         *models.Profile `json:"user"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	SavedAt      time.Time       `json:"saved_at"`
}

// Serialize produces the durable form of s. It returns nil when there is no user, meaning storage should be cleared.
func Serialize(s Session, persistRefresh bool) *Record {
	if s.User == nil {
		return nil
	}

	u := *s.User
	rec := &Record{User: &u, SavedAt: time.Now().UTC()}
	if persistRefresh {
		rec.RefreshToken = s.RefreshToken
	}
	return rec
}

// Deserialize turns a stored record back into a session. The result is never authenticated:
// it has no access token.
func Deserialize(rec *Record) Session {
	if rec == nil || rec.User == nil {
		return Session{}
	}
	u := *rec.User
	return Session{User: &u, RefreshToken: rec.RefreshToken}
}

// Storage persists a single [Record].
type Storage interface {
	Load() (*Record, error) // Load returns (nil, nil) when nothing is stored
	Save(rec *Record) error
	Clear() error
}

// FileStorage keeps the record as a JSON file readable only by the current user.
type FileStorage struct {
	path string
}

// NewFileStorage creates a FileStorage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the file path where the record is stored.
func (f *FileStorage) Path() string {
	return f.path
}

// Load reads the record from disk.
// Returns (nil, nil) if the file does not exist.
func (f *FileStorage) Load() (*Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing session file: %w", err)
	}
	return &rec, nil
}

// Save writes the record, creating the parent directory if needed.
func (f *FileStorage) Save(rec *Record) error {
	if rec == nil {
		return f.Clear()
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// Clear removes the session file.
// Returns nil if the file does not exist.
func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// MemoryStorage keeps the record in memory.
type MemoryStorage struct {
	mu    sync.Mutex
	rec   *Record
	saves int
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyRecord(m.rec), nil
}

func (m *MemoryStorage) Save(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = copyRecord(rec)
	m.saves++
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStorage) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func copyRecord(rec *Record) *Record {
	if rec == nil {
		return nil
	}
	c := *rec
	if rec.User != nil {
		u := *rec.User
		c.User = &u
	}
	return &c
}
