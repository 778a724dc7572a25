package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/cadence/internal/models"
)

// PendingPlayRepository queues play logs that could not be sent.
type PendingPlayRepository struct {
	db *sql.DB
}

// NewPendingPlayRepository creates a new PendingPlayRepository with the given database connection
func NewPendingPlayRepository(db *sql.DB) *PendingPlayRepository {
	return &PendingPlayRepository{db: db}
}

// Enqueue records a play of songID.
func (r *PendingPlayRepository) Enqueue(songID int64, playedAt time.Time) error {
	if playedAt.IsZero() {
		playedAt = time.Now()
	}

	_, err := r.db.Exec(`INSERT INTO pending_plays (song_id, played_at) VALUES (?, ?)`, songID, playedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to queue play of song %d: %w", songID, err)
	}
	return nil
}

// List returns queued plays, oldest first.
func (r *PendingPlayRepository) List() ([]models.PendingPlay, error) {
	rows, err := r.db.Query(`SELECT id, song_id, played_at FROM pending_plays ORDER BY played_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending plays: %w", err)
	}
	defer rows.Close()

	var plays []models.PendingPlay
	for rows.Next() {
		var p models.PendingPlay
		if err := rows.Scan(&p.ID, &p.SongID, &p.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pending play: %w", err)
		}
		plays = append(plays, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return plays, nil
}

// Remove deletes a queued play once it has been sent.
func (r *PendingPlayRepository) Remove(id int64) error {
	if _, err := r.db.Exec(`DELETE FROM pending_plays WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove pending play %d: %w", id, err)
	}
	return nil
}
