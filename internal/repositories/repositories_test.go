package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func song(id int64, title, artist, genre string) *models.Song {
	d := int(id) * 60
	return &models.Song{
		ID:        id,
		Title:     title,
		Artist:    artist,
		Genre:     genre,
		Duration:  &d,
		FileURL:   "http://localhost:8000/media/songs/" + title + ".mp3",
		CreatedAt: time.Date(2026, 1, int(id), 12, 0, 0, 0, time.UTC),
	}
}

func TestSongRepository(t *testing.T) {
	t.Run("Upsert and Get", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))

		if err := repo.Upsert(song(1, "Blue", "Miles", "jazz")); err != nil {
			t.Fatalf("failed to upsert song: %v", err)
		}

		got, err := repo.Get(1)
		if err != nil {
			t.Fatalf("failed to get song: %v", err)
		}
		if got.Title != "Blue" || got.Artist != "Miles" || got.Duration == nil || *got.Duration != 60 {
			t.Errorf("unexpected song: %+v", got)
		}
		if !got.CreatedAt.Equal(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected created_at: %v", got.CreatedAt)
		}
	})

	t.Run("Upsert replaces", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))

		repo.Upsert(song(1, "Blue", "Miles", "jazz"))
		updated := song(1, "Kind of Blue", "Miles Davis", "jazz")
		updated.Duration = nil
		if err := repo.Upsert(updated); err != nil {
			t.Fatalf("failed to upsert song: %v", err)
		}

		got, _ := repo.Get(1)
		if got.Title != "Kind of Blue" || got.Duration != nil {
			t.Errorf("expected replaced song, got %+v", got)
		}
	})

	t.Run("Delete is soft and Upsert revives", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		repo.Upsert(song(2, "Gone", "Band", "rock"))

		if err := repo.Delete(2); err != nil {
			t.Fatalf("failed to delete song: %v", err)
		}
		if _, err := repo.Get(2); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound after delete, got %v", err)
		}

		repo.Upsert(song(2, "Gone", "Band", "rock"))
		if _, err := repo.Get(2); err != nil {
			t.Errorf("expected revived song, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewSongRepository(setupTestDB(t))
		for _, s := range []*models.Song{
			song(1, "Blue", "Miles", "jazz"),
			song(2, "Alright", "Kendrick", "hip_hop"),
			song(3, "Freddie", "Miles", "jazz"),
			song(4, "Bluebird", "Band", "rock"),
		} {
			if err := repo.Upsert(s); err != nil {
				t.Fatalf("failed to upsert: %v", err)
			}
		}
		repo.Delete(3)

		tc := []struct {
			name     string
			criteria map[string]any
			want     []int64
		}{
			{"all ordered by title", nil, []int64{2, 1, 4}},
			{"artist", map[string]any{"artist": "miles"}, []int64{1}},
			{"genre", map[string]any{"genre": "JAZZ"}, []int64{1}},
			{"search", map[string]any{"search": "blue"}, []int64{1, 4}},
			{"no match", map[string]any{"genre": "folk"}, nil},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				songs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list: %v", err)
				}
				if len(songs) != len(tt.want) {
					t.Fatalf("expected %d songs, got %d", len(tt.want), len(songs))
				}
				for i, id := range tt.want {
					if songs[i].ID != id {
						t.Errorf("position %d: expected id %d, got %d", i, id, songs[i].ID)
					}
				}
			})
		}
	})
}

func TestPlaylistRepository(t *testing.T) {
	detail := func() *models.Playlist {
		return &models.Playlist{
			ID:          10,
			Name:        "Late Night",
			Description: "quiet things",
			IsPublic:    true,
			SongCount:   2,
			Songs: []models.PlaylistSong{
				{Song: *song(2, "Second", "B", "jazz"), Order: 1},
				{Song: *song(1, "First", "A", "jazz"), Order: 0},
			},
		}
	}

	t.Run("Upsert detail caches songs in order", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)

		if err := repo.Upsert(detail()); err != nil {
			t.Fatalf("failed to upsert playlist: %v", err)
		}

		got, err := repo.Get(10)
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if got.Name != "Late Night" || !got.IsPublic || got.SongCount != 2 {
			t.Errorf("unexpected playlist: %+v", got)
		}
		if len(got.Songs) != 2 || got.Songs[0].Song.ID != 1 || got.Songs[1].Song.ID != 2 {
			t.Errorf("expected songs ordered by position, got %+v", got.Songs)
		}

		if _, err := NewSongRepository(db).Get(2); err != nil {
			t.Errorf("songs should be cached with the playlist: %v", err)
		}
	})

	t.Run("Upsert replaces membership", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		repo.Upsert(detail())

		p := detail()
		p.Songs = p.Songs[:1]
		if err := repo.Upsert(p); err != nil {
			t.Fatalf("failed to upsert playlist: %v", err)
		}

		got, _ := repo.Get(10)
		if len(got.Songs) != 1 || got.SongCount != 1 {
			t.Errorf("expected one song after replace, got %+v", got)
		}
	})

	t.Run("Upsert from list keeps membership", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		repo.Upsert(detail())

		summary := detail()
		summary.Songs = nil
		summary.Name = "Renamed"
		if err := repo.Upsert(summary); err != nil {
			t.Fatalf("failed to upsert playlist: %v", err)
		}

		got, _ := repo.Get(10)
		if got.Name != "Renamed" || len(got.Songs) != 2 {
			t.Errorf("expected rename with membership kept, got %+v", got)
		}
	})

	t.Run("Get hides deleted songs", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPlaylistRepository(db)
		repo.Upsert(detail())
		NewSongRepository(db).Delete(1)

		got, _ := repo.Get(10)
		if len(got.Songs) != 1 || got.Songs[0].Song.ID != 2 {
			t.Errorf("expected only song 2, got %+v", got.Songs)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		repo.Upsert(detail())

		if err := repo.Delete(10); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if _, err := repo.Get(10); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewPlaylistRepository(setupTestDB(t))
		repo.Upsert(detail())
		repo.Upsert(&models.Playlist{ID: 11, Name: "Gym", Description: "loud"})

		all, err := repo.List(nil)
		if err != nil || len(all) != 2 || all[0].Name != "Gym" {
			t.Fatalf("unexpected list %+v, %v", all, err)
		}
		if all[1].Songs != nil {
			t.Error("list should not load songs")
		}

		private, _ := repo.List(map[string]any{"is_public": false})
		if len(private) != 1 || private[0].ID != 11 {
			t.Errorf("expected only the private playlist, got %+v", private)
		}

		found, _ := repo.List(map[string]any{"search": "quiet"})
		if len(found) != 1 || found[0].ID != 10 {
			t.Errorf("expected search by description, got %+v", found)
		}
	})
}

func TestPendingPlayRepository(t *testing.T) {
	repo := NewPendingPlayRepository(setupTestDB(t))

	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	repo.Enqueue(7, base.Add(time.Minute))
	repo.Enqueue(5, base)

	plays, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(plays) != 2 || plays[0].SongID != 5 || plays[1].SongID != 7 {
		t.Fatalf("expected oldest first, got %+v", plays)
	}

	if err := repo.Remove(plays[0].ID); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	plays, _ = repo.List()
	if len(plays) != 1 || plays[0].SongID != 7 {
		t.Errorf("expected one remaining play, got %+v", plays)
	}
}

func TestCacheAdapter(t *testing.T) {
	db := setupTestDB(t)
	cache := NewCacheAdapter(NewSongRepository(db), NewPlaylistRepository(db))

	n, err := cache.CacheSongs([]models.Song{*song(1, "A", "x", "rock"), *song(2, "B", "y", "pop")})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 cached, got %d, %v", n, err)
	}

	songs, err := cache.CachedSongs(map[string]any{"genre": "pop"})
	if err != nil || len(songs) != 1 || songs[0].ID != 2 {
		t.Errorf("unexpected cached songs %+v, %v", songs, err)
	}

	if err := cache.CachePlaylist(models.Playlist{ID: 3, Name: "P", Songs: []models.PlaylistSong{{Song: songs[0]}}}); err != nil {
		t.Fatalf("failed to cache playlist: %v", err)
	}
	p, err := cache.CachedPlaylist(3)
	if err != nil || len(p.Songs) != 1 {
		t.Errorf("unexpected cached playlist %+v, %v", p, err)
	}

	lists, _ := cache.CachedPlaylists(nil)
	if len(lists) != 1 {
		t.Errorf("expected one playlist, got %d", len(lists))
	}
}
