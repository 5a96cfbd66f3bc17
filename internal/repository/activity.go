package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openmusic/openmusic/internal/model"
)

// InsertPlaylistSongActivities stores a batch of activities. Rows whose
// playlist, song or user no longer exists are skipped, and a repeated
// event ID is a no-op, so a batch can be replayed safely.
func (r *Repository) InsertPlaylistSongActivities(ctx context.Context, activities []*model.PlaylistSongActivity) error {
	if len(activities) == 0 {
		return nil
	}

	query := `
		INSERT INTO playlist_song_activities (id, event_id, playlist_id, song_id, user_id, action, time)
		SELECT $1::varchar, $2::varchar, $3::varchar, $4::varchar, $5::varchar, $6::varchar, $7::timestamptz
		WHERE EXISTS (SELECT 1 FROM playlists WHERE id = $3::varchar)
		  AND EXISTS (SELECT 1 FROM songs WHERE id = $4::varchar)
		  AND EXISTS (SELECT 1 FROM users WHERE id = $5::varchar)
		ON CONFLICT (event_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, a := range activities {
		batch.Queue(query, a.ID, a.EventID, a.PlaylistID, a.SongID, a.UserID, a.Action, a.Time)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range activities {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert activity %d: %w", i, err)
		}
	}

	return nil
}

// ListPlaylistSongActivities returns the activity trail of a playlist, oldest first.
func (r *Repository) ListPlaylistSongActivities(ctx context.Context, playlistID string) ([]model.ActivityEntry, error) {
	query := `
		SELECT u.username, s.title, a.action, a.time
		FROM playlist_song_activities a
		JOIN users u ON u.id = a.user_id
		JOIN songs s ON s.id = a.song_id
		WHERE a.playlist_id = $1
		ORDER BY a.time ASC, a.id ASC
	`

	rows, err := r.pool.Query(ctx, query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	entries := make([]model.ActivityEntry, 0)
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.Username, &e.Title, &e.Action, &e.Time); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}

	return entries, nil
}
