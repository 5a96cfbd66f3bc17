package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openmusic/openmusic/internal/model"
)

// Common errors for playlist repository operations.
var (
	ErrPlaylistNotFound     = errors.New("playlist not found")
	ErrSongNotFound         = errors.New("song not found")
	ErrPlaylistSongExists   = errors.New("song already in playlist")
	ErrPlaylistSongNotFound = errors.New("song not in playlist")
)

// Foreign key names from migrations/000003_playlists.up.sql.
const (
	fkPlaylistSongsPlaylist = "playlist_songs_playlist_id_fkey"
	fkPlaylistSongsSong     = "playlist_songs_song_id_fkey"
)

// CreatePlaylist inserts a new playlist.
func (r *Repository) CreatePlaylist(ctx context.Context, p *model.Playlist) error {
	query := `
		INSERT INTO playlists (id, name, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Owner, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	return nil
}

// GetPlaylistByID retrieves a playlist by its ID.
func (r *Repository) GetPlaylistByID(ctx context.Context, id string) (*model.Playlist, error) {
	query := `
		SELECT id, name, owner, created_at, updated_at
		FROM playlists
		WHERE id = $1
	`

	var p model.Playlist
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Owner,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	return &p, nil
}

// ListPlaylistsForUser returns playlists the user owns or collaborates on,
// with the owner's username.
func (r *Repository) ListPlaylistsForUser(ctx context.Context, userID string) ([]model.PlaylistSummary, error) {
	query := `
		SELECT p.id, p.name, u.username
		FROM playlists p
		JOIN users u ON u.id = p.owner
		LEFT JOIN collaborations c ON c.playlist_id = p.id AND c.user_id = $1
		WHERE p.owner = $1 OR c.user_id = $1
		ORDER BY p.created_at ASC, p.id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]model.PlaylistSummary, 0)
	for rows.Next() {
		var s model.PlaylistSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Username); err != nil {
			return nil, fmt.Errorf("failed to scan playlist: %w", err)
		}
		playlists = append(playlists, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlists: %w", err)
	}

	return playlists, nil
}

// DeletePlaylist removes a playlist. Songs and collaborations cascade.
func (r *Repository) DeletePlaylist(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlaylistNotFound
	}

	return nil
}

// AddPlaylistSong associates a song with a playlist.
func (r *Repository) AddPlaylistSong(ctx context.Context, playlistID, songID string) error {
	query := `
		INSERT INTO playlist_songs (playlist_id, song_id)
		VALUES ($1, $2)
	`

	_, err := r.pool.Exec(ctx, query, playlistID, songID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPlaylistSongExists
		}
		switch foreignKeyViolation(err) {
		case fkPlaylistSongsSong:
			return ErrSongNotFound
		case fkPlaylistSongsPlaylist:
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to add song to playlist: %w", err)
	}

	return nil
}

// GetPlaylistSongs returns the playlist header and its songs in insertion order.
func (r *Repository) GetPlaylistSongs(ctx context.Context, playlistID string) (*model.PlaylistSongs, error) {
	headerQuery := `
		SELECT p.id, p.name, u.username
		FROM playlists p
		JOIN users u ON u.id = p.owner
		WHERE p.id = $1
	`

	var result model.PlaylistSongs
	err := r.pool.QueryRow(ctx, headerQuery, playlistID).Scan(&result.ID, &result.Name, &result.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	songsQuery := `
		SELECT s.id, s.title, s.performer
		FROM playlist_songs ps
		JOIN songs s ON s.id = ps.song_id
		WHERE ps.playlist_id = $1
		ORDER BY ps.id ASC
	`

	rows, err := r.pool.Query(ctx, songsQuery, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist songs: %w", err)
	}
	defer rows.Close()

	result.Songs = make([]model.SongSummary, 0)
	for rows.Next() {
		var s model.SongSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Performer); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		result.Songs = append(result.Songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlist songs: %w", err)
	}

	return &result, nil
}

// DeletePlaylistSong removes a song from a playlist.
func (r *Repository) DeletePlaylistSong(ctx context.Context, playlistID, songID string) error {
	query := `
		DELETE FROM playlist_songs
		WHERE playlist_id = $1 AND song_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to delete song from playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlaylistSongNotFound
	}

	return nil
}

// IsCollaborator reports whether userID has been granted access to the playlist.
func (r *Repository) IsCollaborator(ctx context.Context, playlistID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM collaborations
			WHERE playlist_id = $1 AND user_id = $2
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, playlistID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check collaboration: %w", err)
	}

	return exists, nil
}
