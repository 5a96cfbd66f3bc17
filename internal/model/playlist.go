// Package model defines domain entities for the application.
package model

import "time"

// PlaylistIDPrefix is prepended to every generated playlist identifier.
const PlaylistIDPrefix = "playlist-"

// Playlist represents a user-owned playlist.
// Owner is set at creation and never changes.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOwnedBy reports whether userID is the playlist's owner.
func (p *Playlist) IsOwnedBy(userID string) bool {
	return userID != "" && p.Owner == userID
}

// PlaylistSummary is a playlist as returned by the list endpoint.
type PlaylistSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

// PlaylistSongs is a playlist together with its songs.
type PlaylistSongs struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Username string        `json:"username"`
	Songs    []SongSummary `json:"songs"`
}
