package model

import "time"

// Playlist song activity actions.
const (
	ActivityAdd    = "add"
	ActivityDelete = "delete"
)

// ActivityIDPrefix is prepended to every stored activity identifier.
const ActivityIDPrefix = "activity-"

// PlaylistSongActivity records one song being added to or removed from a
// playlist. EventID is the stream message ID and makes inserts idempotent.
type PlaylistSongActivity struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	PlaylistID string    `json:"playlist_id"`
	SongID     string    `json:"song_id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Time       time.Time `json:"time"`
}

// ActivityEntry is one row of GET /playlists/{id}/activities.
type ActivityEntry struct {
	Username string    `json:"username"`
	Title    string    `json:"title"`
	Action   string    `json:"action"`
	Time     time.Time `json:"time"`
}

// PlaylistActivities is the activity trail of one playlist, oldest first.
type PlaylistActivities struct {
	PlaylistID string          `json:"playlistId"`
	Activities []ActivityEntry `json:"activities"`
}
