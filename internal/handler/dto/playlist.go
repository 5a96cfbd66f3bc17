// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/openmusic/openmusic/internal/model"

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Response is the envelope every API response is wrapped in.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// PlaylistRequest is the body of POST /playlists.
type PlaylistRequest struct {
	Name string `json:"name"`
}

// PlaylistSongRequest is the body of POST and DELETE /playlists/{id}/songs.
type PlaylistSongRequest struct {
	SongID string `json:"songId"`
}

// PlaylistCreatedData is the data of a successful create.
type PlaylistCreatedData struct {
	PlaylistID string `json:"playlistId"`
}

// PlaylistsData is the data of GET /playlists.
type PlaylistsData struct {
	Playlists []model.PlaylistSummary `json:"playlists"`
}

// PlaylistSongsData is the data of GET /playlists/{id}/songs.
type PlaylistSongsData struct {
	Songs []model.SongSummary `json:"songs"`
}

// UsersData is the data of GET /users.
type UsersData struct {
	Users []model.UserSummary `json:"users"`
}
