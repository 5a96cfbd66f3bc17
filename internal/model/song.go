package model

// SongSummary is the subset of song attributes listed inside a playlist.
type SongSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Performer string `json:"performer"`
}
