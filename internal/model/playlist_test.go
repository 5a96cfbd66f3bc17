package model

import "testing"

func TestPlaylist_IsOwnedBy(t *testing.T) {
	p := &Playlist{ID: "playlist-1", Name: "Favorites", Owner: "user-1"}

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"owner", "user-1", true},
		{"other user", "user-2", false},
		{"empty id", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsOwnedBy(tt.userID); got != tt.want {
				t.Errorf("IsOwnedBy(%q) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}
}

func TestPlaylist_IsOwnedBy_EmptyOwner(t *testing.T) {
	p := &Playlist{ID: "playlist-1"}
	if p.IsOwnedBy("") {
		t.Error("playlist without owner must not match empty user id")
	}
}
