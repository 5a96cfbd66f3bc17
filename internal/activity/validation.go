package activity

import (
	"fmt"

	"github.com/openmusic/openmusic/internal/model"
)

const maxIDLength = 50

// ValidateEvent checks an event before it is published or stored.
func ValidateEvent(e Event) error {
	fields := []struct{ name, value string }{
		{"playlist_id", e.PlaylistID},
		{"song_id", e.SongID},
		{"user_id", e.UserID},
	}
	for _, f := range fields {
		if f.value == "" {
			return fmt.Errorf("%s is required", f.name)
		}
		if len(f.value) > maxIDLength {
			return fmt.Errorf("%s too long", f.name)
		}
	}
	if e.Action != model.ActivityAdd && e.Action != model.ActivityDelete {
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.At <= 0 {
		return fmt.Errorf("time must be set")
	}
	return nil
}
