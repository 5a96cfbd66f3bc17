package cache

import (
	"context"
	"testing"
)

func TestHashIP_Deterministic(t *testing.T) {
	t.Parallel()

	if hashIP("192.168.1.100") != hashIP("192.168.1.100") {
		t.Error("Same IP should produce same hash")
	}
}

func TestHashIP_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ip   string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv6 localhost", "::1"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hash := hashIP(tt.ip); len(hash) != 16 {
				t.Errorf("hashIP(%q) length = %d, want 16", tt.ip, len(hash))
			}
		})
	}
}

func TestHashIP_Different(t *testing.T) {
	t.Parallel()

	if hashIP("10.0.0.1") == hashIP("10.0.0.2") {
		t.Error("Different IPs should produce different hashes")
	}
}

func TestPlaylistSongsKey(t *testing.T) {
	t.Parallel()

	if got := playlistSongsKey("playlist-abc"); got != "playlist-songs:playlist-abc" {
		t.Errorf("playlistSongsKey() = %q", got)
	}
}

func TestCheckRateLimit_ZeroRateIsUnlimited(t *testing.T) {
	t.Parallel()

	// A nil client is never touched when the limit is disabled.
	c := &Cache{}

	res, err := c.CheckUserRateLimit(context.Background(), "user-1", 0, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed || res.Remaining != 5 {
		t.Errorf("expected unlimited result, got %+v", res)
	}

	res, err = c.CheckIPRateLimit(context.Background(), "127.0.0.1", 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Allowed {
		t.Errorf("expected unlimited result, got %+v", res)
	}
}
