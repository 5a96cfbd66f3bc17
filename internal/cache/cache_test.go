package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/openmusic/openmusic/internal/model"
)

func newMiniCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return s, NewWithClient(client)
}

func testPlaylist() *model.PlaylistSongs {
	return &model.PlaylistSongs{
		ID:       "playlist-1",
		Name:     "Favorites",
		Username: "dicoding",
		Songs:    []model.SongSummary{{ID: "song-1", Title: "Viva la Vida", Performer: "Coldplay"}},
	}
}

func TestNew_PingsServer(t *testing.T) {
	s := miniredis.RunT(t)

	c, err := New(context.Background(), "redis://"+s.Addr(), DefaultPoolOptions())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNew_InvalidURL(t *testing.T) {
	if _, err := New(context.Background(), "://nope", DefaultPoolOptions()); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestCache_PlaylistSongs(t *testing.T) {
	s, c := newMiniCache(t)
	ctx := context.Background()

	if _, err := c.GetPlaylistSongs(ctx, "playlist-1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	version, err := c.PlaylistSongsVersion(ctx, "playlist-1")
	if err != nil || version != 0 {
		t.Fatalf("PlaylistSongsVersion = %d, %v, want 0", version, err)
	}

	stored, err := c.SetPlaylistSongsIfVersion(ctx, testPlaylist(), version, time.Minute)
	if err != nil || !stored {
		t.Fatalf("SetPlaylistSongsIfVersion = %v, %v, want stored", stored, err)
	}

	got, err := c.GetPlaylistSongs(ctx, "playlist-1")
	if err != nil {
		t.Fatalf("GetPlaylistSongs failed: %v", err)
	}
	if got.Username != "dicoding" || len(got.Songs) != 1 || got.Songs[0].Title != "Viva la Vida" {
		t.Errorf("unexpected cached value: %+v", got)
	}

	if ttl := s.TTL(playlistSongsKey("playlist-1")); ttl != time.Minute {
		t.Errorf("TTL = %v, want 1m", ttl)
	}

	s.FastForward(2 * time.Minute)
	if _, err := c.GetPlaylistSongs(ctx, "playlist-1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected entry to expire, got %v", err)
	}
}

func TestCache_DefaultTTL(t *testing.T) {
	s, c := newMiniCache(t)

	if _, err := c.SetPlaylistSongsIfVersion(context.Background(), testPlaylist(), 0, 0); err != nil {
		t.Fatalf("SetPlaylistSongsIfVersion failed: %v", err)
	}
	if ttl := s.TTL(playlistSongsKey("playlist-1")); ttl != DefaultPlaylistSongsTTL {
		t.Errorf("TTL = %v, want %v", ttl, DefaultPlaylistSongsTTL)
	}
}

func TestCache_EvictionRejectsStaleWrite(t *testing.T) {
	s, c := newMiniCache(t)
	ctx := context.Background()

	before, err := c.PlaylistSongsVersion(ctx, "playlist-1")
	if err != nil {
		t.Fatalf("PlaylistSongsVersion failed: %v", err)
	}

	// A writer evicts between the reader's version read and its cache write.
	if err := c.DeletePlaylistSongs(ctx, "playlist-1"); err != nil {
		t.Fatalf("DeletePlaylistSongs failed: %v", err)
	}

	stored, err := c.SetPlaylistSongsIfVersion(ctx, testPlaylist(), before, time.Minute)
	if err != nil {
		t.Fatalf("SetPlaylistSongsIfVersion failed: %v", err)
	}
	if stored {
		t.Error("write with a stale version must be rejected")
	}
	if s.Exists(playlistSongsKey("playlist-1")) {
		t.Error("stale list was cached")
	}

	after, err := c.PlaylistSongsVersion(ctx, "playlist-1")
	if err != nil || after != before+1 {
		t.Fatalf("version after eviction = %d, %v, want %d", after, err, before+1)
	}
	if ttl := s.TTL(playlistSongsVersionKey("playlist-1")); ttl != playlistSongsVersionTTL {
		t.Errorf("version TTL = %v, want %v", ttl, playlistSongsVersionTTL)
	}

	stored, err = c.SetPlaylistSongsIfVersion(ctx, testPlaylist(), after, time.Minute)
	if err != nil || !stored {
		t.Errorf("write with the current version = %v, %v, want stored", stored, err)
	}
}

func TestCache_DeleteRemovesEntry(t *testing.T) {
	_, c := newMiniCache(t)
	ctx := context.Background()

	if _, err := c.SetPlaylistSongsIfVersion(ctx, testPlaylist(), 0, time.Minute); err != nil {
		t.Fatalf("SetPlaylistSongsIfVersion failed: %v", err)
	}
	if err := c.DeletePlaylistSongs(ctx, "playlist-1"); err != nil {
		t.Fatalf("DeletePlaylistSongs failed: %v", err)
	}
	if _, err := c.GetPlaylistSongs(ctx, "playlist-1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestCache_CorruptEntry(t *testing.T) {
	s, c := newMiniCache(t)
	if err := s.Set(playlistSongsKey("playlist-1"), "{broken"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := c.GetPlaylistSongs(context.Background(), "playlist-1")
	if err == nil || errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected decode error, got %v", err)
	}
}

func TestCache_ServerErrors(t *testing.T) {
	s, c := newMiniCache(t)
	ctx := context.Background()
	s.SetError("ERR injected failure")

	if _, err := c.GetPlaylistSongs(ctx, "playlist-1"); err == nil || errors.Is(err, ErrCacheMiss) {
		t.Errorf("GetPlaylistSongs: expected server error, got %v", err)
	}
	if _, err := c.PlaylistSongsVersion(ctx, "playlist-1"); err == nil {
		t.Error("PlaylistSongsVersion: expected server error")
	}
	if err := c.DeletePlaylistSongs(ctx, "playlist-1"); err == nil {
		t.Error("DeletePlaylistSongs: expected server error")
	}
}

func TestCache_RateLimit(t *testing.T) {
	tests := []struct {
		name  string
		check func(c *Cache) (*RateLimitResult, error)
	}{
		{"user", func(c *Cache) (*RateLimitResult, error) {
			return c.CheckUserRateLimit(context.Background(), "user-1", 1, 2)
		}},
		{"ip", func(c *Cache) (*RateLimitResult, error) {
			return c.CheckIPRateLimit(context.Background(), "203.0.113.7", 1, 2)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newMiniCache(t)

			for i := 0; i < 2; i++ {
				res, err := tt.check(c)
				if err != nil {
					t.Fatalf("check failed: %v", err)
				}
				if !res.Allowed {
					t.Fatalf("request %d should be allowed", i)
				}
			}

			// A second boundary can refill at most one token meanwhile.
			var denied *RateLimitResult
			for i := 0; i < 2 && denied == nil; i++ {
				res, err := tt.check(c)
				if err != nil {
					t.Fatalf("check failed: %v", err)
				}
				if !res.Allowed {
					denied = res
				}
			}
			if denied == nil {
				t.Fatal("requests past the burst should be limited")
			}
			if denied.RetryAfter <= 0 {
				t.Errorf("RetryAfter = %v, want positive", denied.RetryAfter)
			}
		})
	}
}

func TestCache_RateLimitStoresHashedIP(t *testing.T) {
	s, c := newMiniCache(t)

	if _, err := c.CheckIPRateLimit(context.Background(), "203.0.113.7", 5, 5); err != nil {
		t.Fatalf("CheckIPRateLimit failed: %v", err)
	}
	for _, key := range s.Keys() {
		if key != rateLimitIPPrefix+hashIP("203.0.113.7") {
			t.Errorf("unexpected key %q", key)
		}
	}
	if len(s.Keys()) != 1 {
		t.Errorf("keys = %v, want one bucket", s.Keys())
	}
}

func TestCache_RateLimitDisabled(t *testing.T) {
	s, c := newMiniCache(t)

	res, err := c.CheckUserRateLimit(context.Background(), "user-1", 0, 3)
	if err != nil || !res.Allowed {
		t.Fatalf("unlimited check = %+v, %v", res, err)
	}
	if len(s.Keys()) != 0 {
		t.Errorf("disabled limit must not touch Redis, keys = %v", s.Keys())
	}
}
