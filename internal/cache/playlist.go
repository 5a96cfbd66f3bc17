package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmusic/openmusic/internal/model"
)

const (
	playlistSongsKeyPrefix        = "playlist-songs:"
	playlistSongsVersionKeyPrefix = "playlist-songs-version:"

	// DefaultPlaylistSongsTTL is the TTL for a cached song list.
	DefaultPlaylistSongsTTL = 30 * time.Minute

	// The version must outlive any cached list it guards.
	playlistSongsVersionTTL = 24 * time.Hour
)

// ErrCacheMiss is returned when a key is not cached.
var ErrCacheMiss = errors.New("cache miss")

func playlistSongsKey(playlistID string) string {
	return playlistSongsKeyPrefix + playlistID
}

func playlistSongsVersionKey(playlistID string) string {
	return playlistSongsVersionKeyPrefix + playlistID
}

// setIfVersionScript writes the list only while the version key still holds
// the value read before the database query. A missing version counts as 0.
var setIfVersionScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2])
	if current == false then
		current = '0'
	end
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'EX', ARGV[3])
	return 1
`)

// GetPlaylistSongs returns a cached playlist with its songs.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetPlaylistSongs(ctx context.Context, playlistID string) (*model.PlaylistSongs, error) {
	raw, err := c.client.Get(ctx, playlistSongsKey(playlistID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var playlist model.PlaylistSongs
	if err := json.Unmarshal(raw, &playlist); err != nil {
		return nil, fmt.Errorf("failed to decode cached playlist: %w", err)
	}

	return &playlist, nil
}

// PlaylistSongsVersion returns the eviction counter of a playlist's song list.
// Read it before loading the list from the database and pass it to
// SetPlaylistSongsIfVersion.
func (c *Cache) PlaylistSongsVersion(ctx context.Context, playlistID string) (int64, error) {
	version, err := c.client.Get(ctx, playlistSongsVersionKey(playlistID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get failed: %w", err)
	}
	return version, nil
}

// SetPlaylistSongsIfVersion caches a playlist with its songs unless the list
// was evicted after version was read. It reports whether the list was stored.
func (c *Cache) SetPlaylistSongsIfVersion(ctx context.Context, playlist *model.PlaylistSongs, version int64, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultPlaylistSongsTTL
	}

	raw, err := json.Marshal(playlist)
	if err != nil {
		return false, fmt.Errorf("failed to encode playlist: %w", err)
	}

	keys := []string{playlistSongsKey(playlist.ID), playlistSongsVersionKey(playlist.ID)}
	stored, err := setIfVersionScript.Run(ctx, c.client, keys,
		strconv.FormatInt(version, 10), raw, int64(ttl/time.Second)).Int()
	if err != nil {
		return false, fmt.Errorf("failed to cache playlist songs: %w", err)
	}

	return stored == 1, nil
}

// DeletePlaylistSongs evicts a cached song list and bumps its version so a
// reader holding an older version cannot repopulate it.
func (c *Cache) DeletePlaylistSongs(ctx context.Context, playlistID string) error {
	versionKey := playlistSongsVersionKey(playlistID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, playlistSongsKey(playlistID))
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, playlistSongsVersionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete playlist songs from cache: %w", err)
	}
	return nil
}
