package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/openmusic/openmusic/internal/model"
	"github.com/openmusic/openmusic/internal/repository"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every table and re-applies the embedded migrations.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ups, downs, err := repository.MigrationSQL()
	if err != nil {
		return err
	}

	for _, script := range downs {
		if _, err := pool.Exec(ctx, script); err != nil {
			return fmt.Errorf("apply down migration: %w", err)
		}
	}
	for _, script := range ups {
		if _, err := pool.Exec(ctx, script); err != nil {
			return fmt.Errorf("apply up migration: %w", err)
		}
	}

	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// InsertUser creates a user row and returns it.
func InsertUser(ctx context.Context, t testing.TB, pool *pgxpool.Pool, username string) *model.User {
	t.Helper()
	user := &model.User{
		ID:        UniqueID("user"),
		Username:  username,
		Fullname:  "Test " + username,
		CreatedAt: time.Now().UTC(),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, username, password, fullname, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, "not-a-real-hash", user.Fullname, user.CreatedAt,
	)
	if err != nil {
		t.Fatalf("insert user %q: %v", username, err)
	}
	return user
}

// InsertSong creates a song row and returns its summary.
func InsertSong(ctx context.Context, t testing.TB, pool *pgxpool.Pool, title, performer string) model.SongSummary {
	t.Helper()
	song := model.SongSummary{
		ID:        UniqueID("song"),
		Title:     title,
		Performer: performer,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO songs (id, title, year, performer, genre) VALUES ($1, $2, $3, $4, $5)`,
		song.ID, song.Title, 2021, song.Performer, "Indie",
	)
	if err != nil {
		t.Fatalf("insert song %q: %v", title, err)
	}
	return song
}

// InsertCollaboration grants userID access to playlistID.
func InsertCollaboration(ctx context.Context, t testing.TB, pool *pgxpool.Pool, playlistID, userID string) {
	t.Helper()
	_, err := pool.Exec(ctx,
		`INSERT INTO collaborations (playlist_id, user_id) VALUES ($1, $2)`,
		playlistID, userID,
	)
	if err != nil {
		t.Fatalf("insert collaboration: %v", err)
	}
}

// NewTestPlaylist creates a playlist model with sensible defaults.
func NewTestPlaylist(t testing.TB, name, owner string) *model.Playlist {
	t.Helper()
	now := time.Now().UTC()
	return &model.Playlist{
		ID:        UniqueID(model.PlaylistIDPrefix + "test"),
		Name:      name,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UniqueID generates a unique ID for tests.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// UniqueName generates a unique username for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}
