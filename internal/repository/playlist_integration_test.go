//go:build integration

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openmusic/openmusic/internal/model"
	"github.com/openmusic/openmusic/internal/repository"
	"github.com/openmusic/openmusic/internal/testutil"
)

// ============================================================================
// Playlist Repository Integration Tests
// ============================================================================

func newPlaylistTestEnv(t *testing.T) (context.Context, *repository.Repository, *pgxpool.Pool) {
	t.Helper()

	dbURL := testutil.RequireEnv(t, "DATABASE_URL")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := testutil.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repository.NewWithPool(pool), pool
}

func TestIntegrationPlaylistRepository_CreateAndGet(t *testing.T) {
	ctx, repo, pool := newPlaylistTestEnv(t)

	owner := testutil.InsertUser(ctx, t, pool, testutil.UniqueName("owner"))
	p := testutil.NewTestPlaylist(t, "Favorites", owner.ID)

	if err := repo.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}

	got, err := repo.GetPlaylistByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlaylistByID failed: %v", err)
	}
	if got.Owner != owner.ID {
		t.Errorf("Owner mismatch: got %q, want %q", got.Owner, owner.ID)
	}
	if got.Name != "Favorites" {
		t.Errorf("Name mismatch: got %q", got.Name)
	}

	_, err = repo.GetPlaylistByID(ctx, "playlist-missing")
	if !errors.Is(err, repository.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestIntegrationPlaylistRepository_ListIncludesCollaborations(t *testing.T) {
	ctx, repo, pool := newPlaylistTestEnv(t)

	owner := testutil.InsertUser(ctx, t, pool, testutil.UniqueName("owner"))
	collab := testutil.InsertUser(ctx, t, pool, testutil.UniqueName("collab"))
	stranger := testutil.InsertUser(ctx, t, pool, testutil.UniqueName("stranger"))

	p := testutil.NewTestPlaylist(t, "Road Trip", owner.ID)
	if err := repo.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}
	testutil.InsertCollaboration(ctx, t, pool, p.ID, collab.ID)

	for _, tc := range []struct {
		userID string
		want   int
	}{
		{owner.ID, 1},
		{collab.ID, 1},
		{stranger.ID, 0},
	} {
		list, err := repo.ListPlaylistsForUser(ctx, tc.userID)
		if err != nil {
			t.Fatalf("ListPlaylistsForUser failed: %v", err)
		}
		if len(list) != tc.want {
			t.Errorf("user %s: got %d playlists, want %d", tc.userID, len(list), tc.want)
		}
		if len(list) == 1 && list[0].Username != owner.Username {
			t.Errorf("expected owner username %q, got %q", owner.Username, list[0].Username)
		}
	}

	ok, err := repo.IsCollaborator(ctx, p.ID, collab.ID)
	if err != nil || !ok {
		t.Errorf("IsCollaborator(collab) = %v, %v; want true", ok, err)
	}
	ok, err = repo.IsCollaborator(ctx, p.ID, stranger.ID)
	if err != nil || ok {
		t.Errorf("IsCollaborator(stranger) = %v, %v; want false", ok, err)
	}
}

func TestIntegrationPlaylistRepository_Songs(t *testing.T) {
	ctx, repo, pool := newPlaylistTestEnv(t)

	owner := testutil.InsertUser(ctx, t, pool, testutil.UniqueName("owner"))
	song := testutil.InsertSong(ctx, t, pool, "Fix You", "Coldplay")
	p := testutil.NewTestPlaylist(t, "Mellow", owner.ID)
	if err := repo.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}

	if err := repo.AddPlaylistSong(ctx, p.ID, song.ID); err != nil {
		t.Fatalf("AddPlaylistSong failed: %v", err)
	}
	if err := repo.AddPlaylistSong(ctx, p.ID, song.ID); !errors.Is(err, repository.ErrPlaylistSongExists) {
		t.Errorf("expected ErrPlaylistSongExists, got %v", err)
	}
	if err := repo.AddPlaylistSong(ctx, p.ID, "song-missing"); !errors.Is(err, repository.ErrSongNotFound) {
		t.Errorf("expected ErrSongNotFound, got %v", err)
	}

	detail, err := repo.GetPlaylistSongs(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlaylistSongs failed: %v", err)
	}
	if len(detail.Songs) != 1 || detail.Songs[0].ID != song.ID {
		t.Errorf("unexpected songs: %+v", detail.Songs)
	}
	if detail.Username != owner.Username {
		t.Errorf("expected username %q, got %q", owner.Username, detail.Username)
	}

	if err := repo.DeletePlaylistSong(ctx, p.ID, song.ID); err != nil {
		t.Fatalf("DeletePlaylistSong failed: %v", err)
	}
	if err := repo.DeletePlaylistSong(ctx, p.ID, song.ID); !errors.Is(err, repository.ErrPlaylistSongNotFound) {
		t.Errorf("expected ErrPlaylistSongNotFound, got %v", err)
	}

	if err := repo.DeletePlaylist(ctx, p.ID); err != nil {
		t.Fatalf("DeletePlaylist failed: %v", err)
	}
	if err := repo.DeletePlaylist(ctx, p.ID); !errors.Is(err, repository.ErrPlaylistNotFound) {
		t.Errorf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestIntegrationUserRepository_SearchByUsername(t *testing.T) {
	ctx, repo, pool := newPlaylistTestEnv(t)

	testutil.InsertUser(ctx, t, pool, "dicoding")
	testutil.InsertUser(ctx, t, pool, "Dicoder")
	testutil.InsertUser(ctx, t, pool, "john")

	users, err := repo.SearchUsersByUsername(ctx, "dic", 50)
	if err != nil {
		t.Fatalf("SearchUsersByUsername failed: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users for prefix 'dic', got %d", len(users))
	}

	all, err := repo.SearchUsersByUsername(ctx, "", 50)
	if err != nil {
		t.Fatalf("SearchUsersByUsername failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected empty prefix to match all 3 users, got %d", len(all))
	}

	none, err := repo.SearchUsersByUsername(ctx, "%", 50)
	if err != nil {
		t.Fatalf("SearchUsersByUsername failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected literal %% to match nothing, got %d", len(none))
	}
}

func TestIntegrationActivityRepository_InsertAndList(t *testing.T) {
	ctx, repo, pool := newPlaylistTestEnv(t)

	owner := testutil.InsertUser(ctx, t, pool, testutil.UniqueName("owner"))
	song := testutil.InsertSong(ctx, t, pool, "Yellow", "Coldplay")
	p := testutil.NewTestPlaylist(t, "Loud", owner.ID)
	if err := repo.CreatePlaylist(ctx, p); err != nil {
		t.Fatalf("CreatePlaylist failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Millisecond)
	activities := []*model.PlaylistSongActivity{
		{ID: "activity-1", EventID: "1-0", PlaylistID: p.ID, SongID: song.ID, UserID: owner.ID, Action: model.ActivityAdd, Time: base},
		{ID: "activity-2", EventID: "2-0", PlaylistID: p.ID, SongID: song.ID, UserID: owner.ID, Action: model.ActivityDelete, Time: base.Add(time.Second)},
		{ID: "activity-3", EventID: "3-0", PlaylistID: "playlist-gone", SongID: song.ID, UserID: owner.ID, Action: model.ActivityAdd, Time: base},
	}

	if err := repo.InsertPlaylistSongActivities(ctx, activities); err != nil {
		t.Fatalf("InsertPlaylistSongActivities failed: %v", err)
	}
	// Replaying the batch must not duplicate rows.
	if err := repo.InsertPlaylistSongActivities(ctx, activities); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	entries, err := repo.ListPlaylistSongActivities(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListPlaylistSongActivities failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(entries))
	}
	if entries[0].Action != model.ActivityAdd || entries[1].Action != model.ActivityDelete {
		t.Errorf("unexpected order: %+v", entries)
	}
	if entries[0].Username != owner.Username || entries[0].Title != "Yellow" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}
