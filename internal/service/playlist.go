// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/openmusic/openmusic/internal/activity"
	"github.com/openmusic/openmusic/internal/apperror"
	"github.com/openmusic/openmusic/internal/auth"
	"github.com/openmusic/openmusic/internal/cache"
	"github.com/openmusic/openmusic/internal/metrics"
	"github.com/openmusic/openmusic/internal/model"
	"github.com/openmusic/openmusic/internal/repository"
)

// Client-facing messages.
const (
	MsgPlaylistNotFound       = "Playlist tidak ditemukan"
	MsgPlaylistDeleteNotFound = "Playlist gagal dihapus. Id tidak ditemukan"
	MsgForbidden              = "Anda tidak berhak mengakses resource ini"
	MsgSongNotFound           = "Lagu tidak ditemukan"
	MsgSongAlreadyInPlaylist  = "Lagu sudah ada di dalam playlist"
	MsgSongNotInPlaylist      = "Lagu tidak ditemukan di dalam playlist"
)

// MaxUserSearchResults caps the username search.
const MaxUserSearchResults = 50

// PlaylistStore is the persistence the service depends on.
// *repository.Repository implements it.
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, p *model.Playlist) error
	GetPlaylistByID(ctx context.Context, id string) (*model.Playlist, error)
	ListPlaylistsForUser(ctx context.Context, userID string) ([]model.PlaylistSummary, error)
	DeletePlaylist(ctx context.Context, id string) error
	AddPlaylistSong(ctx context.Context, playlistID, songID string) error
	GetPlaylistSongs(ctx context.Context, playlistID string) (*model.PlaylistSongs, error)
	DeletePlaylistSong(ctx context.Context, playlistID, songID string) error
	IsCollaborator(ctx context.Context, playlistID, userID string) (bool, error)
	SearchUsersByUsername(ctx context.Context, prefix string, limit int) ([]model.UserSummary, error)
	ListPlaylistSongActivities(ctx context.Context, playlistID string) ([]model.ActivityEntry, error)
}

// ActivityPublisher records song additions and removals.
// *activity.Publisher implements it.
type ActivityPublisher interface {
	PublishAsync(event activity.Event)
}

// SongsCache caches the song list of a playlist. *cache.Cache implements it.
type SongsCache interface {
	GetPlaylistSongs(ctx context.Context, playlistID string) (*model.PlaylistSongs, error)
	PlaylistSongsVersion(ctx context.Context, playlistID string) (int64, error)
	SetPlaylistSongsIfVersion(ctx context.Context, playlist *model.PlaylistSongs, version int64, ttl time.Duration) (bool, error)
	DeletePlaylistSongs(ctx context.Context, playlistID string) error
}

// NewPlaylist is the input for AddPlaylist.
type NewPlaylist struct {
	Name  string
	Owner string
}

// PlaylistService handles playlist business logic.
type PlaylistService struct {
	store    PlaylistStore
	cache    SongsCache
	cacheTTL time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
	activity ActivityPublisher
	now      func() time.Time
	newID    func() string
}

// NewPlaylistService creates a new PlaylistService.
// cache may be nil, in which case song lists are always read from the store.
func NewPlaylistService(store PlaylistStore, songsCache SongsCache, cacheTTL time.Duration, recorder metrics.Recorder, logger *slog.Logger) *PlaylistService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = cache.DefaultPlaylistSongsTTL
	}
	return &PlaylistService{
		store:    store,
		cache:    songsCache,
		cacheTTL: cacheTTL,
		metrics:  recorder,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    generatePlaylistID,
	}
}

// SetActivityPublisher enables the activity trail. A nil publisher disables it.
func (s *PlaylistService) SetActivityPublisher(p ActivityPublisher) {
	s.activity = p
}

// AddPlaylist creates a playlist owned by in.Owner and returns its ID.
func (s *PlaylistService) AddPlaylist(ctx context.Context, in NewPlaylist) (string, error) {
	now := s.now()
	p := &model.Playlist{
		ID:        s.newID(),
		Name:      in.Name,
		Owner:     in.Owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePlaylist(ctx, p); err != nil {
		return "", apperror.Wrap(err, "failed to add playlist")
	}

	s.metrics.IncPlaylistCreated()

	return p.ID, nil
}

// GetPlaylists returns every playlist the user owns or collaborates on.
func (s *PlaylistService) GetPlaylists(ctx context.Context, userID string) ([]model.PlaylistSummary, error) {
	playlists, err := s.store.ListPlaylistsForUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to get playlists")
	}
	return playlists, nil
}

// VerifyPlaylistOwner succeeds only if userID owns the playlist.
// Collaborators are rejected.
func (s *PlaylistService) VerifyPlaylistOwner(ctx context.Context, playlistID, userID string) error {
	playlist, err := s.getPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}

	if !playlist.IsOwnedBy(userID) {
		s.metrics.IncAccessDenied("owner")
		return apperror.NewForbidden(MsgForbidden)
	}

	return nil
}

// VerifyPlaylistAccess succeeds if userID owns the playlist or has been
// granted collaboration on it.
func (s *PlaylistService) VerifyPlaylistAccess(ctx context.Context, playlistID, userID string) error {
	playlist, err := s.getPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}

	if playlist.IsOwnedBy(userID) {
		return nil
	}

	ok, err := s.store.IsCollaborator(ctx, playlistID, userID)
	if err != nil {
		return apperror.Wrap(err, "failed to verify collaborator")
	}
	if !ok {
		s.metrics.IncAccessDenied("access")
		return apperror.NewForbidden(MsgForbidden)
	}

	return nil
}

// DeletePlaylistByID removes a playlist. Callers must verify ownership first.
func (s *PlaylistService) DeletePlaylistByID(ctx context.Context, playlistID string) error {
	if err := s.store.DeletePlaylist(ctx, playlistID); err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return apperror.NewNotFound(MsgPlaylistDeleteNotFound)
		}
		return apperror.Wrap(err, "failed to delete playlist")
	}

	s.metrics.IncPlaylistDeleted()
	s.evictSongs(ctx, playlistID)

	return nil
}

// AddSongToPlaylist associates an existing song with the playlist.
func (s *PlaylistService) AddSongToPlaylist(ctx context.Context, playlistID, songID string) error {
	if err := s.store.AddPlaylistSong(ctx, playlistID, songID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSongNotFound):
			return apperror.NewNotFound(MsgSongNotFound)
		case errors.Is(err, repository.ErrPlaylistNotFound):
			return apperror.NewNotFound(MsgPlaylistNotFound)
		case errors.Is(err, repository.ErrPlaylistSongExists):
			return apperror.NewValidation(MsgSongAlreadyInPlaylist)
		}
		return apperror.Wrap(err, "failed to add song to playlist")
	}

	s.metrics.IncPlaylistSongAdded()
	s.evictSongs(ctx, playlistID)
	s.recordActivity(ctx, playlistID, songID, model.ActivityAdd)

	return nil
}

// GetSongsFromPlaylist returns the playlist with its songs, read through the cache.
func (s *PlaylistService) GetSongsFromPlaylist(ctx context.Context, playlistID string) (*model.PlaylistSongs, error) {
	if s.cache != nil {
		cached, err := s.cache.GetPlaylistSongs(ctx, playlistID)
		if err == nil {
			s.metrics.IncPlaylistSongsCacheHit()
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("playlist songs cache read failed",
				slog.String("playlist_id", playlistID),
				slog.String("error", err.Error()),
			)
		}
		s.metrics.IncPlaylistSongsCacheMiss()
	}

	// The version is read before the database so an eviction racing this
	// read makes the cache write below a no-op.
	version, cacheable := s.songsVersion(ctx, playlistID)

	playlist, err := s.store.GetPlaylistSongs(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return nil, apperror.NewNotFound(MsgPlaylistNotFound)
		}
		return nil, apperror.Wrap(err, "failed to get playlist songs")
	}

	if cacheable {
		stored, err := s.cache.SetPlaylistSongsIfVersion(ctx, playlist, version, s.cacheTTL)
		switch {
		case err != nil:
			s.logger.Warn("playlist songs cache write failed",
				slog.String("playlist_id", playlistID),
				slog.String("error", err.Error()),
			)
		case !stored:
			s.logger.Debug("playlist songs changed during read, not cached",
				slog.String("playlist_id", playlistID),
			)
		}
	}

	return playlist, nil
}

func (s *PlaylistService) songsVersion(ctx context.Context, playlistID string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := s.cache.PlaylistSongsVersion(ctx, playlistID)
	if err != nil {
		s.logger.Warn("playlist songs cache version read failed",
			slog.String("playlist_id", playlistID),
			slog.String("error", err.Error()),
		)
		return 0, false
	}
	return version, true
}

// DeleteSongFromPlaylist removes the song association.
func (s *PlaylistService) DeleteSongFromPlaylist(ctx context.Context, playlistID, songID string) error {
	if err := s.store.DeletePlaylistSong(ctx, playlistID, songID); err != nil {
		if errors.Is(err, repository.ErrPlaylistSongNotFound) {
			return apperror.NewNotFound(MsgSongNotInPlaylist)
		}
		return apperror.Wrap(err, "failed to delete song from playlist")
	}

	s.metrics.IncPlaylistSongRemoved()
	s.evictSongs(ctx, playlistID)
	s.recordActivity(ctx, playlistID, songID, model.ActivityDelete)

	return nil
}

// GetUsersByUsername returns users whose username starts with prefix.
// An empty prefix lists users up to MaxUserSearchResults.
func (s *PlaylistService) GetUsersByUsername(ctx context.Context, prefix string) ([]model.UserSummary, error) {
	users, err := s.store.SearchUsersByUsername(ctx, strings.TrimSpace(prefix), MaxUserSearchResults)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to search users")
	}
	return users, nil
}

// GetPlaylistActivities returns the song activity trail of a playlist.
// Callers must verify access first.
func (s *PlaylistService) GetPlaylistActivities(ctx context.Context, playlistID string) (*model.PlaylistActivities, error) {
	entries, err := s.store.ListPlaylistSongActivities(ctx, playlistID)
	if err != nil {
		return nil, apperror.Wrap(err, "failed to get playlist activities")
	}
	if entries == nil {
		entries = []model.ActivityEntry{}
	}
	return &model.PlaylistActivities{PlaylistID: playlistID, Activities: entries}, nil
}

func (s *PlaylistService) getPlaylist(ctx context.Context, playlistID string) (*model.Playlist, error) {
	playlist, err := s.store.GetPlaylistByID(ctx, playlistID)
	if err != nil {
		if errors.Is(err, repository.ErrPlaylistNotFound) {
			return nil, apperror.NewNotFound(MsgPlaylistNotFound)
		}
		return nil, apperror.Wrap(err, "failed to get playlist")
	}
	return playlist, nil
}

// evictSongs drops the cached song list. Failures are logged, not returned.
func (s *PlaylistService) evictSongs(ctx context.Context, playlistID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePlaylistSongs(ctx, playlistID); err != nil {
		s.logger.Warn("playlist songs cache eviction failed",
			slog.String("playlist_id", playlistID),
			slog.String("error", err.Error()),
		)
	}
}

// recordActivity publishes an activity for the authenticated user, if any.
func (s *PlaylistService) recordActivity(ctx context.Context, playlistID, songID, action string) {
	if s.activity == nil {
		return
	}
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return
	}
	s.activity.PublishAsync(activity.Event{
		PlaylistID: playlistID,
		SongID:     songID,
		UserID:     userID,
		Action:     action,
		At:         s.now().UnixMilli(),
	})
}

// generatePlaylistID returns a new sortable playlist identifier.
func generatePlaylistID() string {
	return model.PlaylistIDPrefix + ulid.Make().String()
}
