package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openmusic/openmusic/internal/apperror"
	"github.com/openmusic/openmusic/internal/auth"
	"github.com/openmusic/openmusic/internal/handler/dto"
	"github.com/openmusic/openmusic/internal/middleware"
	"github.com/openmusic/openmusic/internal/model"
	"github.com/openmusic/openmusic/internal/service"
)

// Success messages.
const (
	MsgPlaylistCreated     = "Playlist berhasil ditambahkan"
	MsgPlaylistDeleted     = "Playlist berhasil dihapus"
	MsgPlaylistSongAdded   = "Lagu berhasil ditambahkan ke playlist"
	MsgPlaylistSongRemoved = "Lagu berhasil dihapus dari playlist"
)

// PlaylistService is the business logic the playlist handler drives.
// *service.PlaylistService implements it.
type PlaylistService interface {
	AddPlaylist(ctx context.Context, in service.NewPlaylist) (string, error)
	GetPlaylists(ctx context.Context, userID string) ([]model.PlaylistSummary, error)
	VerifyPlaylistOwner(ctx context.Context, playlistID, userID string) error
	DeletePlaylistByID(ctx context.Context, playlistID string) error
	VerifyPlaylistAccess(ctx context.Context, playlistID, userID string) error
	AddSongToPlaylist(ctx context.Context, playlistID, songID string) error
	GetSongsFromPlaylist(ctx context.Context, playlistID string) (*model.PlaylistSongs, error)
	DeleteSongFromPlaylist(ctx context.Context, playlistID, songID string) error
	GetUsersByUsername(ctx context.Context, prefix string) ([]model.UserSummary, error)
	GetPlaylistActivities(ctx context.Context, playlistID string) (*model.PlaylistActivities, error)
}

// PayloadValidator checks request bodies. *validator.Validator implements it.
type PayloadValidator interface {
	ValidatePlaylistPayload(body []byte) error
	ValidatePlaylistSongPayload(body []byte) error
}

// PlaylistHandler handles playlist and user search endpoints.
type PlaylistHandler struct {
	service   PlaylistService
	validator PayloadValidator
	logger    *slog.Logger
}

// NewPlaylistHandler creates a new PlaylistHandler.
func NewPlaylistHandler(svc PlaylistService, v PayloadValidator, logger *slog.Logger) *PlaylistHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// PostPlaylist creates a playlist owned by the caller.
// POST /playlists
func (h *PlaylistHandler) PostPlaylist(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaylistRequest
	if err := h.decodeBody(r, h.validator.ValidatePlaylistPayload, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	owner, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	playlistID, err := h.service.AddPlaylist(r.Context(), service.NewPlaylist{
		Name:  req.Name,
		Owner: owner,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("playlist_created",
		slog.String("playlist_id", playlistID),
		slog.String("owner", owner),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeSuccess(w, http.StatusCreated, MsgPlaylistCreated, dto.PlaylistCreatedData{PlaylistID: playlistID})
}

// GetPlaylists lists playlists the caller owns or collaborates on.
// GET /playlists
func (h *PlaylistHandler) GetPlaylists(w http.ResponseWriter, r *http.Request) {
	owner, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	playlists, err := h.service.GetPlaylists(r.Context(), owner)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if playlists == nil {
		playlists = []model.PlaylistSummary{}
	}

	writeSuccess(w, http.StatusOK, "", dto.PlaylistsData{Playlists: playlists})
}

// DeletePlaylist removes a playlist. Only the owner may do this.
// DELETE /playlists/{playlistId}
func (h *PlaylistHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistId")

	owner, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.VerifyPlaylistOwner(r.Context(), playlistID, owner); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeletePlaylistByID(r.Context(), playlistID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("playlist_deleted",
		slog.String("playlist_id", playlistID),
		slog.String("user_id", owner),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeSuccess(w, http.StatusOK, MsgPlaylistDeleted, nil)
}

// PostPlaylistSong adds a song to a playlist the caller can access.
// POST /playlists/{playlistId}/songs
func (h *PlaylistHandler) PostPlaylistSong(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistId")

	var req dto.PlaylistSongRequest
	if err := h.decodeBody(r, h.validator.ValidatePlaylistSongPayload, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	userID, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.VerifyPlaylistAccess(r.Context(), playlistID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.AddSongToPlaylist(r.Context(), playlistID, req.SongID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("playlist_song_added",
		slog.String("playlist_id", playlistID),
		slog.String("song_id", req.SongID),
		slog.String("user_id", userID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeSuccess(w, http.StatusCreated, MsgPlaylistSongAdded, nil)
}

// GetPlaylistSongs returns the songs of a playlist the caller can access.
// GET /playlists/{playlistId}/songs
func (h *PlaylistHandler) GetPlaylistSongs(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistId")

	userID, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.VerifyPlaylistAccess(r.Context(), playlistID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	playlist, err := h.service.GetSongsFromPlaylist(r.Context(), playlistID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	songs := playlist.Songs
	if songs == nil {
		songs = []model.SongSummary{}
	}

	writeSuccess(w, http.StatusOK, "", dto.PlaylistSongsData{Songs: songs})
}

// GetPlaylistActivities returns the song activity trail of a playlist.
// GET /playlists/{playlistId}/activities
func (h *PlaylistHandler) GetPlaylistActivities(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistId")

	userID, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.VerifyPlaylistAccess(r.Context(), playlistID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	activities, err := h.service.GetPlaylistActivities(r.Context(), playlistID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", activities)
}

// DeletePlaylistSong removes a song from a playlist the caller can access.
// DELETE /playlists/{playlistId}/songs
func (h *PlaylistHandler) DeletePlaylistSong(w http.ResponseWriter, r *http.Request) {
	playlistID := chi.URLParam(r, "playlistId")

	var req dto.PlaylistSongRequest
	if err := h.decodeBody(r, h.validator.ValidatePlaylistSongPayload, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	userID, err := requireUserID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.VerifyPlaylistAccess(r.Context(), playlistID, userID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteSongFromPlaylist(r.Context(), playlistID, req.SongID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.logger.Info("playlist_song_removed",
		slog.String("playlist_id", playlistID),
		slog.String("song_id", req.SongID),
		slog.String("user_id", userID),
		slog.String("request_id", middleware.GetRequestID(r.Context())),
	)

	writeSuccess(w, http.StatusOK, MsgPlaylistSongRemoved, nil)
}

// GetUsersByUsername searches users by username prefix. No authentication.
// An absent username parameter is treated as empty.
// GET /users?username=
func (h *PlaylistHandler) GetUsersByUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	users, err := h.service.GetUsersByUsername(r.Context(), username)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if users == nil {
		users = []model.UserSummary{}
	}

	writeSuccess(w, http.StatusOK, "", dto.UsersData{Users: users})
}

// decodeBody reads the request body, runs validate on it and decodes it into dst.
func (h *PlaylistHandler) decodeBody(r *http.Request, validate func([]byte) error, dst any) error {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return fmt.Errorf("read request body: %w", err)
		}
		body = b
	}

	if err := validate(body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return apperror.NewValidation("payload must be a valid JSON object")
	}
	return nil
}

// requireUserID returns the authenticated caller.
func requireUserID(r *http.Request) (string, error) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		return "", apperror.NewAuthentication("Missing authentication")
	}
	return userID, nil
}
