package handler

import (
	"fmt"
	"net/http"

	"github.com/openmusic/openmusic/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "openmusic_playlists_created_total %d\n", snap.PlaylistsCreated)
	writeMetric(w, "openmusic_playlists_deleted_total %d\n", snap.PlaylistsDeleted)

	writeMetric(w, "openmusic_playlist_songs_added_total %d\n", snap.PlaylistSongsAdded)
	writeMetric(w, "openmusic_playlist_songs_removed_total %d\n", snap.PlaylistSongsRemoved)

	writeMetric(w, "openmusic_access_denied_total{check=\"owner\"} %d\n", snap.OwnerChecksDenied)
	writeMetric(w, "openmusic_access_denied_total{check=\"access\"} %d\n", snap.AccessChecksDenied)

	writeMetric(w, "openmusic_playlist_songs_cache_hits_total %d\n", snap.PlaylistSongsCacheHits)
	writeMetric(w, "openmusic_playlist_songs_cache_misses_total %d\n", snap.PlaylistSongsCacheMisses)

	writeMetric(w, "openmusic_activities_published_total{status=\"success\"} %d\n", snap.ActivitiesPublished)
	writeMetric(w, "openmusic_activities_published_total{status=\"dropped\"} %d\n", snap.ActivitiesDropped)
	writeMetric(w, "openmusic_activities_processed_total{status=\"success\"} %d\n", snap.ActivitiesProcessed)
	writeMetric(w, "openmusic_activities_processed_total{status=\"failed\"} %d\n", snap.ActivitiesFailed)
	writeMetric(w, "openmusic_activities_processed_total{status=\"dead_lettered\"} %d\n", snap.ActivitiesDeadLettered)
	writeMetric(w, "openmusic_activity_queue_depth %d\n", snap.ActivityQueueDepth)
	writeMetric(w, "openmusic_activity_batch_duration_seconds_count %d\n", snap.ActivityBatchCount)
	writeMetric(w, "openmusic_activity_batch_duration_seconds_sum %f\n", float64(snap.ActivityBatchDurationNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
