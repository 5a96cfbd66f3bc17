// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Playlist lifecycle
	IncPlaylistCreated()
	IncPlaylistDeleted()

	// Playlist contents
	IncPlaylistSongAdded()
	IncPlaylistSongRemoved()

	// Authorization: check is "owner" or "access"
	IncAccessDenied(check string)

	// Song list cache
	IncPlaylistSongsCacheHit()
	IncPlaylistSongsCacheMiss()

	// Activity stream: publish status is "success" or "dropped",
	// process status is "success", "failed" or "dead_lettered".
	IncActivityPublished(status string)
	IncActivityProcessed(status string)
	SetActivityQueueDepth(depth int64)
	ObserveActivityBatchDuration(d time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
