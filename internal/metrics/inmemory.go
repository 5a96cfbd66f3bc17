package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	PlaylistsCreated         uint64
	PlaylistsDeleted         uint64
	PlaylistSongsAdded       uint64
	PlaylistSongsRemoved     uint64
	OwnerChecksDenied        uint64
	AccessChecksDenied       uint64
	PlaylistSongsCacheHits   uint64
	PlaylistSongsCacheMisses uint64

	ActivitiesPublished     uint64
	ActivitiesDropped       uint64
	ActivitiesProcessed     uint64
	ActivitiesFailed        uint64
	ActivitiesDeadLettered  uint64
	ActivityQueueDepth      int64
	ActivityBatchCount      uint64
	ActivityBatchDurationNs uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	playlistsCreated         atomic.Uint64
	playlistsDeleted         atomic.Uint64
	playlistSongsAdded       atomic.Uint64
	playlistSongsRemoved     atomic.Uint64
	ownerChecksDenied        atomic.Uint64
	accessChecksDenied       atomic.Uint64
	playlistSongsCacheHits   atomic.Uint64
	playlistSongsCacheMisses atomic.Uint64

	activitiesPublished    atomic.Uint64
	activitiesDropped      atomic.Uint64
	activitiesProcessed    atomic.Uint64
	activitiesFailed       atomic.Uint64
	activitiesDeadLettered atomic.Uint64
	activityQueueDepth     atomic.Int64
	activityBatchCount     atomic.Uint64
	activityBatchNs        atomic.Uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		PlaylistsCreated:         m.playlistsCreated.Load(),
		PlaylistsDeleted:         m.playlistsDeleted.Load(),
		PlaylistSongsAdded:       m.playlistSongsAdded.Load(),
		PlaylistSongsRemoved:     m.playlistSongsRemoved.Load(),
		OwnerChecksDenied:        m.ownerChecksDenied.Load(),
		AccessChecksDenied:       m.accessChecksDenied.Load(),
		PlaylistSongsCacheHits:   m.playlistSongsCacheHits.Load(),
		PlaylistSongsCacheMisses: m.playlistSongsCacheMisses.Load(),

		ActivitiesPublished:     m.activitiesPublished.Load(),
		ActivitiesDropped:       m.activitiesDropped.Load(),
		ActivitiesProcessed:     m.activitiesProcessed.Load(),
		ActivitiesFailed:        m.activitiesFailed.Load(),
		ActivitiesDeadLettered:  m.activitiesDeadLettered.Load(),
		ActivityQueueDepth:      m.activityQueueDepth.Load(),
		ActivityBatchCount:      m.activityBatchCount.Load(),
		ActivityBatchDurationNs: m.activityBatchNs.Load(),
	}
}

func (m *InMemoryRecorder) IncPlaylistCreated()     { m.playlistsCreated.Add(1) }
func (m *InMemoryRecorder) IncPlaylistDeleted()     { m.playlistsDeleted.Add(1) }
func (m *InMemoryRecorder) IncPlaylistSongAdded()   { m.playlistSongsAdded.Add(1) }
func (m *InMemoryRecorder) IncPlaylistSongRemoved() { m.playlistSongsRemoved.Add(1) }

// IncAccessDenied counts a failed authorization check.
func (m *InMemoryRecorder) IncAccessDenied(check string) {
	if check == "owner" {
		m.ownerChecksDenied.Add(1)
		return
	}
	m.accessChecksDenied.Add(1)
}

func (m *InMemoryRecorder) IncPlaylistSongsCacheHit()  { m.playlistSongsCacheHits.Add(1) }
func (m *InMemoryRecorder) IncPlaylistSongsCacheMiss() { m.playlistSongsCacheMisses.Add(1) }

func (m *InMemoryRecorder) IncActivityPublished(status string) {
	if status == "success" {
		m.activitiesPublished.Add(1)
		return
	}
	m.activitiesDropped.Add(1)
}

func (m *InMemoryRecorder) IncActivityProcessed(status string) {
	switch status {
	case "success":
		m.activitiesProcessed.Add(1)
	case "dead_lettered":
		m.activitiesDeadLettered.Add(1)
	default:
		m.activitiesFailed.Add(1)
	}
}

func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) { m.activityQueueDepth.Store(depth) }

func (m *InMemoryRecorder) ObserveActivityBatchDuration(d time.Duration) {
	m.activityBatchCount.Add(1)
	if d > 0 {
		m.activityBatchNs.Add(uint64(d))
	}
}
