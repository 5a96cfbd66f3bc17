package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncPlaylistCreated()                          {}
func (n *NoopRecorder) IncPlaylistDeleted()                          {}
func (n *NoopRecorder) IncPlaylistSongAdded()                        {}
func (n *NoopRecorder) IncPlaylistSongRemoved()                      {}
func (n *NoopRecorder) IncAccessDenied(check string)                 {}
func (n *NoopRecorder) IncPlaylistSongsCacheHit()                    {}
func (n *NoopRecorder) IncPlaylistSongsCacheMiss()                   {}
func (n *NoopRecorder) IncActivityPublished(status string)           {}
func (n *NoopRecorder) IncActivityProcessed(status string)           {}
func (n *NoopRecorder) SetActivityQueueDepth(depth int64)            {}
func (n *NoopRecorder) ObserveActivityBatchDuration(d time.Duration) {}
