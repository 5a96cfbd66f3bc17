// Package activity records playlist song activity through a Redis stream.
// Handlers publish events; a worker drains the stream into Postgres.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openmusic/openmusic/internal/metrics"
)

const (
	// StreamKey is the Redis stream for playlist song activities.
	StreamKey = "stream:playlist_song_activities"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:playlist_song_activities:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// Event is the compact stream format of one activity.
type Event struct {
	PlaylistID string `json:"pid"`
	SongID     string `json:"sid"`
	UserID     string `json:"uid"`
	Action     string `json:"a"`
	At         int64  `json:"t"` // Unix milliseconds
}

// Publisher appends activity events to the stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Publish adds an event to the stream synchronously and returns its stream ID.
func (p *Publisher) Publish(ctx context.Context, event Event) (string, error) {
	if err := ValidateEvent(event); err != nil {
		return "", err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	id, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return id, nil
}

// PublishAsync publishes without blocking the caller.
// Failures are logged and counted, never returned.
func (p *Publisher) PublishAsync(event Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish playlist activity",
				slog.String("playlist_id", event.PlaylistID),
				slog.String("action", event.Action),
				slog.String("error", err.Error()),
			)
			p.metrics.IncActivityPublished("dropped")
			return
		}

		p.logger.Debug("playlist activity published",
			slog.String("playlist_id", event.PlaylistID),
			slog.String("stream_id", streamID),
		)
		p.metrics.IncActivityPublished("success")
	}()
}
