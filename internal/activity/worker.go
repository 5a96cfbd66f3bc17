package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/openmusic/openmusic/internal/metrics"
	"github.com/openmusic/openmusic/internal/model"
)

const (
	// ConsumerGroup is the Redis consumer group name.
	ConsumerGroup = "activity_workers"

	DefaultBatchSize       = 200
	DefaultBlockTimeout    = 5 * time.Second
	DefaultMaxRetries      = 3
	DefaultClaimInterval   = 10 * time.Second
	DefaultClaimIdle       = 30 * time.Second
	DefaultMetricsInterval = 5 * time.Second
)

// NewConsumerID names this process within the consumer group.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "openmusic"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), ulid.Make().String())
}

// Store persists activities. *repository.Repository implements it.
type Store interface {
	InsertPlaylistSongActivities(ctx context.Context, activities []*model.PlaylistSongActivity) error
}

// Worker drains the activity stream into the store.
type Worker struct {
	redis           *redis.Client
	store           Store
	logger          *slog.Logger
	metrics         metrics.Recorder
	consumerID      string
	batchSize       int
	blockTimeout    time.Duration
	maxRetries      int
	retryBase       time.Duration
	claimInterval   time.Duration
	claimIdle       time.Duration
	metricsInterval time.Duration
	claimStartID    string
	lastClaim       time.Time
	lastMetrics     time.Time

	mu       sync.Mutex
	started  bool
	draining bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewWorker creates a new activity worker.
func NewWorker(client *redis.Client, store Store, logger *slog.Logger, consumerID string, recorder metrics.Recorder) *Worker {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Worker{
		redis:           client,
		store:           store,
		logger:          logger.With("component", "activity.worker", "consumer_id", consumerID),
		metrics:         recorder,
		consumerID:      consumerID,
		batchSize:       DefaultBatchSize,
		blockTimeout:    DefaultBlockTimeout,
		maxRetries:      DefaultMaxRetries,
		retryBase:       time.Second,
		claimInterval:   DefaultClaimInterval,
		claimIdle:       DefaultClaimIdle,
		metricsInterval: DefaultMetricsInterval,
		claimStartID:    "0-0",
	}
}

// SetBatchSize overrides the default batch size.
func (w *Worker) SetBatchSize(size int) {
	if size > 0 {
		w.batchSize = size
	}
}

// SetBlockTimeout overrides the default blocking timeout.
func (w *Worker) SetBlockTimeout(timeout time.Duration) {
	if timeout > 0 {
		w.blockTimeout = timeout
	}
}

// ErrWorkerStopped is returned when the worker is started after Shutdown.
var ErrWorkerStopped = errors.New("activity worker stopped")

const maxGroupBackoff = 30 * time.Second

// Start launches the consume loop in a goroutine. The worker counts as started
// once Start returns, so a following Shutdown always waits for the loop.
func (w *Worker) Start(ctx context.Context) error {
	ctx, err := w.begin(ctx)
	if err != nil {
		return err
	}
	go func() {
		if err := w.loop(ctx); err != nil {
			w.logger.Error("activity worker stopped", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Run consumes the stream until ctx is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	ctx, err := w.begin(ctx)
	if err != nil {
		return err
	}
	return w.loop(ctx)
}

func (w *Worker) begin(ctx context.Context) (context.Context, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.draining {
		return nil, ErrWorkerStopped
	}
	if w.started {
		return nil, errors.New("worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (w *Worker) loop(ctx context.Context) error {
	defer close(w.done)

	if err := w.ensureConsumerGroup(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("ensure consumer group: %w", err)
	}

	w.logger.Info("activity worker started")

	for {
		w.mu.Lock()
		draining := w.draining
		w.mu.Unlock()
		if draining {
			w.logger.Info("activity worker draining, stopping")
			return nil
		}

		select {
		case <-ctx.Done():
			w.logger.Info("activity worker stopping")
			return nil
		default:
		}

		if err := w.processOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("process error", slog.String("error", err.Error()))
			sleepCtx(ctx, time.Second)
		}
	}
}

// Shutdown stops the worker after the in-flight batch. Called before the
// worker starts, it prevents any later start.
// It has the signature of server.ShutdownFunc.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	w.draining = true
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("activity worker shutdown timed out")
		return ctx.Err()
	}
}

// ensureConsumerGroup creates the group, retrying with backoff while Redis
// is unavailable. It gives up only when ctx ends.
func (w *Worker) ensureConsumerGroup(ctx context.Context) error {
	backoff := w.retryBase
	for attempt := 1; ; attempt++ {
		err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
		if err == nil || isBusyGroup(err) {
			return nil
		}
		w.logger.Warn("failed to create consumer group, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)
		if !sleepCtx(ctx, backoff) {
			return err
		}
		if backoff < maxGroupBackoff {
			backoff *= 2
		}
	}
}

// processOnce handles one batch: reclaimed pending messages first, then new ones.
func (w *Worker) processOnce(ctx context.Context) error {
	w.maybeUpdateQueueDepth(ctx)

	messages, err := w.maybeClaimPending(ctx)
	if err != nil {
		w.logger.Warn("failed to claim pending messages", slog.String("error", err.Error()))
	}

	if len(messages) == 0 {
		messages, err = w.readBatch(ctx)
		if err != nil {
			return err
		}
	}
	if len(messages) == 0 {
		return nil
	}

	activities, ids, poison := parseMessages(messages)
	if len(poison) > 0 {
		poisonIDs := make([]string, 0, len(poison))
		for _, p := range poison {
			w.deadLetter(ctx, p.msg, p.reason, p.detail)
			poisonIDs = append(poisonIDs, p.msg.ID)
		}
		if err := w.ack(ctx, poisonIDs); err != nil {
			w.logger.Warn("failed to ack dead-lettered messages", slog.String("error", err.Error()))
		}
	}

	if len(activities) > 0 {
		if err := w.storeWithRetry(ctx, activities); err != nil {
			// Leave unacked so the batch is reclaimed later.
			return err
		}
	}

	return w.ack(ctx, ids)
}

func (w *Worker) maybeClaimPending(ctx context.Context) ([]redis.XMessage, error) {
	if !w.lastClaim.IsZero() && time.Since(w.lastClaim) < w.claimInterval {
		return nil, nil
	}
	w.lastClaim = time.Now()

	messages, start, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.claimIdle,
		Start:    w.claimStartID,
		Count:    int64(w.batchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if start != "" {
		w.claimStartID = start
	}
	return messages, nil
}

func (w *Worker) maybeUpdateQueueDepth(ctx context.Context) {
	if !w.lastMetrics.IsZero() && time.Since(w.lastMetrics) < w.metricsInterval {
		return
	}
	w.lastMetrics = time.Now()

	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.Warn("failed to read stream group info", slog.String("error", err.Error()))
		}
		return
	}
	for _, group := range groups {
		if group.Name == ConsumerGroup {
			w.metrics.SetActivityQueueDepth(group.Pending + group.Lag)
			return
		}
	}
}

func (w *Worker) readBatch(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.batchSize),
		Block:    w.blockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return streams[0].Messages, nil
}

type poisonMessage struct {
	msg    redis.XMessage
	reason string
	detail string
}

// parseMessages turns stream messages into activities. Every message ID is
// returned for acking; malformed ones are reported as poison.
func parseMessages(messages []redis.XMessage) ([]*model.PlaylistSongActivity, []string, []poisonMessage) {
	activities := make([]*model.PlaylistSongActivity, 0, len(messages))
	ids := make([]string, 0, len(messages))
	var poison []poisonMessage

	for _, msg := range messages {
		ids = append(ids, msg.ID)

		payload, ok := msg.Values["payload"].(string)
		if !ok {
			poison = append(poison, poisonMessage{msg, "invalid_format", "payload field missing or not a string"})
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			poison = append(poison, poisonMessage{msg, "unmarshal_error", err.Error()})
			continue
		}
		if err := ValidateEvent(event); err != nil {
			poison = append(poison, poisonMessage{msg, "validation_error", err.Error()})
			continue
		}

		activities = append(activities, &model.PlaylistSongActivity{
			ID:         model.ActivityIDPrefix + ulid.Make().String(),
			EventID:    msg.ID,
			PlaylistID: event.PlaylistID,
			SongID:     event.SongID,
			UserID:     event.UserID,
			Action:     event.Action,
			Time:       time.UnixMilli(event.At).UTC(),
		})
	}

	return activities, ids, poison
}

func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("dead-lettering poison message",
		slog.String("message_id", msg.ID),
		slog.String("reason", reason),
		slog.String("detail", detail),
	)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: 10000,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"original_id":      msg.ID,
			"reason":           reason,
			"detail":           detail,
			"payload":          fmt.Sprint(msg.Values["payload"]),
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("failed to write to dead-letter queue",
			slog.String("message_id", msg.ID),
			slog.String("error", err.Error()),
		)
	}

	w.metrics.IncActivityProcessed("dead_lettered")
}

// storeWithRetry writes the batch with exponential backoff.
func (w *Worker) storeWithRetry(ctx context.Context, activities []*model.PlaylistSongActivity) error {
	var lastErr error

	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		start := time.Now()
		err := w.store.InsertPlaylistSongActivities(ctx, activities)
		if err == nil {
			w.metrics.ObserveActivityBatchDuration(time.Since(start))
			for range activities {
				w.metrics.IncActivityProcessed("success")
			}
			w.logger.Debug("activity batch stored",
				slog.Int("count", len(activities)),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			)
			return nil
		}

		lastErr = err
		backoff := w.retryBase << (attempt - 1)
		w.logger.Warn("activity batch failed, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
	}

	for range activities {
		w.metrics.IncActivityProcessed("failed")
	}
	return fmt.Errorf("store activities: %w", lastErr)
}

func (w *Worker) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

// sleepCtx sleeps for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
