package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/strataly/boardroom/backend/internal/config"
	"github.com/strataly/boardroom/backend/pkg/logger"
)

const (
	TaskTypePresenceRecount = "presence:recount"
)

// PresenceTask asks for the participants_count cache of one meeting to be
// recomputed from the open participant rows.
type PresenceTask struct {
	MeetingID uint `json:"meeting_id"`
}

// PresenceQueue defines the interface for presence recount processing. The
// recount is best-effort: enqueue failures are logged by callers, never
// surfaced to the join/leave that triggered them.
type PresenceQueue interface {
	// Enqueue adds a recount task to the queue
	Enqueue(task *PresenceTask) error
	// IsAsync returns true if the queue processes tasks asynchronously
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

// Global presence queue instance
var (
	globalPresenceQueue PresenceQueue
	presenceQueueOnce   sync.Once
)

// InitPresenceQueue initializes the global presence queue based on config
func InitPresenceQueue(cfg *config.Config) PresenceQueue {
	presenceQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncPresenceQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[PresenceQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalPresenceQueue = NewSyncPresenceQueue()
			} else {
				logger.Infof("[PresenceQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalPresenceQueue = queue
			}
		} else {
			logger.Infof("[PresenceQueue] Sync queue initialized (Redis disabled)")
			globalPresenceQueue = NewSyncPresenceQueue()
		}
	})
	return globalPresenceQueue
}

// GetPresenceQueue returns the global presence queue instance
func GetPresenceQueue() PresenceQueue {
	return globalPresenceQueue
}

// AsyncPresenceQueue implements PresenceQueue using asynq (Redis-based)
type AsyncPresenceQueue struct {
	client *asynq.Client
}

// NewAsyncPresenceQueue creates a new Redis-based async queue
func NewAsyncPresenceQueue(cfg *config.RedisConfig) (*AsyncPresenceQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Test connection by pinging Redis
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	// Try to get queue info to verify connection
	_, err := inspector.Queues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncPresenceQueue{client: client}, nil
}

// Enqueue adds a recount task to the async queue
func (q *AsyncPresenceQueue) Enqueue(task *PresenceTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypePresenceRecount, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Uint("meeting_id", task.MeetingID).Msg("presence recount enqueued")
	return nil
}

// IsAsync returns true for async queue
func (q *AsyncPresenceQueue) IsAsync() bool {
	return true
}

// Close closes the async queue client
func (q *AsyncPresenceQueue) Close() error {
	return q.client.Close()
}

// SyncPresenceQueue implements PresenceQueue with in-process processing (no Redis)
type SyncPresenceQueue struct {
	processor func(context.Context, *PresenceTask) error
}

// NewSyncPresenceQueue creates a new synchronous queue
func NewSyncPresenceQueue() *SyncPresenceQueue {
	return &SyncPresenceQueue{}
}

// SetProcessor sets the function to process tasks in-process
func (q *SyncPresenceQueue) SetProcessor(processor func(context.Context, *PresenceTask) error) {
	q.processor = processor
}

// Enqueue processes the task in a goroutine so it never blocks the join or
// leave that triggered it
func (q *SyncPresenceQueue) Enqueue(task *PresenceTask) error {
	if q.processor == nil {
		logger.Infof("[PresenceQueue] Warning: no processor set, task will be dropped")
		return nil
	}

	go func() {
		ctx := context.Background()
		if err := q.processor(ctx, task); err != nil {
			logger.Infof("[PresenceQueue] Recount failed for meeting %d: %v", task.MeetingID, err)
		}
	}()

	return nil
}

// IsAsync returns false for sync queue
func (q *SyncPresenceQueue) IsAsync() bool {
	return false
}

// Close is a no-op for sync queue
func (q *SyncPresenceQueue) Close() error {
	return nil
}
