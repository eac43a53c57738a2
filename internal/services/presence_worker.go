package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/strataly/boardroom/backend/internal/config"
	"github.com/strataly/boardroom/backend/pkg/logger"
)

// PresenceWorker consumes presence recount tasks from the Redis queue. Only
// started when Redis is enabled; the sync queue runs recounts in-process.
type PresenceWorker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *PresenceTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// NewPresenceWorker creates a new worker instance
func NewPresenceWorker(cfg *config.RedisConfig) *PresenceWorker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Infof("[PresenceWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &PresenceWorker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function that performs the recount
func (w *PresenceWorker) SetProcessor(processor func(context.Context, *PresenceTask) error) {
	w.processor = processor
}

// Start begins processing tasks
func (w *PresenceWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypePresenceRecount, w.handleRecountTask)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Infof("[PresenceWorker] Starting async worker...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Infof("[PresenceWorker] Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the worker
func (w *PresenceWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[PresenceWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Infof("[PresenceWorker] Shutdown complete")
}

// handleRecountTask processes a single recount task
func (w *PresenceWorker) handleRecountTask(ctx context.Context, t *asynq.Task) error {
	var task PresenceTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Infof("[PresenceWorker] Failed to unmarshal task: %v", err)
		return err
	}

	if w.processor == nil {
		logger.Infof("[PresenceWorker] Warning: no processor set")
		return nil
	}

	return w.processor(ctx, &task)
}
