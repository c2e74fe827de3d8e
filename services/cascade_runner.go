package services

import (
	"context"
	"log/slog"
	"sync"
)

// CascadeRunner decouples cascade execution from the request path: match
// updates enqueue a typed task and return immediately; a small worker pool
// drains the queue. Failed runs are logged and not retried; the next
// legitimate match update re-triggers a fresh idempotent run.
type CascadeRunner struct {
	cascade CascadeService
	tasks   chan CascadeTask
	logger  *slog.Logger
	wg      sync.WaitGroup
	stop    chan struct{}
	once    sync.Once
}

func NewCascadeRunner(cascade CascadeService, workers, queueSize int, logger *slog.Logger) *CascadeRunner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}
	r := &CascadeRunner{
		cascade: cascade,
		tasks:   make(chan CascadeTask, queueSize),
		logger:  logger,
		stop:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Enqueue hands a task to the worker pool without blocking the caller. A full
// queue drops the task with an error log; the idempotency guard makes a
// re-trigger from the next match update safe.
func (r *CascadeRunner) Enqueue(task CascadeTask) {
	select {
	case <-r.stop:
		r.logger.Warn("cascade task dropped, runner stopped",
			slog.Int("match_id", task.MatchID), slog.Int("version", task.Version))
	case r.tasks <- task:
	default:
		r.logger.Error("cascade task dropped, queue full",
			slog.Int("match_id", task.MatchID), slog.Int("version", task.Version))
	}
}

func (r *CascadeRunner) worker() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case task := <-r.tasks:
			if err := r.cascade.Run(context.Background(), task); err != nil {
				r.logger.Error("cascade run failed",
					slog.Int("match_id", task.MatchID),
					slog.Int("version", task.Version),
					slog.Any("error", err),
				)
			}
		}
	}
}

// Stop shuts the worker pool down. Queued tasks may be left unprocessed;
// they will be re-armed by future match updates.
func (r *CascadeRunner) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}
