package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPool bounds how many conversion jobs run at once. Jobs are fire and
// forget: a panic inside one is captured here so a single bad task can never
// take the service down with it.
type WorkerPool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger *zap.Logger
}

func NewWorkerPool(maxWorkers int, logger *zap.Logger) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &WorkerPool{
		sem:    make(chan struct{}, maxWorkers),
		logger: logger,
	}
}

// Submit schedules one unit of background work. It returns immediately; the
// job waits for a free slot in its own goroutine.
func (p *WorkerPool) Submit(ctx context.Context, taskID string, job func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("Background task panicked",
					zap.String("task_id", taskID),
					zap.Any("panic", r),
				)
			}
		}()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
			job(ctx)
		case <-ctx.Done():
			p.logger.Warn("Background task dropped, scheduler context done",
				zap.String("task_id", taskID),
			)
		}
	}()
}

// Wait blocks until every submitted job has finished.
func (p *WorkerPool) Wait() {
	p.wg.Wait()
}
