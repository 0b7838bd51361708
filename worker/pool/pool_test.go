package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestWorkerPool_RunsSubmittedJobs(t *testing.T) {
	p := NewWorkerPool(2, zaptest.NewLogger(t))

	var count int32
	for i := 0; i < 10; i++ {
		p.Submit(context.Background(), "task", func(context.Context) {
			atomic.AddInt32(&count, 1)
		})
	}
	p.Wait()

	if got := atomic.LoadInt32(&count); got != 10 {
		t.Errorf("Expected 10 jobs run, got %d", got)
	}
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	const maxWorkers = 3
	p := NewWorkerPool(maxWorkers, zaptest.NewLogger(t))

	var running, peak int32
	var mu sync.Mutex

	for i := 0; i < 20; i++ {
		p.Submit(context.Background(), "task", func(context.Context) {
			now := atomic.AddInt32(&running, 1)
			mu.Lock()
			if now > peak {
				peak = now
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		})
	}
	p.Wait()

	if peak > maxWorkers {
		t.Errorf("Expected at most %d concurrent jobs, saw %d", maxWorkers, peak)
	}
}

func TestWorkerPool_ContainsPanics(t *testing.T) {
	p := NewWorkerPool(1, zaptest.NewLogger(t))

	p.Submit(context.Background(), "bad-task", func(context.Context) {
		panic("conversion blew up")
	})

	done := make(chan struct{})
	p.Submit(context.Background(), "good-task", func(context.Context) {
		close(done)
	})

	p.Wait()
	select {
	case <-done:
	default:
		t.Error("A panicking job prevented a later job from running")
	}
}

func TestWorkerPool_DropsJobWhenContextDone(t *testing.T) {
	p := NewWorkerPool(1, zaptest.NewLogger(t))

	block := make(chan struct{})
	p.Submit(context.Background(), "blocker", func(context.Context) {
		<-block
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int32
	p.Submit(ctx, "dropped", func(context.Context) {
		atomic.StoreInt32(&ran, 1)
	})

	time.Sleep(20 * time.Millisecond)
	close(block)
	p.Wait()

	if atomic.LoadInt32(&ran) == 1 {
		t.Error("Job ran despite its scheduling context being done")
	}
}
