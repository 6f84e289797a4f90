package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/docsource-server/internal/telemetry"
)

// ErrQueueStopped is returned when submitting to a stopped queue
var ErrQueueStopped = errors.New("upload queue is stopped")

// Processor handles one upload task
type Processor interface {
	Process(ctx context.Context, task *UploadTask) error
}

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithWorkers sets the number of workers
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithQueueSize sets how many tasks may wait for a worker
func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n >= 0 {
			q.size = n
		}
	}
}

// WithQueueMetrics records queue depth and failures
func WithQueueMetrics(m *telemetry.IngestMetrics) QueueOption {
	return func(q *Queue) {
		q.metrics = m
	}
}

// Queue is a bounded upload task queue drained by a fixed worker pool
type Queue struct {
	processor Processor
	workers   int
	size      int
	metrics   *telemetry.IngestMetrics

	mu      sync.RWMutex
	tasks   chan *UploadTask
	group   *errgroup.Group
	started bool
	stopped bool
}

// NewQueue creates a queue that hands tasks to processor
func NewQueue(processor Processor, opts ...QueueOption) *Queue {
	q := &Queue{
		processor: processor,
		workers:   4,
		size:      100,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan *UploadTask, q.size)
	return q
}

// Start launches the workers. Tasks are processed with ctx.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started || q.stopped {
		return
	}
	q.started = true

	slog.Info("Starting upload workers", "workers", q.workers, "queue_size", q.size)

	q.group = &errgroup.Group{}
	for i := 0; i < q.workers; i++ {
		worker := i
		q.group.Go(func() error {
			q.work(ctx, worker)
			return nil
		})
	}
}

func (q *Queue) work(ctx context.Context, worker int) {
	for task := range q.tasks {
		q.metrics.RecordQueueDelta(ctx, -1)

		if err := q.processor.Process(ctx, task); err != nil {
			q.metrics.RecordTaskFailed(ctx, task.SourceID)
			slog.Error("Upload task failed",
				"worker", worker,
				"source_id", task.SourceID,
				"shared_uploaded_file_id", task.SharedUploadedFileID,
				"error", err)
			continue
		}

		slog.Debug("Upload task complete",
			"worker", worker,
			"source_id", task.SourceID,
			"shared_uploaded_file_id", task.SharedUploadedFileID)
	}
}

// Submit enqueues a task, blocking until there is room or ctx ends
func (q *Queue) Submit(ctx context.Context, task *UploadTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		return ErrQueueStopped
	}

	select {
	case q.tasks <- task:
		q.metrics.RecordQueueDelta(ctx, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of tasks waiting for a worker
func (q *Queue) Len() int {
	return len(q.tasks)
}

// Stop refuses new tasks and waits for queued and in-flight tasks to finish
func (q *Queue) Stop() error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.tasks)
	group := q.group
	q.mu.Unlock()

	slog.Info("Stopping upload workers")
	if group == nil {
		return nil
	}
	return group.Wait()
}
