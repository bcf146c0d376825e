package async

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/expenselens/receipt-engine/constants"
	"github.com/expenselens/receipt-engine/internal/pipeline"
)

// Job is one receipt document queued for processing.
type Job struct {
	Path        string
	Data        []byte // optional; read from Path when nil
	ContentType string
}

// ProcessorQueue feeds receipt jobs to a fixed worker pool. Results are
// delivered through the OnResult callback; errors are logged and dropped.
type ProcessorQueue struct {
	proc     *pipeline.Processor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(Job, *pipeline.Result, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithResultHandler(fn func(Job, *pipeline.Result, error)) Option {
	return func(q *ProcessorQueue) { q.onResult = fn }
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res, err := q.runJob(ctx, job)
					cancel()

					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "path", job.Path, "error", err)
					} else {
						q.logger.Info("processed receipt", "worker_id", workerID, "path", job.Path, "vendor", res.Data.Vendor)
					}
					if q.onResult != nil {
						q.onResult(job, res, err)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) runJob(ctx context.Context, job Job) (*pipeline.Result, error) {
	data := job.Data
	if data == nil {
		var err error
		data, err = os.ReadFile(job.Path)
		if err != nil {
			return nil, err
		}
	}
	ct := job.ContentType
	if ct == "" {
		ct = constants.MapExtToContentType(filepath.Ext(job.Path))
	}
	return q.proc.Process(ctx, data, ct)
}

func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued receipt for processing", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

// RunBatch processes a fixed set of jobs with bounded concurrency and returns
// results in input order. The first hard error cancels the remaining jobs.
func RunBatch(ctx context.Context, proc *pipeline.Processor, jobs []Job, workers int, logger *slog.Logger) ([]*pipeline.Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}

	results := make([]*pipeline.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, job := range jobs {
		g.Go(func() error {
			data := job.Data
			if data == nil {
				var err error
				data, err = os.ReadFile(job.Path)
				if err != nil {
					logger.Error("batch read failed", "path", job.Path, "error", err)
					return err
				}
			}
			ct := job.ContentType
			if ct == "" {
				ct = constants.MapExtToContentType(filepath.Ext(job.Path))
			}
			res, err := proc.Process(gctx, data, ct)
			if err != nil {
				logger.Error("batch item failed", "path", job.Path, "error", err)
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
