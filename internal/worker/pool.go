// Package worker runs alert dispatch jobs on a bounded set of goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/metrics"
)

// Job is a unit of work for the pool
type Job struct {
	// Name is used for logging only
	Name    string
	Execute func(ctx context.Context) error
}

type Config struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
}

// Pool processes jobs from a bounded queue. Submit never blocks; a full
// queue drops the job.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     Config
	logger  *zap.Logger
	mu      sync.Mutex
	running bool
}

func NewPool(cfg Config, logger *zap.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:   make(chan Job, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("dispatch"),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	p.logger.Info("starting dispatch pool",
		zap.Int("workers", p.cfg.Workers),
		zap.Int("queue_size", p.cfg.QueueSize),
	)
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(id, job)
		}
	}
}

func (p *Pool) run(workerID int, job Job) {
	metrics.DispatchActiveWorkers.Inc()
	metrics.DispatchQueueDepth.Dec()
	defer metrics.DispatchActiveWorkers.Dec()

	start := time.Now()
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.JobTimeout)
	defer cancel()

	err := p.safeExecute(ctx, job)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.DispatchJobs.WithLabelValues("error").Inc()
		p.logger.Warn("dispatch job failed",
			zap.String("job", job.Name),
			zap.Int("worker", workerID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	metrics.DispatchJobs.WithLabelValues("ok").Inc()
}

func (p *Pool) safeExecute(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("dispatch job panicked", zap.String("job", job.Name), zap.Any("panic", r))
			err = errJobPanicked
		}
	}()
	return job.Execute(ctx)
}

// Submit queues a job and reports whether it was accepted
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return false
	}
	select {
	case p.jobs <- job:
		metrics.DispatchQueueDepth.Inc()
		return true
	default:
		metrics.DispatchJobs.WithLabelValues("dropped").Inc()
		p.logger.Warn("dispatch queue full, job dropped", zap.String("job", job.Name))
		return false
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		p.logger.Warn("dispatch pool shutdown timed out")
		return ctx.Err()
	}
}
