package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("worker pool is shutting down")

// Job is one unit of work. Ctx is the submitter's context; Run receives it,
// bounded by the pool's per-job timeout when one is set.
type Job struct {
	Name string
	Ctx  context.Context
	Run  func(ctx context.Context)
	done func()
}

// Pool runs jobs on a fixed set of worker goroutines.
type Pool struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Pool)

func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewPool(logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		logger:  logger,
		workers: 4,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(p)
	}
	p.start()
	return p
}

func (p *Pool) Workers() int { return p.workers }

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go func(workerID int) {
				defer p.wg.Done()
				p.logger.Debug("async.worker.started", "worker_id", workerID)
				for job := range p.ch {
					p.run(workerID, job)
				}
				p.logger.Debug("async.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (p *Pool) run(workerID int, job Job) {
	if job.done != nil {
		defer job.done()
	}
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("async.job.panic", "worker_id", workerID, "job", job.Name, "panic", r)
		}
	}()
	job.Run(ctx)
}

// Submit queues a job, blocking while the queue is full.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.logger.Warn("async.submit.rejected", "job", job.Name)
		return ErrPoolClosed
	}
	select {
	case p.ch <- job:
	default:
		p.logger.Debug("async.queue.full", "job", job.Name)
		p.ch <- job
	}
	return nil
}

// Group tracks a set of jobs submitted together.
type Group struct {
	pool *Pool
	wg   sync.WaitGroup
}

func (p *Pool) Group() *Group { return &Group{pool: p} }

// Go submits fn. If the pool is closed fn runs on the caller's goroutine so
// the group still completes.
func (g *Group) Go(ctx context.Context, name string, fn func(ctx context.Context)) {
	g.wg.Add(1)
	job := Job{Name: name, Ctx: ctx, Run: fn, done: g.wg.Done}
	if err := g.pool.Submit(job); err != nil {
		g.pool.run(0, job)
	}
}

// Wait blocks until every job started with Go has returned.
func (g *Group) Wait() { g.wg.Wait() }

func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); p.wg.Wait() }()

	select {
	case <-ctx.Done():
		p.logger.Warn("async.shutdown.interrupted")
	case <-done:
		p.logger.Debug("async.shutdown.complete")
	}
}
