// Package queue wraps internal/store's durable job operations with a
// worker pool: polling claims, lease heartbeats, retry scheduling, and
// graceful drain on shutdown, per spec §4.1/§4.7/§9.
package queue

import (
	"sync"
	"sync/atomic"
	"time"

	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edgecomet/national-treasure/internal/config"
	"github.com/edgecomet/national-treasure/internal/metrics"
	"github.com/edgecomet/national-treasure/pkg/types"
)

// Handler processes one claimed job's payload and returns its result bytes.
// Handlers never need to touch the store directly; the pool does that.
type Handler func(ctx context.Context, job types.Job) ([]byte, error)

// Pool runs a fixed number of worker goroutines claiming and executing jobs.
type Pool struct {
	store    Store
	cfg      *config.Config
	logger   *zap.Logger
	notifier *Notifier
	metrics  *metrics.Collector

	handlers map[string]Handler
	workerID string

	activeJobs atomic.Int32
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	staleRecoveryWg     sync.WaitGroup
	staleRecoveryCancel context.CancelFunc
}

// New builds a Pool. Register handlers with Handle before calling Start.
func New(store Store, cfg *config.Config, logger *zap.Logger, notifier *Notifier) *Pool {
	return &Pool{
		store:    store,
		cfg:      cfg,
		logger:   logger,
		notifier: notifier,
		handlers: make(map[string]Handler),
		workerID: uuid.NewString(),
	}
}

// Handle registers the handler invoked for jobs of the given type.
func (p *Pool) Handle(jobType string, h Handler) {
	p.handlers[jobType] = h
}

// SetMetrics attaches a Prometheus collector the pool reports claim latency,
// queue depth, and dead-letter counts to. Optional: a Pool with no collector
// attached simply skips recording.
func (p *Pool) SetMetrics(m *metrics.Collector) {
	p.metrics = m
}

// Start launches the configured number of workers plus the stale-lease
// recovery loop. Call Shutdown to drain gracefully.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	staleCtx, staleCancel := context.WithCancel(p.ctx)
	p.staleRecoveryCancel = staleCancel
	p.staleRecoveryWg.Add(1)
	go p.runStaleRecovery(staleCtx)

	workers := p.cfg.WorkerCount()
	p.logger.Info("starting worker pool", zap.Int("workers", workers))
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		job, err := p.store.Claim(p.ctx, p.workerID, p.cfg.Lease())
		if err != nil {
			select {
			case <-p.ctx.Done():
				return
			case <-time.After(p.cfg.PollInterval):
			}
			continue
		}

		p.metrics.RecordClaimLatency(time.Since(job.AvailableAt))
		p.activeJobs.Add(1)
		p.notifier.PublishClaimed(p.ctx, job.ID, p.workerID)
		p.process(job)
		p.notifier.PublishReleased(p.ctx, job.ID, p.workerID)
		p.activeJobs.Add(-1)
	}
}

// process dispatches a claimed job to its registered handler, heartbeating
// the lease while it runs, and reports the outcome back to the store.
func (p *Pool) process(job types.Job) {
	handler, ok := p.handlers[string(job.Type)]
	if !ok {
		p.logger.Error("no handler registered for job type", zap.String("type", string(job.Type)), zap.Int64("job_id", job.ID))
		_ = p.store.Fail(p.ctx, job.ID, p.workerID, ErrNoHandler.Error(), p.cfg.RetryBackoff(job.Attempts+1))
		return
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(p.ctx)
	defer stopHeartbeat()
	go p.heartbeatLoop(heartbeatCtx, job.ID)

	result, err := handler(p.ctx, job)
	stopHeartbeat()

	if err != nil {
		backoff := p.cfg.RetryBackoff(job.Attempts + 1)
		if failErr := p.store.Fail(p.ctx, job.ID, p.workerID, err.Error(), backoff); failErr != nil {
			p.logger.Error("failed to record job failure", zap.Error(failErr), zap.Int64("job_id", job.ID))
		} else if job.Attempts+1 >= job.MaxAttempts {
			p.metrics.RecordDeadLetter()
		}
		return
	}

	if succeedErr := p.store.Succeed(p.ctx, job.ID, p.workerID, result); succeedErr != nil {
		p.logger.Error("failed to record job success", zap.Error(succeedErr), zap.Int64("job_id", job.ID))
	}
}

func (p *Pool) heartbeatLoop(ctx context.Context, jobID int64) {
	interval := p.cfg.Lease() / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.store.Heartbeat(ctx, jobID, p.workerID, p.cfg.Lease()); err != nil {
				p.logger.Warn("heartbeat failed", zap.Error(err), zap.Int64("job_id", jobID))
				return
			}
		}
	}
}

// Shutdown stops accepting new claims and waits up to timeout for active
// jobs to finish before returning, mirroring the render pool's phased drain.
func (p *Pool) Shutdown(timeout time.Duration) {
	if p.cancel == nil {
		return
	}
	p.logger.Info("shutting down worker pool", zap.Int32("active_jobs", p.activeJobs.Load()))
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool drained")
	case <-time.After(timeout):
		p.logger.Warn("worker pool shutdown timeout exceeded", zap.Int32("stuck_jobs", p.activeJobs.Load()))
	}

	if p.staleRecoveryCancel != nil {
		p.staleRecoveryCancel()
	}
	p.staleRecoveryWg.Wait()
}

func (p *Pool) runStaleRecovery(ctx context.Context) {
	defer p.staleRecoveryWg.Done()
	ticker := time.NewTicker(p.cfg.StaleRecoveryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.store.RecoverStale(ctx, time.Now())
			if err != nil {
				p.logger.Warn("stale lease recovery failed", zap.Error(err))
				continue
			}
			if n > 0 {
				p.logger.Info("recovered stale leases", zap.Int("count", n))
			}

			if depths, err := p.store.DepthByStatus(ctx); err != nil {
				p.logger.Warn("queue depth query failed", zap.Error(err))
			} else {
				byStatus := make(map[string]int, len(depths))
				for status, count := range depths {
					byStatus[string(status)] = count
				}
				p.metrics.ObserveQueueDepths(byStatus)
			}
		}
	}
}

// ActiveJobs returns the number of jobs currently being processed.
func (p *Pool) ActiveJobs() int32 {
	return p.activeJobs.Load()
}
