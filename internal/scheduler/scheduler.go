package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foodops/localfood/internal/adapter/logger"
)

// JobFunc runs one tick of a periodic job. The tick instant is passed in so
// every store touched during the run sees the same reference time.
type JobFunc func(ctx context.Context, now time.Time) error

// Job is a named periodic task. Retries is the number of extra attempts
// after a failed run; zero means fire-and-forget.
type Job struct {
	Name     string
	Interval time.Duration
	Retries  int
	Run      JobFunc
}

type registeredJob struct {
	Job
	busy atomic.Bool
}

// Scheduler drives the periodic jobs on independent tickers. A job that is
// still running when its next tick arrives skips that tick instead of
// overlapping itself.
type Scheduler struct {
	jobs       []*registeredJob
	retryDelay time.Duration
	logger     logger.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

func New(log logger.Logger, retryDelay time.Duration) *Scheduler {
	return &Scheduler{
		retryDelay: retryDelay,
		logger:     log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, &registeredJob{Job: job})
}

// Start launches one goroutine per registered job and blocks until ctx is
// cancelled and every in-flight run has finished.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)

		s.logger.Info("job_registered", fmt.Sprintf("Scheduled job %s every %s", job.Name, job.Interval),
			"", map[string]interface{}{
				"job":      job.Name,
				"interval": job.Interval.String(),
			})
	}

	<-ctx.Done()
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job *registeredJob) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !job.busy.CompareAndSwap(false, true) {
				s.logger.Warn("job_tick_skipped", fmt.Sprintf("Job %s still running, tick skipped", job.Name),
					"", map[string]interface{}{"job": job.Name})
				continue
			}
			s.runOnce(ctx, job)
			job.busy.Store(false)
		}
	}
}

// RunNow executes a single attempt cycle of the named job outside its
// ticker, honoring the same retry policy.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name != name {
			continue
		}
		if !job.busy.CompareAndSwap(false, true) {
			return fmt.Errorf("job %s is already running", name)
		}
		defer job.busy.Store(false)
		return s.attempt(ctx, job)
	}
	return fmt.Errorf("unknown job %s", name)
}

func (s *Scheduler) runOnce(ctx context.Context, job *registeredJob) {
	if err := s.attempt(ctx, job); err != nil {
		s.logger.Error("job_failed", fmt.Sprintf("Job %s exhausted its attempts", job.Name),
			"", map[string]interface{}{"job": job.Name}, err)
	}
}

func (s *Scheduler) attempt(ctx context.Context, job *registeredJob) error {
	var lastErr error

	attempts := job.Retries + 1
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		start := s.now()
		err := job.Run(ctx, start)
		if err == nil {
			s.logger.Debug("job_completed", fmt.Sprintf("Job %s completed", job.Name),
				"", map[string]interface{}{
					"job":         job.Name,
					"duration_ms": s.now().Sub(start).Milliseconds(),
					"attempt":     i + 1,
				})
			return nil
		}
		lastErr = err

		if i+1 < attempts {
			s.logger.Warn("job_retrying", fmt.Sprintf("Job %s failed, retrying", job.Name),
				"", map[string]interface{}{
					"job":     job.Name,
					"attempt": i + 1,
					"error":   err.Error(),
				})

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}
	}
	return lastErr
}
