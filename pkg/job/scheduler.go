package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/HorseArcher567/logkit/pkg/xlog"
	"golang.org/x/sync/errgroup"
)

// Scheduler 在后台运行一组长期任务。任一任务返回错误时其余任务的 ctx 被取消。
type Scheduler struct {
	mu      sync.Mutex
	jobs    []*Job
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		jobs: make([]*Job, 0),
		done: make(chan struct{}),
	}
}

// AddJob 添加任务，Start 之后添加返回错误
func (s *Scheduler) AddJob(job *Job) error {
	if err := job.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("job: scheduler already started, cannot add %q", job.Name)
	}
	s.jobs = append(s.jobs, job)
	return nil
}

// Len 返回已添加的任务数
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Start starts all jobs in background goroutines and returns immediately.
// Use Stop to gracefully shut down the scheduler and wait for all jobs to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("job: scheduler already started")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	logger().Info("starting job scheduler", "jobCount", len(s.jobs))

	for _, job := range s.jobs {
		g.Go(func() error {
			logger().Debug("running job", "name", job.Name)
			if err := job.Func(gctx); err != nil {
				logger().Error("job run failed", "name", job.Name, "error", err)
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			logger().Debug("job finished", "name", job.Name)
			return nil
		})
	}

	go func() {
		s.err = g.Wait()
		close(s.done)
	}()

	return nil
}

// Done 在全部任务结束后关闭
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Err 返回第一个失败任务的错误，需在 Done 关闭后调用
func (s *Scheduler) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stop gracefully stops the scheduler by cancelling the context and waiting for all jobs to finish.
// It uses the given context for timeout control. If the timeout is reached, it will return an error
// but jobs may still be running in the background.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started, cancel := s.started, s.cancel
	s.mu.Unlock()

	if !started {
		return nil
	}

	logger().Info("shutting down job scheduler gracefully")
	cancel()

	select {
	case <-s.done:
		logger().Info("all jobs finished, scheduler stopped")
		return s.err
	case <-ctx.Done():
		logger().Warn("job scheduler shutdown timeout, some jobs may still be running")
		return ctx.Err()
	}
}

// logger 每次取当前安装的 logger，任务运行期间可以替换日志配置
func logger() *slog.Logger {
	return slog.Default().With(xlog.ModuleKey, "job")
}
