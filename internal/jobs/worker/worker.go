// Package worker runs named maintenance jobs on cron schedules.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Abhishek-Hiremath49/Ads-Manager/internal/platform/logger"
)

const DefaultJobTimeout = 10 * time.Minute

// Job is one named unit of scheduled work.
type Job struct {
	Name     string
	Schedule string
	// Timeout bounds a single run; DefaultJobTimeout when zero.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

var ErrUnknownJob = errors.New("unknown job")

type Worker struct {
	log  *logger.Logger
	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]Job

	ctx    context.Context
	cancel context.CancelFunc
}

func NewWorker(baseLog *logger.Logger) *Worker {
	log := baseLog.With("component", "CronWorker")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		log: log,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		jobs:   map[string]Job{},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Register validates the schedule and adds the job. Names must be unique.
func (w *Worker) Register(j Job) error {
	if j.Name == "" || j.Run == nil {
		return fmt.Errorf("job needs a name and a run func")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, dup := w.jobs[j.Name]; dup {
		return fmt.Errorf("job %q already registered", j.Name)
	}
	if _, err := w.cron.AddFunc(j.Schedule, func() { _ = w.run(w.ctx, j) }); err != nil {
		return fmt.Errorf("job %q: bad schedule %q: %w", j.Name, j.Schedule, err)
	}
	w.jobs[j.Name] = j
	w.log.Info("job registered", "job", j.Name, "schedule", j.Schedule)
	return nil
}

func (w *Worker) Start() {
	w.log.Info("starting cron worker", "jobs", len(w.jobs))
	w.cron.Start()
}

// Stop cancels running jobs and waits for them up to ctx's deadline.
func (w *Worker) Stop(ctx context.Context) {
	w.cancel()
	done := w.cron.Stop().Done()
	select {
	case <-done:
		w.log.Info("cron worker stopped")
	case <-ctx.Done():
		w.log.Warn("cron worker stop timed out")
	}
}

// RunNow executes a registered job immediately on the caller's goroutine.
func (w *Worker) RunNow(ctx context.Context, name string) error {
	w.mu.Lock()
	j, ok := w.jobs[name]
	w.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return w.run(ctx, j)
}

func (w *Worker) run(parent context.Context, j Job) (err error) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("job panic", "job", j.Name, "panic", r)
			err = &panicError{Val: r}
		}
	}()

	err = j.Run(ctx)
	if err != nil {
		w.log.Warn("job failed", "job", j.Name, "duration", time.Since(start), "error", err)
		return err
	}
	w.log.Debug("job finished", "job", j.Name, "duration", time.Since(start))
	return nil
}

type panicError struct{ Val any }

func (e *panicError) Error() string { return fmt.Sprintf("panic: %v", e.Val) }

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct{ log *logger.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
