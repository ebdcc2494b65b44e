// Package scheduler runs periodic jobs on cron schedules evaluated in UTC.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler is a cron-like job scheduler.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger

	// base is the parent of every job context; Run cancels it on shutdown.
	base   context.Context
	cancel context.CancelFunc
}

// cronLogger adapts zap to the cron logger interface.
type cronLogger struct {
	logger *zap.SugaredLogger
}

// Info logs routine messages about cron's operation.
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Error logs an error condition.
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}

// New returns a Scheduler that evaluates schedules in UTC and never runs two
// instances of the same job concurrently.
func New(logger *zap.Logger) *Scheduler {
	logger = logger.Named("cron")
	clog := cronLogger{logger.Sugar()}
	base, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		base:   base,
		cancel: cancel,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(clog),
			cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
		),
		logger: logger,
	}
}

// AddJob registers fn under spec (standard five-field syntax). Each run gets
// a context bounded by timeout and cancelled when Run returns.
func (s *Scheduler) AddJob(name, spec string, timeout time.Duration, fn func(ctx context.Context) error) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(s.base, timeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Duration("took", time.Since(start)), zap.Error(err))
			return
		}
		s.logger.Info("Scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
}

// Next returns the next activation time of the job with the given id.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Run starts the scheduler and blocks until ctx is done. It then cancels
// running jobs and waits up to 30 seconds for them to return.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("Scheduler started")
	<-ctx.Done()

	s.cancel()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("Timed out waiting for running jobs")
	}
	s.logger.Info("Scheduler stopped")
	return nil
}
