// Package scheduler runs backups on a cron schedule.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/eatd/backtar/internal/logging"
)

// RunFunc performs one backup run.
type RunFunc func(ctx context.Context) error

type Scheduler struct {
	c   *cron.Cron
	log logging.Logger
}

// New validates spec (standard 5-field cron, plus @every and friends)
// and prepares a scheduler that invokes run on each tick. Runs never
// overlap: a tick that fires while a run is in progress is skipped.
func New(spec string, run RunFunc, log logging.Logger) (*Scheduler, error) {
	s := &Scheduler{log: log}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})))

	job := func() {
		if err := run(context.Background()); err != nil {
			log.Error("schedule: backup run failed", "error", err)
		}
	}

	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, err
	}

	s.c = c
	return s, nil
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started")
	s.c.Start()
	<-ctx.Done()

	stop := s.c.Stop()
	<-stop.Done()
	s.log.Info("scheduler stopped")
}

// cronLogger adapts our Logger to cron's logging interface.
type cronLogger struct {
	log logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
