// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"strings"

	"syllabus-gap/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@daily"

// Job is a unit of periodic work. The returned count is only logged.
type Job interface {
	Run(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron *cron.Cron
	spec string
	name string
	job  Job
	log  *logger.Logger
}

func New(name, spec string, job Job, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	log = log.With("component", "scheduler", "job", name)
	return &Scheduler{
		cron: cron.New(cron.WithLogger(cronLogger{log: log})),
		spec: spec,
		name: name,
		job:  job,
		log:  log,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.job == nil {
		return fmt.Errorf("scheduler %s: nil job", s.name)
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.log.Info("cron started", "spec", s.spec)
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("cron stopped")
}

func (s *Scheduler) runOnce(ctx context.Context) {
	n, err := s.job.Run(ctx)
	if err != nil {
		s.log.Error("job failed", "status", "error", "err", err)
		return
	}
	s.log.Info("job finished", "status", "finished", "affected", n)
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
