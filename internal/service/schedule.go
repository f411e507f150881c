/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/robfig/cron/v3"

	"github.com/sql-instance-planner/internal/metrics"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Job is run by a Scheduler on every tick
type Job func(ctx context.Context) error

// Scheduler runs a Job on a standard five-field cron schedule in UTC.
// A tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	expr     string
	schedule cron.Schedule
	job      Job
	log      logr.Logger
}

// NewScheduler parses expr and creates a Scheduler for job.
func NewScheduler(expr string, job Job, log logr.Logger) (*Scheduler, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, &ValidationError{Field: "schedule", Message: fmt.Sprintf("invalid cron expression %q: %v", expr, err)}
	}
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Scheduler{expr: expr, schedule: schedule, job: job, log: log.WithName("scheduler")}, nil
}

// Next returns the first activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.UTC())
}

// Run blocks until ctx is cancelled, then waits for a running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(time.UTC),
		cron.WithLogger(s.log),
		cron.WithChain(cron.Recover(s.log), cron.SkipIfStillRunning(s.log)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() { s.tick(ctx) }))

	s.log.Info("scheduler started", "schedule", s.expr, "next", s.Next(time.Now()))
	c.Start()
	<-ctx.Done()

	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := s.job(ctx); err != nil {
		metrics.RecordScheduledPublish(metrics.StatusFailure)
		s.log.Error(err, "scheduled run failed")
		return
	}
	metrics.RecordScheduledPublish(metrics.StatusSuccess)
}
