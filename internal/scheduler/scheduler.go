// Package scheduler wires the incremental-append fast path to a cron
// schedule for long-running deployments of the pipeline.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is anything the scheduler can run on a schedule. Unlike the
// teacher's job interface, Run takes a context: every job here is a
// pipeline run that must observe cancellation on shutdown.
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler manages the single recurring incremental-append job. It does
// not support multiple concurrent jobs or progress reporting — this
// pipeline has exactly one background job, so the teacher's multi-job
// registry is unnecessary machinery here.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New creates a scheduler using standard five-field cron expressions
// (minute resolution; the pipeline has no sub-minute job).
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins running registered jobs on their schedules. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop waits for any in-flight job to finish before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers a job against a cron schedule, e.g. "0 18 * * MON-FRI"
// for 6pm on trading weekdays. The job runs with a background context;
// callers that need to bound job duration should wrap ctx.Done() checks
// inside the Job themselves.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		s.log.Info().Str("job", job.Name()).Msg("running scheduled job")
		if err := job.Run(context.Background()); err != nil {
			s.log.Error().Err(err).Str("job", job.Name()).Msg("scheduled job failed")
			return
		}
		s.log.Info().Str("job", job.Name()).Msg("scheduled job completed")
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("schedule", schedule).Str("job", job.Name()).Msg("job registered")
	return nil
}

// RunNow executes a job immediately, outside its schedule, with the
// caller's context.
func (s *Scheduler) RunNow(ctx context.Context, job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("running job immediately")
	return job.Run(ctx)
}
