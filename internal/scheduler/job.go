package scheduler

import "context"

// IncrementalJob adapts an Orchestrator's incremental-append run to the
// Job interface so it can be registered on a cron schedule.
type IncrementalJob struct {
	run func(ctx context.Context) error
}

// NewIncrementalJob wraps a run function (typically
// orchestrator.IncrementalAppend reduced to its error) as a scheduled Job.
func NewIncrementalJob(run func(ctx context.Context) error) *IncrementalJob {
	return &IncrementalJob{run: run}
}

func (j *IncrementalJob) Run(ctx context.Context) error { return j.run(ctx) }

func (j *IncrementalJob) Name() string { return "incremental_append" }
