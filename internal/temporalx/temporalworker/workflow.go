package temporalworker

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// WorkflowName is registered under this name so ad-hoc workflow starts
// (e.g. from an operator script) don't need the Go symbol.
const WorkflowName = "GazetteTextWorkflow"

// ActivityRunPipeline is the single activity GazetteTextWorkflow drives:
// run one full pipeline pass in the given execution mode.
const ActivityRunPipeline = "RunGazetteTextPipeline"

// GazetteTextWorkflow durably schedules one pipeline run. It has no
// retry policy of its own beyond the activity's: a run that fails
// midway is not resumed from where it left off, it is simply reported
// failed, since the pipeline's own per-gazette processed flag already
// makes the next run pick up where this one stopped.
func GazetteTextWorkflow(ctx workflow.Context, mode string) error {
	opts := workflow.ActivityOptions{
		StartToCloseTimeout: 6 * time.Hour,
		RetryPolicy:         &temporal.RetryPolicy{MaximumAttempts: 1},
	}
	ctx = workflow.WithActivityOptions(ctx, opts)
	return workflow.ExecuteActivity(ctx, ActivityRunPipeline, mode).Get(ctx, nil)
}
