package jobrun

import (
	"fmt"
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const ActivityRun = "JobRunActivity"

// Workflow drives one generation job. The workflow ID is the job_run ID
// (and the task handle the API hands out); the activity owns the real
// work and the job_run row owns business state. Retries of transient
// failures are the activity retry policy; business failures are encoded
// in the row and complete the workflow normally.
func Workflow(ctx workflow.Context, jobType string) error {
	jobID := strings.TrimSpace(workflow.GetInfo(ctx).WorkflowExecution.ID)
	if jobID == "" {
		return fmt.Errorf("jobrun: missing job_id")
	}

	limits := LimitsFor(jobType)
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: limits.Hard,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    limits.RetryInitial,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    MaxAttempts,
			NonRetryableErrorTypes: []string{
				ErrTypeTerminal,
			},
		},
	})

	return workflow.ExecuteActivity(ctx, ActivityRun, jobID).Get(ctx, nil)
}
