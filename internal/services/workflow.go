package services

import (
	"context"
	"encoding/json"
	"fmt"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/GopalDesai123/billscan/internal/models"
	"github.com/cockroachdb/errors"
)

// WorkflowTrigger starts a downstream workflow after a run that appended
// rows, handing it the run summary as its argument.
type WorkflowTrigger struct {
	client     *executions.Client
	projectID  string
	location   string
	workflowID string
}

// NewWorkflowTrigger creates a new WorkflowTrigger instance.
func NewWorkflowTrigger(client *executions.Client, projectID, location, workflowID string) *WorkflowTrigger {
	return &WorkflowTrigger{
		client:     client,
		projectID:  projectID,
		location:   location,
		workflowID: workflowID,
	}
}

// Trigger starts one workflow execution with the run summary as payload.
func (t *WorkflowTrigger) Trigger(ctx context.Context, resp *models.IngestResponse) error {
	payload := map[string]interface{}{
		"runId":    resp.RunID,
		"appended": resp.Appended,
		"skipped":  resp.Skipped,
		"failed":   len(resp.Failed),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal workflow payload")
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", t.projectID, t.location, t.workflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := t.client.CreateExecution(ctx, req); err != nil {
		return errors.Wrap(err, "failed to trigger workflow execution")
	}
	return nil
}
