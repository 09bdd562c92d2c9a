package agent

import "fmt"

// SearchExecutionError wraps any failure that aborts an agent run, carrying
// the plan id so batch callers can attribute the failure.
type SearchExecutionError struct {
	PlanID string
	Err    error
}

func (e *SearchExecutionError) Error() string {
	return fmt.Sprintf("execute search plan %s: %v", e.PlanID, e.Err)
}

func (e *SearchExecutionError) Unwrap() error {
	return e.Err
}
