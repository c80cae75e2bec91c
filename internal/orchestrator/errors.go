package orchestrator

import "fmt"

// ConfigurationError means no usable configuration directory could be
// resolved for a start request. The caller must fix the configuration
// and retry; nothing is retried internally.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// RunNotFoundError is returned by every operation handed an unknown
// orchestration id. Always a caller error.
type RunNotFoundError struct {
	RunID string
}

func (e *RunNotFoundError) Error() string {
	return fmt.Sprintf("no orchestration found with id %s", e.RunID)
}

// StepMismatchError rejects a completion call that does not target the
// current step. The message names both ids so the calling agent driver
// can correct its sequencing. Expected is empty when the run is already
// complete.
type StepMismatchError struct {
	RunID    string
	Expected string
	Received string
}

func (e *StepMismatchError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("orchestration %s has no current step to complete (received %s)", e.RunID, e.Received)
	}
	return fmt.Sprintf("step mismatch in orchestration %s: expected %s, received %s", e.RunID, e.Expected, e.Received)
}
