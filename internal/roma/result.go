package roma

// Status of a single executed step.
type Status string

const (
	StatusOK       Status = "ok"
	StatusFailed   Status = "failed"
	StatusFallback Status = "fallback"
)

// Overall status of an aggregated result.
type OverallStatus string

const (
	OverallOK       OverallStatus = "ok"
	OverallDegraded OverallStatus = "degraded"
	OverallFailed   OverallStatus = "failed"
)

// Error kinds recorded on failed or fallback steps.
const (
	ErrKindValidation = "validation"
	ErrKindTransport  = "transport"
	ErrKindInternal   = "internal"
)

// StepResult is the outcome of one executor invocation. It is owned by the
// runner until aggregation and never mutated after creation.
type StepResult struct {
	TaskID    string         `json:"task_id"`
	Stage     Stage          `json:"stage"`
	Status    Status         `json:"status"`
	Output    map[string]any `json:"output,omitempty"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Usable reports whether the step produced output worth merging.
func (r StepResult) Usable() bool {
	return r.Status != StatusFailed && len(r.Output) > 0
}

// AggregateResult is the final artifact of one solve invocation. Its field
// set is stable because it is what gets persisted and returned over the wire.
type AggregateResult struct {
	Status            OverallStatus  `json:"status"`
	MergedOutput      map[string]any `json:"merged_output"`
	ContributingSteps []StepResult   `json:"contributing_steps"`
}
