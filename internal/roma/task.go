package roma

import "github.com/google/uuid"

// Kind classifies a task as directly executable or needing decomposition.
type Kind string

const (
	KindAtomic  Kind = "atomic"
	KindComplex Kind = "complex"
)

// Stage identifies which executor handles an atomic task.
type Stage string

const (
	StageIngest  Stage = "ingest"
	StageMetrics Stage = "metrics"
	StageCoach   Stage = "coach"
	StageReport  Stage = "report"
	// StageEcho is the error-reporting executor for malformed or
	// unroutable tasks.
	StageEcho Stage = "echo"
)

// PipelineStages is the fixed weekly-analysis pipeline in execution order.
var PipelineStages = []Stage{StageIngest, StageMetrics, StageCoach, StageReport}

// Task is one unit of work. Tasks are created by the solver or planner and
// never mutated after creation.
type Task struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Stage       Stage          `json:"stage,omitempty"` // agent hint, empty for complex tasks
	Description string         `json:"description"`
	Payload     map[string]any `json:"payload,omitempty"`
}

// NewTask creates a task with a fresh ID.
func NewTask(kind Kind, stage Stage, description string, payload map[string]any) Task {
	return Task{
		ID:          uuid.NewString(),
		Kind:        kind,
		Stage:       stage,
		Description: description,
		Payload:     payload,
	}
}

// Plan is an ordered sequence of sub-tasks produced from one complex task.
// Insertion order is execution order.
type Plan struct {
	Tasks []Task
	// Sequential marks plans whose steps feed each other (the health
	// pipeline). Non-sequential plans have independent steps and may be
	// dispatched concurrently.
	Sequential bool
}

// Context is the read-only accumulation of prior steps' outputs, keyed by
// stage. Each completed step writes exactly one key; executors only read.
type Context map[Stage]map[string]any

// Output returns the output of a previously completed stage, or nil.
func (c Context) Output(s Stage) map[string]any {
	if c == nil {
		return nil
	}
	return c[s]
}
