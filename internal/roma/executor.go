package roma

import (
	"context"
	"fmt"
	"strconv"
)

// Executor performs one bounded unit of domain work. The run context carries
// outputs of previously completed sibling steps as a read-only view.
type Executor interface {
	Stage() Stage
	Run(ctx context.Context, t Task, rc Context) StepResult
}

// Registry maps stages to executors. Dispatch is an explicit lookup, not
// runtime type inspection.
type Registry struct {
	Executors map[Stage]Executor
}

func NewRegistry() *Registry {
	return &Registry{
		Executors: make(map[Stage]Executor),
	}
}

func (r *Registry) Register(e Executor) {
	r.Executors[e.Stage()] = e
}

func (r *Registry) Get(s Stage) Executor {
	return r.Executors[s]
}

// EchoExecutor is the error-reporting executor. Malformed or unroutable
// atomic tasks land here and produce a fallback result instead of an error.
type EchoExecutor struct{}

func NewEchoExecutor() *EchoExecutor {
	return &EchoExecutor{}
}

func (e *EchoExecutor) Stage() Stage { return StageEcho }

func (e *EchoExecutor) Run(ctx context.Context, t Task, rc Context) StepResult {
	out := map[string]any{
		"echo": t.Description,
	}
	if len(t.Payload) > 0 {
		out["payload"] = t.Payload
	}
	return StepResult{
		TaskID:    t.ID,
		Stage:     StageEcho,
		Status:    StatusFallback,
		Output:    out,
		ErrorKind: ErrKindValidation,
		Error:     "task could not be routed to a domain executor",
	}
}

// payloadFloat reads a numeric payload field, tolerating the loose types
// that arrive from decoded JSON.
func payloadFloat(payload map[string]any, key string) (float64, bool) {
	v, ok := payload[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}
