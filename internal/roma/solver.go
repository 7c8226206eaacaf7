package roma

import (
	"context"
	"log"
)

const defaultMaxDepth = 3

// EventLogger receives structured engine events. Satisfied by
// observability.Logger; nil disables event logging.
type EventLogger interface {
	LogPlan(taskID string, steps int, sequential bool)
	LogStep(taskID string, stage, status, errorKind string)
	LogAggregate(taskID string, status string, steps int)
}

// Solver is the recursive entry point: atomize, then either execute
// directly or plan, run the sub-tasks, and aggregate. No error ever crosses
// Solve; every failure is encoded in the result's status fields.
type Solver struct {
	Atomizer   *Atomizer
	Planner    *Planner
	Runner     *Runner
	Aggregator *Aggregator
	Log        EventLogger
	// MaxDepth caps recursion. The planner already guarantees shrinking
	// sub-tasks, so the cap only guards free-form decompositions.
	MaxDepth int
}

func NewSolver(runner *Runner, events EventLogger) *Solver {
	return &Solver{
		Atomizer:   NewAtomizer(),
		Planner:    NewPlanner(),
		Runner:     runner,
		Aggregator: NewAggregator(),
		Log:        events,
		MaxDepth:   defaultMaxDepth,
	}
}

// Solve resolves a task into a complete AggregateResult. Atomic results are
// wrapped so the caller always receives the same shape.
func (s *Solver) Solve(ctx context.Context, t Task) AggregateResult {
	return s.solve(ctx, t, 0)
}

func (s *Solver) solve(ctx context.Context, t Task, depth int) AggregateResult {
	if s.Atomizer.Classify(t) == KindAtomic || depth >= s.MaxDepth {
		step := s.Runner.RunOne(ctx, t, nil)
		s.logStep(step)
		return s.Aggregator.Aggregate([]StepResult{step})
	}

	plan := s.Planner.Plan(t)
	if s.Log != nil {
		s.Log.LogPlan(t.ID, len(plan.Tasks), plan.Sequential)
	}

	var results []StepResult
	if plan.Sequential {
		// Dependent pipeline: strictly in order, each step reading the
		// accumulated context. The context is append-only and each
		// stage writes exactly one key.
		rc := make(Context, len(plan.Tasks))
		for _, sub := range plan.Tasks {
			step := s.runSub(ctx, sub, rc, depth)
			if _, taken := rc[step.Stage]; !taken && step.Output != nil {
				rc[step.Stage] = step.Output
			}
			results = append(results, step)
		}
	} else {
		// Independent sub-tasks: bounded concurrent dispatch, results
		// slotted in plan order.
		results = s.Runner.RunAll(ctx, plan.Tasks, func(ctx context.Context, sub Task) StepResult {
			return s.runSub(ctx, sub, nil, depth)
		})
	}

	agg := s.Aggregator.Aggregate(results)
	if s.Log != nil {
		s.Log.LogAggregate(t.ID, string(agg.Status), len(results))
	}
	return agg
}

// runSub executes one planned sub-task, recursing when the planner marked it
// complex.
func (s *Solver) runSub(ctx context.Context, sub Task, rc Context, depth int) StepResult {
	var step StepResult
	if sub.Kind == KindComplex {
		child := s.solve(ctx, sub, depth+1)
		step = foldAggregate(sub, child)
	} else {
		step = s.Runner.RunOne(ctx, sub, rc)
	}
	s.logStep(step)
	return step
}

func (s *Solver) logStep(step StepResult) {
	if step.Status != StatusOK {
		log.Printf("[roma] step %s (%s): %s %s", step.TaskID, step.Stage, step.Status, step.Error)
	}
	if s.Log != nil {
		s.Log.LogStep(step.TaskID, string(step.Stage), string(step.Status), step.ErrorKind)
	}
}

// foldAggregate collapses a recursive child result into a single step of the
// parent plan: ok stays ok, degraded becomes fallback, failed stays failed.
func foldAggregate(t Task, agg AggregateResult) StepResult {
	step := StepResult{
		TaskID: t.ID,
		Stage:  t.Stage,
		Output: agg.MergedOutput,
	}
	switch agg.Status {
	case OverallOK:
		step.Status = StatusOK
	case OverallDegraded:
		step.Status = StatusFallback
	default:
		step.Status = StatusFailed
		step.ErrorKind = ErrKindInternal
		step.Error = "all nested sub-tasks failed"
	}
	return step
}
