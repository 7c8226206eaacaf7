package roma

import (
	"context"
	"fmt"
	"sync"
)

const defaultWorkers = 4

// Runner executes atomic tasks and converts every failure mode at its
// boundary into a StepResult, so a step can never poison its siblings.
type Runner struct {
	Registry *Registry
	Atomizer *Atomizer
	// Workers bounds concurrent dispatch of independent sub-tasks.
	Workers int
}

func NewRunner(registry *Registry, atomizer *Atomizer, workers int) *Runner {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Runner{
		Registry: registry,
		Atomizer: atomizer,
		Workers:  workers,
	}
}

// RunOne executes a single atomic task. Panics inside an executor are
// recovered here and become a failed StepResult.
func (r *Runner) RunOne(ctx context.Context, t Task, rc Context) (res StepResult) {
	stage := r.Atomizer.Route(t)

	defer func() {
		if p := recover(); p != nil {
			res = StepResult{
				TaskID:    t.ID,
				Stage:     stage,
				Status:    StatusFailed,
				ErrorKind: ErrKindInternal,
				Error:     fmt.Sprintf("executor panic: %v", p),
			}
		}
	}()

	exec := r.Registry.Get(stage)
	if exec == nil {
		return StepResult{
			TaskID:    t.ID,
			Stage:     stage,
			Status:    StatusFailed,
			ErrorKind: ErrKindInternal,
			Error:     fmt.Sprintf("no executor registered for stage %q", stage),
		}
	}

	return exec.Run(ctx, t, rc)
}

// RunAll dispatches independent tasks through a bounded worker pool. Results
// are slotted by plan index, so ordering follows plan order regardless of
// completion order and every task yields exactly one result.
func (r *Runner) RunAll(ctx context.Context, tasks []Task, run func(context.Context, Task) StepResult) []StepResult {
	results := make([]StepResult, len(tasks))
	sem := make(chan struct{}, r.Workers)
	var wg sync.WaitGroup

	for i, t := range tasks {
		wg.Add(1)
		go func(i int, t Task) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = run(ctx, t)
		}(i, t)
	}

	wg.Wait()
	return results
}
