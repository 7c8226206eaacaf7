package roma

import "strings"

// Planner decomposes complex tasks into ordered plans. The health pipeline
// is a fixed sequence; free-form tasks get a flat single-level split.
type Planner struct{}

func NewPlanner() *Planner {
	return &Planner{}
}

// Plan produces the ordered sub-tasks for a complex task. It never returns
// an empty plan: a degenerate decomposition yields a single atomic echo task
// so the solver always has something to execute.
func (p *Planner) Plan(t Task) Plan {
	if countMetricFields(t.Payload) > 0 {
		return p.pipelinePlan(t)
	}

	tasks := p.decompose(t)
	if len(tasks) == 0 {
		tasks = []Task{NewTask(KindAtomic, StageEcho, t.Description, t.Payload)}
	}
	return Plan{Tasks: tasks}
}

// pipelinePlan is the fixed weekly-analysis sequence. Each step carries the
// original payload; outputs of prior steps arrive through the run context.
func (p *Planner) pipelinePlan(t Task) Plan {
	coachPayload := map[string]any{
		"message": "Provide weekly health coaching based on the computed metrics",
	}
	for k, v := range t.Payload {
		coachPayload[k] = v
	}

	return Plan{
		Sequential: true,
		Tasks: []Task{
			NewTask(KindAtomic, StageIngest, "Validate and normalize health data", t.Payload),
			NewTask(KindAtomic, StageMetrics, "Calculate weekly health metrics", t.Payload),
			NewTask(KindAtomic, StageCoach, "Generate personalized health recommendations", coachPayload),
			NewTask(KindAtomic, StageReport, "Assemble the weekly health report", t.Payload),
		},
	}
}

// decompose splits a free-form instruction into named sub-instructions.
// Decomposition is one level deep: parts are atomic unless a part is both
// strictly smaller than its parent and still multi-step, in which case it is
// re-marked complex and the solver recurses.
func (p *Planner) decompose(t Task) []Task {
	parts := splitInstruction(t.Description)
	if len(parts) == 1 && parts[0] == strings.TrimSpace(t.Description) {
		// Nothing actually split off; treat as degenerate.
		return nil
	}

	var tasks []Task
	for _, part := range parts {
		kind := KindAtomic
		if len(part) < len(t.Description) && isMultiStep(part) {
			kind = KindComplex
		}
		tasks = append(tasks, NewTask(kind, "", part, t.Payload))
	}
	return tasks
}

func isMultiStep(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range multiStepKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// splitInstruction breaks free text on sentence boundaries and sequencing
// connectives.
func splitInstruction(s string) []string {
	for _, conn := range []string{" and then ", " after that ", "; then "} {
		s = strings.ReplaceAll(s, conn, "\n")
	}
	raw := strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == ';' || r == '.'
	})

	var parts []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
