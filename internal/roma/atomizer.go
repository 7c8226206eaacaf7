package roma

import "strings"

// metricFields are the well-known keys of a flat weekly health payload.
var metricFields = []string{"steps", "sleep_hours", "workouts", "water_liters"}

// multiStepKeywords in a free-text description indicate a task that needs
// decomposition.
var multiStepKeywords = []string{
	"comprehensive",
	"full analysis",
	"weekly analysis",
	"and then",
	"after that",
	"step by step",
	"break down",
}

const maxAtomicTextLen = 280

// Atomizer classifies tasks as atomic or complex using structural
// heuristics. It has no side effects and no failure mode: malformed input is
// classified atomic and routed to the echo executor.
type Atomizer struct{}

func NewAtomizer() *Atomizer {
	return &Atomizer{}
}

// Classify decides whether a task is directly executable or needs planning.
func (a *Atomizer) Classify(t Task) Kind {
	// A recognized agent hint is always directly executable.
	if knownStage(t.Stage) {
		return KindAtomic
	}

	desc := strings.ToLower(t.Description)
	for _, kw := range multiStepKeywords {
		if strings.Contains(desc, kw) {
			return KindComplex
		}
	}

	// A flat metrics payload with no hint and no multi-step wording is a
	// full weekly dataset: analyzing it spans several domains.
	if countMetricFields(t.Payload) >= 2 {
		return KindComplex
	}

	if len(t.Description) > maxAtomicTextLen {
		return KindComplex
	}

	return KindAtomic
}

// Route picks the executor stage for an atomic task. Tasks whose hint is
// unrecognized are matched on description keywords; anything unroutable goes
// to the echo executor so classification never errors.
func (a *Atomizer) Route(t Task) Stage {
	if knownStage(t.Stage) {
		return t.Stage
	}

	desc := strings.ToLower(t.Description)
	switch {
	case strings.Contains(desc, "ingest") || strings.Contains(desc, "validat"):
		return StageIngest
	case strings.Contains(desc, "metric") || strings.Contains(desc, "calculat"):
		return StageMetrics
	case strings.Contains(desc, "coach") || strings.Contains(desc, "advice"):
		return StageCoach
	case strings.Contains(desc, "report") || strings.Contains(desc, "summary"):
		return StageReport
	}

	if strings.TrimSpace(t.Description) == "" && len(t.Payload) == 0 {
		return StageEcho
	}
	if countMetricFields(t.Payload) > 0 {
		return StageMetrics
	}
	if strings.TrimSpace(t.Description) != "" {
		return StageCoach
	}
	return StageEcho
}

func knownStage(s Stage) bool {
	switch s {
	case StageIngest, StageMetrics, StageCoach, StageReport, StageEcho:
		return true
	}
	return false
}

func countMetricFields(payload map[string]any) int {
	n := 0
	for _, f := range metricFields {
		if _, ok := payload[f]; ok {
			n++
		}
	}
	return n
}
