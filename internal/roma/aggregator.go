package roma

// stagePlaceholders are the merged-output substitutes for stages that failed
// or never produced usable output.
var stagePlaceholders = map[Stage]string{
	StageIngest:  "ingestion unavailable",
	StageMetrics: "metrics unavailable",
	StageCoach:   "coaching unavailable",
	StageReport:  "report unavailable",
}

// mergedField maps a stage to its merged-output key.
var mergedField = map[Stage]string{
	StageIngest:  "ingestion",
	StageMetrics: "metrics",
	StageCoach:   "coaching",
	StageReport:  "report",
}

// Aggregator merges step results into one structured output. It is the last
// line of defense: it produces a response for every combination of step
// outcomes and never returns an error.
type Aggregator struct{}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate applies the fallback policy: ok when all steps succeeded,
// degraded when any step fell back or failed but usable output exists,
// failed only when nothing usable remains.
func (a *Aggregator) Aggregate(steps []StepResult) AggregateResult {
	merged := make(map[string]any, len(mergedField))

	allOK := len(steps) > 0
	anyUsable := false
	for _, s := range steps {
		if s.Status != StatusOK {
			allOK = false
		}
		if s.Usable() {
			anyUsable = true
		}

		field, ok := mergedField[s.Stage]
		if !ok {
			continue
		}
		if _, taken := merged[field]; taken {
			continue // first usable output per stage wins
		}
		if s.Usable() {
			merged[field] = s.Output
		}
	}

	// Every pipeline stage gets a field, placeholder when nothing usable.
	for stage, field := range mergedField {
		if _, ok := merged[field]; !ok {
			merged[field] = stagePlaceholders[stage]
		}
	}

	// Outputs from stages outside the fixed pipeline (echo, free-form
	// steps) are surfaced as an ordered list.
	var extra []map[string]any
	for _, s := range steps {
		if _, ok := mergedField[s.Stage]; ok {
			continue
		}
		if s.Usable() {
			extra = append(extra, s.Output)
		}
	}
	if len(extra) > 0 {
		merged["extra"] = extra
	}

	status := OverallFailed
	switch {
	case allOK:
		status = OverallOK
	case anyUsable:
		status = OverallDegraded
	}

	return AggregateResult{
		Status:            status,
		MergedOutput:      merged,
		ContributingSteps: steps,
	}
}
