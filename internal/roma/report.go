package roma

import (
	"context"
	"fmt"
	"time"
)

const insufficientData = "insufficient data"

// ReportExecutor assembles the weekly report from the outputs of the prior
// three steps. Pure aggregation, no external call: a missing upstream output
// becomes an "insufficient data" placeholder, never an error.
type ReportExecutor struct {
	// Now is injectable so report output stays deterministic under test.
	Now func() time.Time
}

func NewReportExecutor() *ReportExecutor {
	return &ReportExecutor{Now: time.Now}
}

func (e *ReportExecutor) Stage() Stage { return StageReport }

func (e *ReportExecutor) Run(ctx context.Context, t Task, rc Context) StepResult {
	summary := map[string]any{}
	var missing []string

	if ing := rc.Output(StageIngest); ing != nil {
		summary["data_quality"] = ing["data_quality"]
		summary["normalized"] = ing["normalized"]
	} else {
		summary["data_quality"] = insufficientData
		missing = append(missing, string(StageIngest))
	}

	var narrative string
	if met := rc.Output(StageMetrics); met != nil {
		summary["scores"] = met["scores"]
		summary["averages"] = met["averages"]
		summary["health_score"] = met["health_score"]
		if s, ok := met["insight"].(string); ok {
			narrative = s
		}
	} else {
		summary["scores"] = insufficientData
		summary["health_score"] = insufficientData
		missing = append(missing, string(StageMetrics))
	}

	if coach := rc.Output(StageCoach); coach != nil {
		summary["coaching"] = coach["advice"]
		if tips, ok := coach["tips"]; ok {
			summary["tips"] = tips
		}
	} else {
		summary["coaching"] = insufficientData
		missing = append(missing, string(StageCoach))
	}

	if narrative == "" {
		narrative = "Weekly health report assembled from available data."
	}

	out := map[string]any{
		"summary":      summary,
		"narrative":    narrative,
		"generated_at": e.Now().UTC().Format(time.RFC3339),
	}

	res := StepResult{
		TaskID: t.ID,
		Stage:  StageReport,
		Status: StatusOK,
		Output: out,
	}
	if len(missing) > 0 {
		res.Status = StatusFallback
		res.ErrorKind = ErrKindValidation
		res.Error = fmt.Sprintf("missing upstream output: %v", missing)
	}
	return res
}
