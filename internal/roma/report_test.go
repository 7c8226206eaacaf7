package roma

import (
	"context"
	"strings"
	"testing"
	"time"
)

func fixedReportExecutor() *ReportExecutor {
	e := NewReportExecutor()
	e.Now = func() time.Time { return time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC) }
	return e
}

func TestReportAssemblesUpstreamOutputs(t *testing.T) {
	e := fixedReportExecutor()
	rc := Context{
		StageIngest: {
			"data_quality": "good",
			"normalized":   map[string]any{"steps": float64(72000)},
		},
		StageMetrics: {
			"scores":       map[string]any{"overall": 85.0},
			"averages":     map[string]any{"daily_steps": 10285.7},
			"health_score": 85.0,
			"insight":      "insightful text",
		},
		StageCoach: {
			"advice": "keep it up",
		},
	}

	res := e.Run(context.Background(), NewTask(KindAtomic, StageReport, "", nil), rc)
	if res.Status != StatusOK {
		t.Fatalf("status = %s, want ok (%s)", res.Status, res.Error)
	}

	summary := res.Output["summary"].(map[string]any)
	if summary["health_score"] != 85.0 {
		t.Errorf("health_score = %v, want 85", summary["health_score"])
	}
	if summary["coaching"] != "keep it up" {
		t.Errorf("coaching = %v, want coach advice", summary["coaching"])
	}
	if res.Output["narrative"] != "insightful text" {
		t.Errorf("narrative = %v, want metrics insight", res.Output["narrative"])
	}
}

func TestReportSubstitutesMissingUpstream(t *testing.T) {
	e := fixedReportExecutor()

	res := e.Run(context.Background(), NewTask(KindAtomic, StageReport, "", nil), Context{})
	if res.Status != StatusFallback {
		t.Fatalf("status = %s, want fallback with placeholders, never failed", res.Status)
	}

	summary := res.Output["summary"].(map[string]any)
	for _, field := range []string{"data_quality", "scores", "health_score", "coaching"} {
		if summary[field] != insufficientData {
			t.Errorf("%s = %v, want %q", field, summary[field], insufficientData)
		}
	}
	if !strings.Contains(res.Error, "missing upstream output") {
		t.Errorf("error = %q, should name the missing stages", res.Error)
	}
}
