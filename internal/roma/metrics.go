package roma

import (
	"context"
	"fmt"
	"math"
)

const metricsSystemPrompt = `You are a health metrics analyst. Provide a short,
data-driven interpretation of weekly health metrics. Focus on objective
analysis, avoid medical advice, and do not repeat the input.`

// MetricsExecutor computes deterministic weekly scores and averages, then
// optionally asks the model for a natural-language interpretation. The
// deterministic part always succeeds, so this step is never failed.
type MetricsExecutor struct {
	Model Completer
}

func NewMetricsExecutor(model Completer) *MetricsExecutor {
	return &MetricsExecutor{Model: model}
}

func (e *MetricsExecutor) Stage() Stage { return StageMetrics }

func (e *MetricsExecutor) Run(ctx context.Context, t Task, rc Context) StepResult {
	data := t.Payload
	if ing := rc.Output(StageIngest); ing != nil {
		if norm, ok := ing["normalized"].(map[string]any); ok {
			data = norm
		}
	}

	steps, _ := payloadFloat(data, "steps")
	sleepHours, _ := payloadFloat(data, "sleep_hours")
	workouts, _ := payloadFloat(data, "workouts")
	waterLiters, _ := payloadFloat(data, "water_liters")

	// Weekly targets: 10k steps/day, 8h sleep/day, 2L water/day.
	activity := math.Min(100, steps/10000*100+workouts*15)
	hydration := math.Min(100, waterLiters/14.0*100)
	sleep := math.Min(100, sleepHours/56.0*100)
	overall := (activity + hydration + sleep) / 3

	scores := map[string]any{
		"activity":  round1(activity),
		"hydration": round1(hydration),
		"sleep":     round1(sleep),
		"overall":   round1(overall),
	}
	averages := map[string]any{
		"daily_steps": round1(steps / 7),
		"daily_sleep": round1(sleepHours / 7),
		"daily_water": round1(waterLiters / 7),
	}

	out := map[string]any{
		"scores":       scores,
		"averages":     averages,
		"health_score": round1(overall),
	}

	res := StepResult{
		TaskID: t.ID,
		Stage:  StageMetrics,
		Status: StatusOK,
		Output: out,
	}

	prompt := fmt.Sprintf(
		"Interpret these weekly health metrics.\nDaily steps avg: %.1f\nDaily sleep avg: %.1fh\nWorkouts: %.0f\nWater: %.1f L/week\nActivity score: %.1f, sleep score: %.1f, hydration score: %.1f, overall: %.1f",
		steps/7, sleepHours/7, workouts, waterLiters,
		activity, sleep, hydration, overall,
	)

	reply, err := e.Model.Complete(ctx, metricsSystemPrompt, prompt)
	switch {
	case err != nil:
		res.Status = StatusFallback
		res.ErrorKind = ErrKindTransport
		res.Error = err.Error()
		out["insight"] = e.templatedInsight(overall, averages)
	case lowValueReply(reply):
		res.Status = StatusFallback
		res.Error = "model reply judged low-value"
		out["insight"] = e.templatedInsight(overall, averages)
	default:
		out["insight"] = reply
	}

	return res
}

// templatedInsight is the deterministic substitute narrative.
func (e *MetricsExecutor) templatedInsight(overall float64, averages map[string]any) string {
	return fmt.Sprintf(
		"Weekly overall score %.1f/100. Daily averages: %v steps, %vh sleep, %vL water.",
		overall, averages["daily_steps"], averages["daily_sleep"], averages["daily_water"],
	)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
