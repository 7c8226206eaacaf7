package roma

import (
	"context"
	"fmt"
)

const coachSystemPrompt = `You are a supportive health and wellness coach.
Give personalized, actionable advice with realistic expectations. Be warm and
evidence-based, avoid medical diagnosis, and do not echo the request.`

// CoachExecutor asks the model for personalized advice conditioned on the
// metrics step. On gateway failure it returns rule-based tips selected by
// thresholds on the deterministic scores.
type CoachExecutor struct {
	Model Completer
}

func NewCoachExecutor(model Completer) *CoachExecutor {
	return &CoachExecutor{Model: model}
}

func (e *CoachExecutor) Stage() Stage { return StageCoach }

func (e *CoachExecutor) Run(ctx context.Context, t Task, rc Context) StepResult {
	message := payloadString(t.Payload, "message")
	if message == "" {
		message = t.Description
	}
	if message == "" {
		message = "Weekly health coaching"
	}

	metrics := rc.Output(StageMetrics)
	prompt := fmt.Sprintf("Request: %s", message)
	if metrics != nil {
		prompt += fmt.Sprintf("\nComputed metrics: scores=%v averages=%v",
			metrics["scores"], metrics["averages"])
	}

	res := StepResult{
		TaskID: t.ID,
		Stage:  StageCoach,
		Status: StatusOK,
	}

	reply, err := e.Model.Complete(ctx, coachSystemPrompt, prompt)
	switch {
	case err != nil:
		res.Status = StatusFallback
		res.ErrorKind = ErrKindTransport
		res.Error = err.Error()
		res.Output = map[string]any{
			"advice": "Here are this week's focus areas based on your numbers.",
			"tips":   e.ruleBasedTips(metrics, t.Payload),
			"source": "rules",
		}
	case lowValueReply(reply):
		res.Status = StatusFallback
		res.Error = "model reply judged low-value"
		res.Output = map[string]any{
			"advice": "Here are this week's focus areas based on your numbers.",
			"tips":   e.ruleBasedTips(metrics, t.Payload),
			"source": "rules",
		}
	default:
		res.Output = map[string]any{
			"advice": reply,
			"source": "model",
		}
	}

	return res
}

// ruleBasedTips selects up to three tips by threshold on the deterministic
// averages, topping up from generic tips so the caller always gets three.
func (e *CoachExecutor) ruleBasedTips(metrics map[string]any, payload map[string]any) []string {
	averages := map[string]any{}
	if metrics != nil {
		if a, ok := metrics["averages"].(map[string]any); ok {
			averages = a
		}
	}

	dailySteps, haveSteps := payloadFloat(averages, "daily_steps")
	dailySleep, haveSleep := payloadFloat(averages, "daily_sleep")
	workouts, haveWorkouts := payloadFloat(payload, "workouts")
	dailyWater, haveWater := payloadFloat(averages, "daily_water")

	var tips []string
	if haveSteps && dailySteps < 10000 {
		tips = append(tips, "Add a 15-20 minute brisk walk after lunch to close the step gap.")
	}
	if haveSleep && dailySleep < 7 {
		tips = append(tips, "Move bedtime earlier by about 30 minutes to reach 7-8h per night.")
	}
	if haveWorkouts && workouts < 3 {
		tips = append(tips, "Block 3 workouts in your calendar to build consistency.")
	}
	if haveWater && dailyWater < 2 {
		tips = append(tips, "Keep a bottle at your desk and aim for 2L of water per day.")
	}

	generic := []string{
		"Keep consistent bed and wake times.",
		"Add 5-10 minutes of mobility work after workouts.",
		"Take a short walk after meals when possible.",
	}
	for _, g := range generic {
		if len(tips) >= 3 {
			break
		}
		tips = append(tips, g)
	}
	return tips[:3]
}
