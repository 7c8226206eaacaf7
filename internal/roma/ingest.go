package roma

import "context"

// IngestExecutor validates and normalizes the raw weekly payload. Violations
// degrade to zero-filled safe defaults instead of halting the pipeline.
type IngestExecutor struct{}

func NewIngestExecutor() *IngestExecutor {
	return &IngestExecutor{}
}

func (e *IngestExecutor) Stage() Stage { return StageIngest }

func (e *IngestExecutor) Run(ctx context.Context, t Task, rc Context) StepResult {
	normalized := make(map[string]any, len(metricFields))
	var clamped, missing []string

	points := 0
	for _, field := range metricFields {
		v, ok := payloadFloat(t.Payload, field)
		switch {
		case !ok:
			missing = append(missing, field)
			v = 0
		case v < 0:
			clamped = append(clamped, field)
			v = 0
		default:
			points++
		}
		normalized[field] = v
	}

	quality := "good"
	if len(missing) > 0 || len(clamped) > 0 {
		quality = "incomplete"
	}

	out := map[string]any{
		"normalized":   normalized,
		"data_quality": quality,
		"data_points":  points,
	}
	if len(clamped) > 0 {
		out["clamped_fields"] = clamped
	}
	if len(missing) > 0 {
		out["missing_fields"] = missing
	}

	res := StepResult{
		TaskID: t.ID,
		Stage:  StageIngest,
		Status: StatusOK,
		Output: out,
	}
	if quality != "good" {
		res.Status = StatusFallback
		res.ErrorKind = ErrKindValidation
		res.Error = "payload incomplete or out of range, substituted safe defaults"
	}
	return res
}
