package roma

import (
	"context"
	"errors"
	"sync"
	"time"
)

// stubModel is a deterministic Completer for fallback-path testing.
type stubModel struct {
	mu    sync.Mutex
	reply string
	err   error
	calls int
}

func (s *stubModel) Complete(ctx context.Context, system, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

var errGatewayDown = errors.New("model gateway: connection refused")

func newTestRegistry(model Completer) *Registry {
	reg := NewRegistry()
	reg.Register(NewIngestExecutor())
	reg.Register(NewMetricsExecutor(model))
	reg.Register(NewCoachExecutor(model))
	report := NewReportExecutor()
	report.Now = func() time.Time { return time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC) }
	reg.Register(report)
	reg.Register(NewEchoExecutor())
	return reg
}

func newTestSolver(model Completer) *Solver {
	runner := NewRunner(newTestRegistry(model), NewAtomizer(), 4)
	return NewSolver(runner, nil)
}

func weeklyPayload() map[string]any {
	return map[string]any{
		"steps":        float64(72000),
		"sleep_hours":  float64(49),
		"workouts":     float64(4),
		"water_liters": float64(14),
	}
}

func weeklyTask(payload map[string]any) Task {
	return NewTask(KindComplex, "", "Comprehensive weekly health analysis with personalized insights and recommendations", payload)
}
