package roma

import "testing"

func TestAtomizerClassify(t *testing.T) {
	a := NewAtomizer()

	cases := []struct {
		name string
		task Task
		want Kind
	}{
		{
			name: "stage hint is atomic",
			task: Task{Stage: StageMetrics, Payload: weeklyPayload()},
			want: KindAtomic,
		},
		{
			name: "full metrics payload without hint is complex",
			task: Task{Description: "weekly numbers", Payload: weeklyPayload()},
			want: KindComplex,
		},
		{
			name: "multi-step wording is complex",
			task: Task{Description: "Summarize my sleep and then suggest a new routine"},
			want: KindComplex,
		},
		{
			name: "comprehensive analysis is complex",
			task: Task{Description: "Comprehensive weekly health analysis", Payload: map[string]any{"steps": float64(100)}},
			want: KindComplex,
		},
		{
			name: "short free text is atomic",
			task: Task{Description: "How much water should I drink?"},
			want: KindAtomic,
		},
		{
			name: "empty malformed task is atomic",
			task: Task{},
			want: KindAtomic,
		},
		{
			name: "single metric field without keywords is atomic",
			task: Task{Description: "steps check", Payload: map[string]any{"steps": float64(-5)}},
			want: KindAtomic,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := a.Classify(c.task); got != c.want {
				t.Errorf("Classify() = %s, want %s", got, c.want)
			}
		})
	}
}

func TestAtomizerRoute(t *testing.T) {
	a := NewAtomizer()

	cases := []struct {
		name string
		task Task
		want Stage
	}{
		{"hint wins", Task{Stage: StageReport}, StageReport},
		{"ingest keyword", Task{Description: "Validate the incoming data"}, StageIngest},
		{"metrics keyword", Task{Description: "Calculate daily averages"}, StageMetrics},
		{"coach keyword", Task{Description: "Give me advice on sleep"}, StageCoach},
		{"report keyword", Task{Description: "Write a summary of the week"}, StageReport},
		{"empty task goes to echo", Task{}, StageEcho},
		{"metric payload without text goes to metrics", Task{Payload: map[string]any{"steps": float64(10)}}, StageMetrics},
		{"plain free text goes to coach", Task{Description: "I feel tired lately"}, StageCoach},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := a.Route(c.task); got != c.want {
				t.Errorf("Route() = %s, want %s", got, c.want)
			}
		})
	}
}
