package server

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/arjun/vita/internal/governance"
	"github.com/arjun/vita/internal/observability"
	"github.com/arjun/vita/internal/roma"
	"github.com/arjun/vita/internal/store"
)

// maxRequestBodySize limits incoming request bodies (1MB).
const maxRequestBodySize = 1 << 20

const weeklyAnalysisDescription = "Comprehensive weekly health analysis with personalized insights and recommendations"

// Engine is the single operation the REST layer consumes from the core.
type Engine interface {
	Solve(ctx context.Context, t roma.Task) roma.AggregateResult
}

// ReportStore is the persistence surface the REST layer needs.
type ReportStore interface {
	SaveReport(payload map[string]any, result roma.AggregateResult) (int64, error)
	ListReports(limit int) ([]store.ReportSummary, error)
	GetReport(id int64) (*store.Report, error)
}

// Handlers contains the HTTP handler methods for the API.
type Handlers struct {
	AppName string
	APIKey  string // empty disables auth
	Engine  Engine
	Store   ReportStore
	Policy  governance.PolicyEngine
	Logger  *observability.Logger
}

func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": h.AppName})
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	dbState := "ok"
	if _, err := h.Store.ListReports(1); err != nil {
		dbState = "unavailable"
	}
	state, _, heartbeat := observability.GetStatus()
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":             true,
		"api":            "running",
		"db":             dbState,
		"engine":         string(state),
		"last_heartbeat": heartbeat,
	})
}

func (h *Handlers) HandleExample(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"steps":        72000,
		"sleep_hours":  49,
		"workouts":     4,
		"water_liters": 14,
	})
}

// HandleAnalyze runs a single-entry metrics analysis as an atomic task.
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readBody(w, r)
	if !ok {
		return
	}

	task := roma.NewTask(roma.KindAtomic, roma.StageMetrics, "Single entry health metrics analysis", payload)
	result := h.solve(r.Context(), task)
	writeJSON(w, http.StatusOK, map[string]any{"analysis": result})
}

// HandleWeeklyReport runs the full recursive analysis and persists the
// aggregate result afterwards.
func (h *Handlers) HandleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	data := body
	if nested, ok := body["data"].(map[string]any); ok {
		data = nested
	}

	task := roma.NewTask(roma.KindComplex, "", weeklyAnalysisDescription, data)
	result := h.solve(r.Context(), task)

	resp := map[string]any{"report": result}
	if id, err := h.Store.SaveReport(data, result); err != nil {
		log.Printf("failed to save report: %v", err)
	} else {
		resp["report_id"] = id
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleChat runs a coaching conversation as an atomic task, after the
// admission policy has cleared the free-form text.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	message := ""
	if m, ok := body["message"].(string); ok {
		message = m
	}

	if h.Policy != nil {
		res, err := h.Policy.Evaluate(r.Context(), governance.Request{Endpoint: "chat", Text: message})
		if err == nil && res.Effect == governance.EffectDeny {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": res.Reason})
			return
		}
	}

	task := roma.NewTask(roma.KindAtomic, roma.StageCoach, "Health coaching conversation", body)
	result := h.solve(r.Context(), task)
	writeJSON(w, http.StatusOK, map[string]any{"reply": result})
}

func (h *Handlers) HandleListReports(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	reports, err := h.Store.ListReports(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []store.ReportSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (h *Handlers) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid report id"})
		return
	}

	report, err := h.Store.GetReport(id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	if report == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// requireKey guards protected endpoints. An unset key disables auth.
func (h *Handlers) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.APIKey != "" && r.Header.Get("X-API-Key") != h.APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid API key"})
			return
		}
		next(w, r)
	}
}

func (h *Handlers) solve(ctx context.Context, task roma.Task) roma.AggregateResult {
	observability.SetStatus(observability.StateSolving, task.Description)
	defer observability.SetStatus(observability.StateIdle, "")
	return h.Engine.Solve(ctx, task)
}

func (h *Handlers) readBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "failed to read request body"})
		return nil, false
	}
	if len(body) > maxRequestBodySize {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "request body too large"})
		return nil, false
	}

	payload := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON"})
			return nil, false
		}
	}
	return payload, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
