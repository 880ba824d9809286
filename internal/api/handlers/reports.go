package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hotelgroup/pnl-sync/internal/api/middleware"
	"github.com/hotelgroup/pnl-sync/internal/jobs"
	"github.com/hotelgroup/pnl-sync/internal/run"
)

// ReportsHandler handles the synchronous report endpoints and the
// asynchronous run queue.
type ReportsHandler struct {
	runner    *run.Runner
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(runner *run.Runner, publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *ReportsHandler {
	return &ReportsHandler{runner: runner, publisher: publisher, store: store, log: log}
}

// Tenants handles GET /tenants.
func (h *ReportsHandler) Tenants(w http.ResponseWriter, r *http.Request) {
	tenants, result, err := h.runner.SyncTenants(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to resolve tenants", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenants":  tenants,
		"count":    result.Rows,
		"run_id":   result.RunID,
		"artifact": result.ArtifactPath,
	})
}

// NetIncome handles GET /net-income.
func (h *ReportsHandler) NetIncome(w http.ResponseWriter, r *http.Request) {
	rows, result, err := h.runner.NetIncome(r.Context())
	if err != nil {
		h.writeRunError(w, "Failed to collect net income", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"rows":     rows,
		"count":    result.Rows,
		"run_id":   result.RunID,
		"artifact": result.ArtifactPath,
	})
}

// ProfitAndLoss handles GET /p-and-l. The full consolidation runs inline,
// which can take a while with many tenants; POST /api/runs is the
// non-blocking alternative.
func (h *ReportsHandler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	_, result, err := h.runner.SyncPnl(r.Context())
	if err != nil {
		h.writeRunError(w, "Profit and loss sync failed", err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "done",
		"rows":     result.Rows,
		"run_id":   result.RunID,
		"artifact": result.ArtifactPath,
	})
}

// CreateRun handles POST /api/runs and enqueues a background run.
func (h *ReportsHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	kind := jobs.RunKind(req.Kind)
	if kind == "" {
		kind = jobs.RunKindPnl
	}
	if kind != jobs.RunKindPnl && kind != jobs.RunKindNetIncome {
		middleware.WriteError(w, http.StatusBadRequest, "Unknown run kind: "+req.Kind)
		return
	}

	job := &jobs.RunJob{Kind: kind}
	if err := h.publisher.PublishRun(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue run")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue run")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, job)
}

// GetRun handles GET /api/runs/{id}.
func (h *ReportsHandler) GetRun(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Run not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs.
func (h *ReportsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := jobs.JobFilter{
		Kind:   jobs.RunKind(r.URL.Query().Get("kind")),
		Status: jobs.JobStatus(r.URL.Query().Get("status")),
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  list,
		"count": len(list),
	})
}

func (h *ReportsHandler) writeRunError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, run.ErrNotAuthenticated) {
		middleware.WriteError(w, http.StatusUnauthorized, "Not authenticated, visit /login first")
		return
	}
	h.log.Error().Err(err).Msg(msg)
	middleware.WriteError(w, http.StatusInternalServerError, msg)
}
