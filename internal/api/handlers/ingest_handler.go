package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/services"
)

type IngestHandler struct {
	svc *services.IngestService
}

func NewIngestHandler(svc *services.IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type datasetRequest struct {
	Path string `json:"path"`
}

// Analyze runs the pre-flight structure analysis for one dataset.
func (h *IngestHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "invalid request: path required", http.StatusBadRequest)
		return
	}

	report, err := h.svc.Analyze(r.Context(), req.Path)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrStructural) || errors.Is(err, core.ErrUnitMismatch) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, fmt.Sprintf("analysis failed: %v", err), status)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// StartIngest schedules an ingestion run and returns its handle.
func (h *IngestHandler) StartIngest(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "invalid request: path required", http.StatusBadRequest)
		return
	}

	runID, err := h.svc.StartIngest(req.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("ingest failed to start: %v", err), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// GetRun reports the status and summary of one run.
func (h *IngestHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	status, ok := h.svc.GetRun(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// CancelRun signals a running ingestion to stop between chunks.
func (h *IngestHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	if !h.svc.CancelRun(runID) {
		http.Error(w, "run not found or not running", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"run_id": runID, "status": "cancelling"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
