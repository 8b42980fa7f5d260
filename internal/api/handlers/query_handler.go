package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Archit1030/FloatChat-AI/internal/core/vectorstore"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

type QueryHandler struct {
	store *vectorstore.Client
}

func NewQueryHandler(store *vectorstore.Client) *QueryHandler {
	return &QueryHandler{store: store}
}

type queryRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type queryResponse struct {
	Query   string            `json:"query"`
	Results []models.Document `json:"results"`
}

// Search returns the top-k semantically nearest measurement documents.
func (h *QueryHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		http.Error(w, "invalid request: query required", http.StatusBadRequest)
		return
	}

	docs, err := h.store.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("search failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Query: req.Query, Results: docs})
}
