package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voxpopai/personacore/internal/memory"
)

type MemoryHandler struct {
	mem *memory.Hierarchical
}

func NewMemoryHandler(mem *memory.Hierarchical) *MemoryHandler {
	return &MemoryHandler{mem: mem}
}

func (h *MemoryHandler) Context(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	candidates := h.mem.GetRelevantContext(r.Context(), id, query, limit)

	writeJSON(w, http.StatusOK, map[string]any{
		"persona_id": id,
		"context":    candidates,
		"count":      len(candidates),
	})
}

func (h *MemoryHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	profile := h.mem.ExtractProfile(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]any{
		"persona_id": id,
		"profile":    profile,
	})
}

func (h *MemoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	h.mem.ClearPersonaMemory(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
