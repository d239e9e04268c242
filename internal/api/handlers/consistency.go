package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voxpopai/personacore/internal/consistency"
)

type ConsistencyHandler struct {
	ctrl *consistency.Controller
}

func NewConsistencyHandler(ctrl *consistency.Controller) *ConsistencyHandler {
	return &ConsistencyHandler{ctrl: ctrl}
}

func (h *ConsistencyHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	writeJSON(w, http.StatusOK, h.ctrl.ConsistencyReport(id))
}
