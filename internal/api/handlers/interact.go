package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/service"
)

type InteractHandler struct {
	svc *service.ResponseService
}

func NewInteractHandler(svc *service.ResponseService) *InteractHandler {
	return &InteractHandler{svc: svc}
}

type interactRequest struct {
	Message string           `json:"message"`
	History []domain.Message `json:"history,omitempty"`
}

func (h *InteractHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	var req interactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	result, err := h.svc.RespondAsPersona(r.Context(), id, req.Message, req.History)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPersonaNotFound):
			writeError(w, http.StatusNotFound, "persona not found")
		case errors.Is(err, service.ErrGenerationFailed):
			writeError(w, http.StatusBadGateway, "text generation failed")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate response")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
