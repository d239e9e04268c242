package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voxpopai/personacore/internal/domain"
	"github.com/voxpopai/personacore/internal/service"
)

type PersonaHandler struct {
	svc *service.PersonaService
}

func NewPersonaHandler(svc *service.PersonaService) *PersonaHandler {
	return &PersonaHandler{svc: svc}
}

type createPersonaRequest struct {
	Name    string                  `json:"name"`
	Survey  *domain.SurveyResponses `json:"survey,omitempty"`
	Segment string                  `json:"segment,omitempty"`
	Axes    map[string]float64      `json:"axes,omitempty"`
}

type personaResponse struct {
	*domain.Persona
	Traits domain.TraitScores `json:"traits"`
}

func (h *PersonaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		persona *domain.Persona
		err     error
	)
	switch {
	case req.Survey != nil:
		persona, err = h.svc.CreateFromSurvey(r.Context(), req.Name, *req.Survey)
	case req.Segment != "":
		persona, err = h.svc.CreateFromSegment(r.Context(), req.Name, req.Segment, segmentData(req.Axes))
	default:
		writeError(w, http.StatusBadRequest, service.ErrNoSourceData.Error())
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPersonaNameEmpty), errors.Is(err, service.ErrNoSourceData):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create persona")
		}
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(persona))
}

func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	persona, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) {
			writeError(w, http.StatusNotFound, "persona not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch persona")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(persona))
}

func (h *PersonaHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	personas, err := h.svc.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list personas")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"personas": personas,
		"count":    len(personas),
	})
}

type rebuildPersonaRequest struct {
	Survey domain.SurveyResponses `json:"survey"`
}

func (h *PersonaHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	var req rebuildPersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	persona, err := h.svc.RebuildFromSurvey(r.Context(), id, req.Survey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPersonaNotFound):
			writeError(w, http.StatusNotFound, "persona not found")
		case errors.Is(err, service.ErrNoSourceData):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to rebuild persona")
		}
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(persona))
}

func (h *PersonaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid persona id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrPersonaNotFound) {
			writeError(w, http.StatusNotFound, "persona not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete persona")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *PersonaHandler) toResponse(p *domain.Persona) personaResponse {
	return personaResponse{Persona: p, Traits: h.svc.DecodeTraits(p)}
}

func segmentData(axes map[string]float64) domain.SegmentData {
	if len(axes) == 0 {
		return nil
	}
	data := make(domain.SegmentData, len(axes))
	for name, value := range axes {
		data[domain.DomainAxis(name)] = value
	}
	return data
}
