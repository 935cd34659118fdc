package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/service"
)

type CatalogueHandler struct {
	svc *service.CatalogueService
}

func NewCatalogueHandler(svc *service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{svc: svc}
}

type createCatalogueRequest struct {
	Haloes []domain.Halo `json:"haloes"`
}

func (h *CatalogueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCatalogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.Create(r.Context(), req.Haloes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCatalogueEmpty),
			errors.Is(err, domain.ErrInvalidCatalogue):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to store catalogue")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (h *CatalogueHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid catalogue id")
		return
	}

	rec, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCatalogueNotFound) {
			writeError(w, http.StatusNotFound, "catalogue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load catalogue")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *CatalogueHandler) Haloes(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid catalogue id")
		return
	}

	haloes, err := h.svc.Haloes(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCatalogueNotFound) {
			writeError(w, http.StatusNotFound, "catalogue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load haloes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"haloes": haloes, "count": len(haloes)})
}
