package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nataliehogg/los-proof-of-concept/internal/config"
	"github.com/nataliehogg/los-proof-of-concept/internal/domain"
	"github.com/nataliehogg/los-proof-of-concept/internal/service"
)

type RunHandler struct {
	svc *service.RunService
}

func NewRunHandler(svc *service.RunService) *RunHandler {
	return &RunHandler{svc: svc}
}

type createRunRequest struct {
	CatalogueID string   `json:"catalogue_id"`
	ZObs        float64  `json:"z_obs"`
	ZLens       float64  `json:"z_lens"`
	ZSource     float64  `json:"z_source"`
	KappaMax    *float64 `json:"kappa_max"`
	DelMax      *float64 `json:"del_max"`
	H0          float64  `json:"h0,omitempty"`
	OmegaM      float64  `json:"omega_m,omitempty"`
}

// Create executes a pipeline run. The cut thresholds are mandatory
// request fields; the cosmology falls back to configured defaults.
func (h *RunHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	catalogueID, err := uuid.Parse(req.CatalogueID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid catalogue_id")
		return
	}
	if req.KappaMax == nil || req.DelMax == nil {
		writeError(w, http.StatusBadRequest, "kappa_max and del_max are required")
		return
	}

	params := domain.RunParams{
		ZObs:     req.ZObs,
		ZLens:    req.ZLens,
		ZSource:  req.ZSource,
		KappaMax: *req.KappaMax,
		DelMax:   *req.DelMax,
		H0:       req.H0,
		OmegaM:   req.OmegaM,
	}
	if params.H0 == 0 {
		params.H0 = config.HubbleH0()
	}
	if params.OmegaM == 0 {
		params.OmegaM = config.OmegaM()
	}

	run, err := h.svc.Execute(r.Context(), catalogueID, params)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCatalogueNotFound):
			writeError(w, http.StatusNotFound, "catalogue not found")
		case errors.Is(err, domain.ErrInvalidCatalogue):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrRedshiftOrdering),
			errors.Is(err, domain.ErrNumericDegeneracy):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to execute run")
		}
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (h *RunHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (h *RunHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	rec, err := h.svc.Result(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run result not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

func (h *RunHandler) SurvivingHaloes(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	haloes, err := h.svc.SurvivingHaloes(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load surviving haloes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"haloes": haloes, "count": len(haloes)})
}
