package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/seismostack/hazview/internal/auth"
	"github.com/seismostack/hazview/internal/gms"
	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/repo"
	"github.com/seismostack/hazview/internal/services"
	"github.com/seismostack/hazview/internal/store"
	"github.com/seismostack/hazview/internal/utils"
)

// Handlers implements the dashboard's HTTP endpoints.
type Handlers struct {
	logger            *slog.Logger
	dashboard         *services.Dashboard
	permissionsHeader string
}

// NewHandlers constructs the endpoint set.
func NewHandlers(logger *slog.Logger, dashboard *services.Dashboard, permissionsHeader string) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if permissionsHeader == "" {
		permissionsHeader = "X-Permissions"
	}
	return &Handlers{logger: logger, dashboard: dashboard, permissionsHeader: permissionsHeader}
}

// Register attaches every endpoint to the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/v1/stats", h.stats)

	mux.HandleFunc("GET /api/v1/site", h.siteSnapshot)
	mux.HandleFunc("POST /api/v1/site/select", h.requirePerm(auth.PermSiteSelect, h.selectSite))

	mux.HandleFunc("GET /api/v1/hazard", h.requirePerm(auth.PermHazardView, h.hazardSnapshot))
	mux.HandleFunc("POST /api/v1/hazard/compute", h.requirePerm(auth.PermHazardView, h.computeHazard))

	mux.HandleFunc("GET /api/v1/disagg", h.requirePerm(auth.PermDisaggView, h.disaggSnapshot))
	mux.HandleFunc("POST /api/v1/disagg/compute", h.requirePerm(auth.PermDisaggView, h.computeDisagg))

	mux.HandleFunc("GET /api/v1/uhs", h.requirePerm(auth.PermUHSView, h.uhsSnapshot))
	mux.HandleFunc("POST /api/v1/uhs/compute", h.requirePerm(auth.PermUHSView, h.computeUHS))

	mux.HandleFunc("GET /api/v1/gms", h.requirePerm(auth.PermGMSCompute, h.gmsSnapshot))
	mux.HandleFunc("PUT /api/v1/gms/request", h.requirePerm(auth.PermGMSCompute, h.stageGMS))
	mux.HandleFunc("POST /api/v1/gms/compute", h.requirePerm(auth.PermGMSCompute, h.computeGMS))

	mux.HandleFunc("GET /api/v1/scenario", h.requirePerm(auth.PermScenarioView, h.scenarioSnapshot))
	mux.HandleFunc("POST /api/v1/scenario/compute", h.requirePerm(auth.PermScenarioView, h.computeScenario))

	mux.HandleFunc("GET /api/v1/download/{capability}", h.requirePerm(auth.PermDataDownload, h.download))
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"compute_p95_ms": h.dashboard.LatencyP95().Milliseconds(),
	})
}

func (h *Handlers) siteSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.SiteSnapshot())
}

func (h *Handlers) selectSite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lat        float64 `json:"lat"`
		Lon        float64 `json:"lon"`
		EnsembleID string  `json:"ensemble_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.EnsembleID == "" {
		writeError(w, http.StatusBadRequest, "ensemble_id is required")
		return
	}
	loc := models.Location{Lat: req.Lat, Lon: req.Lon}
	if err := h.dashboard.SelectSite(r.Context(), sessionToken(r.Context()), loc, req.EnsembleID); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.SiteSnapshot())
}

func (h *Handlers) hazardSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.HazardSnapshot())
}

func (h *Handlers) computeHazard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IM models.IM `json:"im"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.IM.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed IM %q", req.IM))
		return
	}
	if err := h.dashboard.ComputeHazard(r.Context(), sessionToken(r.Context()), req.IM); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.HazardSnapshot())
}

func (h *Handlers) disaggSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.DisaggSnapshot())
}

func (h *Handlers) computeDisagg(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IM             models.IM `json:"im"`
		ExceedanceRate float64   `json:"exceedance_rate"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.IM.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed IM %q", req.IM))
		return
	}
	if req.ExceedanceRate <= 0 {
		writeError(w, http.StatusBadRequest, "exceedance_rate must be positive")
		return
	}
	if err := h.dashboard.ComputeDisagg(r.Context(), sessionToken(r.Context()), req.IM, req.ExceedanceRate); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.DisaggSnapshot())
}

func (h *Handlers) uhsSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.UHSSnapshot())
}

func (h *Handlers) computeUHS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rates []float64 `json:"rates"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Rates) == 0 {
		writeError(w, http.StatusBadRequest, "at least one exceedance rate is required")
		return
	}
	for _, rate := range req.Rates {
		if rate <= 0 {
			writeError(w, http.StatusBadRequest, "exceedance rates must be positive")
			return
		}
	}
	if err := h.dashboard.ComputeUHS(r.Context(), sessionToken(r.Context()), req.Rates); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.UHSSnapshot())
}

func (h *Handlers) gmsSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.GMSSnapshot())
}

func (h *Handlers) stageGMS(w http.ResponseWriter, r *http.Request) {
	var req models.GMSRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.dashboard.StageGMSRequest(req); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.GMSSnapshot())
}

func (h *Handlers) computeGMS(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.GMSSnapshot().Request.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.dashboard.ComputeGMS(r.Context(), sessionToken(r.Context())); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.GMSSnapshot())
}

func (h *Handlers) scenarioSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.dashboard.ScenarioSnapshot())
}

func (h *Handlers) computeScenario(w http.ResponseWriter, r *http.Request) {
	if err := h.dashboard.ComputeScenario(r.Context(), sessionToken(r.Context())); err != nil {
		h.writeComputeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.dashboard.ScenarioSnapshot())
}

func (h *Handlers) download(w http.ResponseWriter, r *http.Request) {
	capability := r.PathValue("capability")
	body, filename, err := h.dashboard.Download(r.Context(), sessionToken(r.Context()), capability)
	if err != nil {
		if errors.Is(err, services.ErrNoDownload) {
			writeError(w, http.StatusNotFound, "no result available to download")
			return
		}
		h.writeComputeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("download stream interrupted", slog.Any("error", err))
	}
}

// writeComputeError maps service failures onto HTTP responses. Superseded and
// cancelled computes are no-ops reported as a conflict, never as failures.
func (h *Handlers) writeComputeError(w http.ResponseWriter, err error) {
	var verr *gms.ValidationError
	var serr *repo.StatusError
	var aerr *utils.AppError
	switch {
	case errors.Is(err, services.ErrNoSite):
		writeError(w, http.StatusConflict, "no site selected")
	case errors.Is(err, store.ErrSuperseded), errors.Is(err, context.Canceled):
		writeJSON(w, http.StatusConflict, map[string]string{"status": "superseded"})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Error(),
			"code":  string(verr.Code),
		})
	case errors.As(err, &serr):
		if serr.Code == http.StatusBadRequest {
			writeError(w, http.StatusBadRequest, "core api rejected the request")
			return
		}
		writeError(w, http.StatusBadGateway, "core api error")
	case errors.As(err, &aerr):
		writeError(w, http.StatusBadRequest, aerr.Msg)
	default:
		h.logger.Error("request failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, out any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
