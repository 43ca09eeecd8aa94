package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/services"
	"github.com/seismostack/hazview/internal/store"
)

// fakeCore backs the whole dashboard for handler tests.
type fakeCore struct{}

func (fakeCore) SiteParams(_ context.Context, _ string, _ models.Location) (models.SiteParams, error) {
	return models.SiteParams{Station: "CCCC", Vs30: 250}, nil
}

func (fakeCore) IMCatalog(_ context.Context, _, _ string) ([]models.IM, error) {
	return []models.IM{"PGA", "pSA_0.5"}, nil
}

func (fakeCore) SoilClasses(_ context.Context, _ string) ([]models.SoilClass, error) {
	return []models.SoilClass{{Code: "C"}}, nil
}

func (fakeCore) GMDatasets(_ context.Context, _ string) ([]models.GMDataset, error) {
	return []models.GMDataset{{ID: "nga_west_2"}}, nil
}

func (fakeCore) HazardCurve(_ context.Context, _, _, _ string, im models.IM) (*models.HazardResult, error) {
	return &models.HazardResult{
		IM:            string(im),
		IMValues:      []float64{0.1, 0.2},
		Total:         []float64{0.02, 0.01},
		DownloadToken: "tok-hazard",
	}, nil
}

func (fakeCore) NZCodeCurves(_ context.Context, _, _, _ string, _ models.IM) (*models.NZCodeResult, error) {
	return &models.NZCodeResult{}, nil
}

func (fakeCore) Disaggregation(_ context.Context, _, _, _ string, im models.IM, exceedance float64) (*models.DisaggResult, error) {
	return &models.DisaggResult{IM: string(im), ExceedanceRate: exceedance}, nil
}

func (fakeCore) UHS(_ context.Context, _, _, _ string, _ []float64) (*models.UHSResult, error) {
	return &models.UHSResult{Spectra: map[string]map[string]float64{"0.002": {"PGA": 0.3}}}, nil
}

func (fakeCore) ComputeGMS(_ context.Context, _ string, _ models.GMSRequest) (*models.GMSResult, error) {
	return nil, io.EOF
}

func (fakeCore) Scenario(_ context.Context, _, _, _ string) (*models.ScenarioResult, error) {
	return &models.ScenarioResult{IMs: []string{"PGA"}}, nil
}

func (fakeCore) Download(_ context.Context, _, capability string, _ []string) (io.ReadCloser, string, error) {
	return io.NopCloser(strings.NewReader("blob")), capability + ".zip", nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	core := fakeCore{}
	dashboard := services.NewDashboard(logger, core, services.Stores{
		Site:     store.NewSiteStore(logger, core),
		Hazard:   store.NewHazardStore(logger, core),
		Disagg:   store.NewDisaggStore(logger, core),
		UHS:      store.NewUHSStore(logger, core),
		GMS:      store.NewGMSStore(logger, core),
		Scenario: store.NewScenarioStore(logger, core),
	})
	handlers := NewHandlers(logger, dashboard, "X-Permissions")
	mux := http.NewServeMux()
	handlers.Register(mux)
	return handlers.middleware(mux)
}

func doRequest(t *testing.T, handler http.Handler, method, path, perms, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer session-token")
	if perms != "" {
		req.Header.Set("X-Permissions", perms)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMissingBearerTokenRejected(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/site", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealthNeedsNoToken(t *testing.T) {
	handler := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestMissingPermissionForbidden(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/hazard/compute", "uhs:view", `{"im":"PGA"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestComputeBeforeSiteConflicts(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/hazard/compute", "hazard:view", `{"im":"PGA"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestSiteSelectThenHazardCompute(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/site/select", "site:select",
		`{"lat":-43.53,"lon":172.63,"ensemble_id":"ens_v20"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("site select = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/hazard/compute", "hazard:view", `{"im":"PGA"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("hazard compute = %d: %s", rec.Code, rec.Body.String())
	}
	var snap store.HazardSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.State != store.StateSucceeded || snap.IM != "PGA" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestMalformedIMRejected(t *testing.T) {
	handler := newTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/api/v1/site/select", "site:select",
		`{"lat":-43.53,"lon":172.63,"ensemble_id":"ens_v20"}`)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/hazard/compute", "hazard:view", `{"im":"pSA_x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGMSComputeRequiresCompleteRequest(t *testing.T) {
	handler := newTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/api/v1/site/select", "site:select",
		`{"lat":-43.53,"lon":172.63,"ensemble_id":"ens_v20"}`)

	rec := doRequest(t, handler, http.MethodPut, "/api/v1/gms/request", "gms:compute",
		`{"IM_j":"pSA_0.5","IMs":["PGA"],"im_level":0.35,"n_gms":0,"n_replica":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("stage = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/gms/compute", "gms:compute", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestDownloadWithoutResultNotFound(t *testing.T) {
	handler := newTestHandler(t)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/download/hazard", "data:download", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDownloadStreamsAttachment(t *testing.T) {
	handler := newTestHandler(t)
	doRequest(t, handler, http.MethodPost, "/api/v1/site/select", "site:select",
		`{"lat":-43.53,"lon":172.63,"ensemble_id":"ens_v20"}`)
	doRequest(t, handler, http.MethodPost, "/api/v1/hazard/compute", "hazard:view", `{"im":"PGA"}`)

	rec := doRequest(t, handler, http.MethodGet, "/api/v1/download/hazard", "data:download", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "hazard.zip") {
		t.Fatalf("content disposition = %q", got)
	}
	if rec.Body.String() != "blob" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
