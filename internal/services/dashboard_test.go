package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/store"
)

// fakeCore implements every store client interface plus the downloader, so
// one fake backs the whole dashboard.
type fakeCore struct {
	downloads []string
}

func (f *fakeCore) SiteParams(_ context.Context, _ string, _ models.Location) (models.SiteParams, error) {
	return models.SiteParams{Station: "CCCC", Vs30: 250}, nil
}

func (f *fakeCore) IMCatalog(_ context.Context, _, _ string) ([]models.IM, error) {
	return []models.IM{"PGA", "pSA_0.5", "pSA_1.0"}, nil
}

func (f *fakeCore) SoilClasses(_ context.Context, _ string) ([]models.SoilClass, error) {
	return []models.SoilClass{{Code: "C", Name: "Shallow soil"}}, nil
}

func (f *fakeCore) GMDatasets(_ context.Context, _ string) ([]models.GMDataset, error) {
	return []models.GMDataset{{ID: "nga_west_2", Name: "NGA West 2"}}, nil
}

func (f *fakeCore) HazardCurve(_ context.Context, _, _, _ string, im models.IM) (*models.HazardResult, error) {
	return &models.HazardResult{
		IM:            string(im),
		IMValues:      []float64{0.1, 0.2},
		Total:         []float64{0.02, 0.01},
		DownloadToken: "tok-hazard",
	}, nil
}

func (f *fakeCore) NZCodeCurves(_ context.Context, _, _, _ string, _ models.IM) (*models.NZCodeResult, error) {
	return &models.NZCodeResult{}, nil
}

func (f *fakeCore) Disaggregation(_ context.Context, _, _, _ string, im models.IM, exceedance float64) (*models.DisaggResult, error) {
	return &models.DisaggResult{IM: string(im), ExceedanceRate: exceedance, DownloadToken: "tok-disagg"}, nil
}

func (f *fakeCore) UHS(_ context.Context, _, _, _ string, rates []float64) (*models.UHSResult, error) {
	return &models.UHSResult{Spectra: map[string]map[string]float64{"0.002": {"PGA": 0.3}}}, nil
}

func (f *fakeCore) ComputeGMS(_ context.Context, _ string, _ models.GMSRequest) (*models.GMSResult, error) {
	return nil, errors.New("not wired in this test")
}

func (f *fakeCore) Scenario(_ context.Context, _, _, _ string) (*models.ScenarioResult, error) {
	return &models.ScenarioResult{IMs: []string{"PGA"}}, nil
}

func (f *fakeCore) Download(_ context.Context, _, capability string, tokens []string) (io.ReadCloser, string, error) {
	f.downloads = append(f.downloads, capability+":"+strings.Join(tokens, ","))
	return io.NopCloser(strings.NewReader("blob")), capability + ".zip", nil
}

func newDashboard(core *fakeCore) *Dashboard {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDashboard(logger, core, Stores{
		Site:     store.NewSiteStore(logger, core),
		Hazard:   store.NewHazardStore(logger, core),
		Disagg:   store.NewDisaggStore(logger, core),
		UHS:      store.NewUHSStore(logger, core),
		GMS:      store.NewGMSStore(logger, core),
		Scenario: store.NewScenarioStore(logger, core),
	})
}

func TestComputeRequiresSiteSelection(t *testing.T) {
	d := newDashboard(&fakeCore{})
	if err := d.ComputeHazard(context.Background(), "bearer", "PGA"); !errors.Is(err, ErrNoSite) {
		t.Fatalf("hazard before site = %v, want ErrNoSite", err)
	}
	if err := d.ComputeScenario(context.Background(), "bearer"); !errors.Is(err, ErrNoSite) {
		t.Fatalf("scenario before site = %v, want ErrNoSite", err)
	}
	if err := d.StageGMSRequest(models.GMSRequest{}); !errors.Is(err, ErrNoSite) {
		t.Fatalf("gms staging before site = %v, want ErrNoSite", err)
	}
}

func TestSiteSelectionUnlocksComputes(t *testing.T) {
	d := newDashboard(&fakeCore{})
	loc := models.Location{Lat: -43.53, Lon: 172.63}
	if err := d.SelectSite(context.Background(), "bearer", loc, "ens_v20"); err != nil {
		t.Fatalf("site selection failed: %v", err)
	}
	if err := d.ComputeHazard(context.Background(), "bearer", "PGA"); err != nil {
		t.Fatalf("hazard compute failed: %v", err)
	}
	snap := d.HazardSnapshot()
	if snap.State != store.StateSucceeded {
		t.Fatalf("hazard state = %s", snap.State)
	}
}

func TestReselectionResetsDependentStores(t *testing.T) {
	d := newDashboard(&fakeCore{})
	loc := models.Location{Lat: -43.53, Lon: 172.63}
	if err := d.SelectSite(context.Background(), "bearer", loc, "ens_v20"); err != nil {
		t.Fatalf("site selection failed: %v", err)
	}
	if err := d.ComputeHazard(context.Background(), "bearer", "PGA"); err != nil {
		t.Fatalf("hazard compute failed: %v", err)
	}

	if err := d.SelectSite(context.Background(), "bearer", models.Location{Lat: -41.29, Lon: 174.78}, "ens_v20"); err != nil {
		t.Fatalf("reselection failed: %v", err)
	}
	snap := d.HazardSnapshot()
	if snap.State != store.StateIdle {
		t.Fatalf("hazard state after reselection = %s, want idle", snap.State)
	}
}

func TestDownloadRoutesToCapabilityToken(t *testing.T) {
	core := &fakeCore{}
	d := newDashboard(core)
	loc := models.Location{Lat: -43.53, Lon: 172.63}
	if err := d.SelectSite(context.Background(), "bearer", loc, "ens_v20"); err != nil {
		t.Fatalf("site selection failed: %v", err)
	}

	if _, _, err := d.Download(context.Background(), "bearer", CapabilityHazard); !errors.Is(err, ErrNoDownload) {
		t.Fatalf("download without result = %v, want ErrNoDownload", err)
	}

	if err := d.ComputeHazard(context.Background(), "bearer", "PGA"); err != nil {
		t.Fatalf("hazard compute failed: %v", err)
	}
	body, filename, err := d.Download(context.Background(), "bearer", CapabilityHazard)
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	body.Close()
	if filename != "hazard.zip" {
		t.Fatalf("filename = %q", filename)
	}
	if len(core.downloads) != 1 || core.downloads[0] != "hazard:tok-hazard" {
		t.Fatalf("downloads = %v", core.downloads)
	}
}
