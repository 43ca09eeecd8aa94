// Package services wires the per-feature stores behind one dashboard facade.
// The facade enforces the site-first ordering, propagates resets, and owns
// the compute metrics.
package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/seismostack/hazview/internal/metrics"
	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/store"
	"github.com/seismostack/hazview/internal/utils"
)

// Capability names used for metrics and download routing.
const (
	CapabilityHazard   = "hazard"
	CapabilityDisagg   = "disagg"
	CapabilityUHS      = "uhs"
	CapabilityGMS      = "gms"
	CapabilityScenario = "scenario"
	capabilitySite     = "site"
)

// ErrNoSite reports a compute attempted before any site selection succeeded.
var ErrNoSite = errors.New("no site selected")

// ErrNoDownload reports a download requested before the capability has a
// successful result.
var ErrNoDownload = errors.New("nothing to download for this capability")

// Downloader is the slice of the core API the dashboard needs for streaming
// data bundles.
type Downloader interface {
	Download(ctx context.Context, token, capability string, tokens []string) (io.ReadCloser, string, error)
}

// Dashboard owns the selection stores for one deployment and coordinates
// their lifecycles: site selection first, dependent computes after, resets
// cascading down.
type Dashboard struct {
	logger     *slog.Logger
	downloader Downloader
	site       *store.SiteStore
	hazard     *store.HazardStore
	disagg     *store.DisaggStore
	uhs        *store.UHSStore
	gms        *store.GMSStore
	scenario   *store.ScenarioStore
	latencies  *utils.LatencyTracker
}

// Stores bundles the per-feature stores handed to the dashboard.
type Stores struct {
	Site     *store.SiteStore
	Hazard   *store.HazardStore
	Disagg   *store.DisaggStore
	UHS      *store.UHSStore
	GMS      *store.GMSStore
	Scenario *store.ScenarioStore
}

// NewDashboard constructs the dashboard facade.
func NewDashboard(logger *slog.Logger, downloader Downloader, stores Stores) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		logger:     logger,
		downloader: downloader,
		site:       stores.Site,
		hazard:     stores.Hazard,
		disagg:     stores.Disagg,
		uhs:        stores.UHS,
		gms:        stores.GMS,
		scenario:   stores.Scenario,
		latencies:  utils.NewLatencyTracker(1024),
	}
}

// SelectSite resolves a new site selection. Every dependent store is reset
// first: their cached results describe the old site and must never outlive
// it, even if the new selection fails.
func (d *Dashboard) SelectSite(ctx context.Context, token string, loc models.Location, ensembleID string) error {
	d.hazard.Reset()
	d.disagg.Reset()
	d.uhs.Reset()
	d.gms.Reset()
	d.scenario.Reset()

	start := time.Now()
	err := d.site.Select(ctx, token, loc, ensembleID)
	d.observe(capabilitySite, start, err)
	return err
}

// SiteSnapshot returns the current site selection.
func (d *Dashboard) SiteSnapshot() store.SiteSnapshot { return d.site.Snapshot() }

// ComputeHazard fetches the hazard view for one IM at the selected site.
func (d *Dashboard) ComputeHazard(ctx context.Context, token string, im models.IM) error {
	ensemble, station, ok := d.site.Current()
	if !ok {
		return ErrNoSite
	}
	start := time.Now()
	err := d.hazard.Compute(ctx, token, ensemble, station, im)
	d.observe(CapabilityHazard, start, err)
	return err
}

// HazardSnapshot returns the current hazard view.
func (d *Dashboard) HazardSnapshot() store.HazardSnapshot { return d.hazard.Snapshot() }

// ComputeDisagg fetches the disaggregation at one IM and exceedance rate.
func (d *Dashboard) ComputeDisagg(ctx context.Context, token string, im models.IM, exceedance float64) error {
	ensemble, station, ok := d.site.Current()
	if !ok {
		return ErrNoSite
	}
	start := time.Now()
	err := d.disagg.Compute(ctx, token, ensemble, station, im, exceedance)
	d.observe(CapabilityDisagg, start, err)
	return err
}

// DisaggSnapshot returns the current disaggregation view.
func (d *Dashboard) DisaggSnapshot() store.DisaggSnapshot { return d.disagg.Snapshot() }

// ComputeUHS fetches uniform hazard spectra for the requested rates.
func (d *Dashboard) ComputeUHS(ctx context.Context, token string, rates []float64) error {
	ensemble, station, ok := d.site.Current()
	if !ok {
		return ErrNoSite
	}
	start := time.Now()
	err := d.uhs.Compute(ctx, token, ensemble, station, rates)
	d.observe(CapabilityUHS, start, err)
	return err
}

// UHSSnapshot returns the current uniform-hazard-spectra view.
func (d *Dashboard) UHSSnapshot() store.UHSSnapshot { return d.uhs.Snapshot() }

// StageGMSRequest fills the request form's site fields from the current
// selection and stages it for compute.
func (d *Dashboard) StageGMSRequest(req models.GMSRequest) error {
	ensemble, station, ok := d.site.Current()
	if !ok {
		return ErrNoSite
	}
	req.EnsembleID = ensemble
	req.Station = station
	d.gms.SetRequest(req)
	return nil
}

// ComputeGMS runs ground-motion selection for the staged request.
func (d *Dashboard) ComputeGMS(ctx context.Context, token string) error {
	if _, _, ok := d.site.Current(); !ok {
		return ErrNoSite
	}
	start := time.Now()
	err := d.gms.Compute(ctx, token)
	d.observe(CapabilityGMS, start, err)
	return err
}

// GMSSnapshot returns the current ground-motion-selection view.
func (d *Dashboard) GMSSnapshot() store.GMSSnapshot { return d.gms.Snapshot() }

// ComputeScenario fetches the rupture scenario analysis for the site.
func (d *Dashboard) ComputeScenario(ctx context.Context, token string) error {
	ensemble, station, ok := d.site.Current()
	if !ok {
		return ErrNoSite
	}
	start := time.Now()
	err := d.scenario.Compute(ctx, token, ensemble, station)
	d.observe(CapabilityScenario, start, err)
	return err
}

// ScenarioSnapshot returns the current scenario view.
func (d *Dashboard) ScenarioSnapshot() store.ScenarioSnapshot { return d.scenario.Snapshot() }

// Download streams the data bundle for a capability's last successful result.
// The caller owns the returned body.
func (d *Dashboard) Download(ctx context.Context, token, capability string) (io.ReadCloser, string, error) {
	downloadToken, ok := d.downloadToken(capability)
	if !ok {
		return nil, "", ErrNoDownload
	}
	body, filename, err := d.downloader.Download(ctx, token, capability, []string{downloadToken})
	if err != nil {
		return nil, "", err
	}
	metrics.ObserveDownload(capability)
	return body, filename, nil
}

func (d *Dashboard) downloadToken(capability string) (string, bool) {
	switch capability {
	case CapabilityHazard:
		return d.hazard.DownloadToken()
	case CapabilityDisagg:
		return d.disagg.DownloadToken()
	case CapabilityUHS:
		return d.uhs.DownloadToken()
	case CapabilityGMS:
		return d.gms.DownloadToken()
	case CapabilityScenario:
		return d.scenario.DownloadToken()
	default:
		return "", false
	}
}

// LatencyP95 returns the current p95 compute latency across capabilities.
func (d *Dashboard) LatencyP95() time.Duration {
	return d.latencies.Percentile(95)
}

func (d *Dashboard) observe(capability string, start time.Time, err error) {
	duration := time.Since(start)
	switch {
	case errors.Is(err, store.ErrSuperseded) || errors.Is(err, context.Canceled):
		metrics.ObserveCompute(capability, duration, metrics.OutcomeSuperseded)
	case err != nil:
		metrics.ObserveCompute(capability, duration, metrics.OutcomeError)
		d.logger.Error("compute failed",
			slog.String("capability", capability),
			slog.Any("error", err))
	default:
		d.latencies.Observe(duration)
		metrics.ObserveCompute(capability, duration, metrics.OutcomeSuccess)
		if count := d.latencies.Count(); count >= 20 && count%20 == 0 {
			d.logger.Info("compute latency",
				slog.Duration("p95", d.latencies.Percentile(95)),
				slog.Int("samples", count))
		}
	}
}
