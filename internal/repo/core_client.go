// Package repo holds clients for the remote services hazview orchestrates.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/seismostack/hazview/internal/cache"
	"github.com/seismostack/hazview/internal/metrics"
	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/query"
)

// StatusError reports a non-200 response from the core API. The status code
// is all the caller needs; user-facing messages are mapped at the edge.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("core api returned status %d", e.Code)
}

// CorePaths names the core API endpoint for each capability.
type CorePaths struct {
	Hazard    string
	NZCode    string
	Disagg    string
	UHS       string
	GMS       string
	Scenario  string
	Site      string
	IMCatalog string
	SoilClass string
	Datasets  string
	Download  string
}

// Options configures a core API client.
type Options struct {
	BaseURL    string
	Paths      CorePaths
	Timeout    time.Duration
	Cache      cache.Provider
	CatalogTTL time.Duration
}

// CoreClient wraps the hazard core API behind typed per-capability fetchers.
// Every call carries the session's bearer token; the client holds no
// credentials of its own.
type CoreClient struct {
	baseURL    string
	paths      CorePaths
	httpClient *http.Client
	cache      cache.Provider
	catalogTTL time.Duration
}

// NewCoreClient constructs a client targeting the configured core API.
func NewCoreClient(opts Options) *CoreClient {
	if opts.Cache == nil {
		opts.Cache = cache.NoopProvider{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &CoreClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		paths:      opts.Paths,
		httpClient: &http.Client{Timeout: opts.Timeout},
		cache:      opts.Cache,
		catalogTTL: opts.CatalogTTL,
	}
}

// SiteParams resolves the site conditions for a map location.
func (c *CoreClient) SiteParams(ctx context.Context, token string, loc models.Location) (models.SiteParams, error) {
	var out models.SiteParams
	qs := query.Encode(map[string]any{"lat": loc.Lat, "lon": loc.Lon})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.Site)+qs, &out); err != nil {
		return models.SiteParams{}, fmt.Errorf("core site params request failed: %w", err)
	}
	return out, nil
}

// IMCatalog returns the intensity measures an ensemble supports. The catalog
// is slow-changing and cached per ensemble.
func (c *CoreClient) IMCatalog(ctx context.Context, token, ensembleID string) ([]models.IM, error) {
	key := "hazview:im-catalog:" + ensembleID
	var payload struct {
		IMs []string `json:"ims"`
	}
	if data, err := c.cache.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil {
			return models.ParseIMs(payload.IMs)
		}
	}

	qs := query.Encode(map[string]any{"ensemble_id": ensembleID})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.IMCatalog)+qs, &payload); err != nil {
		return nil, fmt.Errorf("core IM catalog request failed: %w", err)
	}
	if data, err := json.Marshal(payload); err == nil {
		_ = c.cache.Set(ctx, key, data, c.catalogTTL)
	}
	return models.ParseIMs(payload.IMs)
}

// SoilClasses returns the NZ soil-class lookup table (cached).
func (c *CoreClient) SoilClasses(ctx context.Context, token string) ([]models.SoilClass, error) {
	const key = "hazview:soil-classes"
	var payload struct {
		SoilClasses []models.SoilClass `json:"soil_classes"`
	}
	if data, err := c.cache.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil {
			return payload.SoilClasses, nil
		}
	}

	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.SoilClass), &payload); err != nil {
		return nil, fmt.Errorf("core soil class request failed: %w", err)
	}
	if data, err := json.Marshal(payload); err == nil {
		_ = c.cache.Set(ctx, key, data, c.catalogTTL)
	}
	return payload.SoilClasses, nil
}

// GMDatasets returns the selectable ground-motion databases (cached).
func (c *CoreClient) GMDatasets(ctx context.Context, token string) ([]models.GMDataset, error) {
	const key = "hazview:gm-datasets"
	var payload struct {
		Datasets []models.GMDataset `json:"datasets"`
	}
	if data, err := c.cache.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(data, &payload); jsonErr == nil {
			return payload.Datasets, nil
		}
	}

	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.Datasets), &payload); err != nil {
		return nil, fmt.Errorf("core dataset catalog request failed: %w", err)
	}
	if data, err := json.Marshal(payload); err == nil {
		_ = c.cache.Set(ctx, key, data, c.catalogTTL)
	}
	return payload.Datasets, nil
}

// HazardCurve fetches the hazard curve for one site and IM.
func (c *CoreClient) HazardCurve(ctx context.Context, token, ensembleID, station string, im models.IM) (*models.HazardResult, error) {
	var out models.HazardResult
	qs := query.Encode(map[string]any{
		"ensemble_id": ensembleID,
		"station":     station,
		"im":          im,
	})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.Hazard)+qs, &out); err != nil {
		return nil, fmt.Errorf("core hazard request failed: %w", err)
	}
	return &out, nil
}

// NZCodeCurves fetches the NZS1170.5/NZTA comparison curves for a hazard view.
func (c *CoreClient) NZCodeCurves(ctx context.Context, token, ensembleID, station string, im models.IM) (*models.NZCodeResult, error) {
	var out models.NZCodeResult
	qs := query.Encode(map[string]any{
		"ensemble_id": ensembleID,
		"station":     station,
		"im":          im,
	})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.NZCode)+qs, &out); err != nil {
		return nil, fmt.Errorf("core nz code request failed: %w", err)
	}
	return &out, nil
}

// Disaggregation fetches rupture contributions at an exceedance rate.
func (c *CoreClient) Disaggregation(ctx context.Context, token, ensembleID, station string, im models.IM, exceedance float64) (*models.DisaggResult, error) {
	var out models.DisaggResult
	qs := query.Encode(map[string]any{
		"ensemble_id": ensembleID,
		"station":     station,
		"im":          im,
		"exceedance":  exceedance,
	})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.Disagg)+qs, &out); err != nil {
		return nil, fmt.Errorf("core disagg request failed: %w", err)
	}
	return &out, nil
}

// UHS fetches uniform-hazard spectra for the requested exceedance rates.
func (c *CoreClient) UHS(ctx context.Context, token, ensembleID, station string, rates []float64) (*models.UHSResult, error) {
	formatted := make([]string, 0, len(rates))
	for _, rate := range rates {
		formatted = append(formatted, strconv.FormatFloat(rate, 'g', -1, 64))
	}
	var out models.UHSResult
	qs := query.Encode(map[string]any{
		"ensemble_id": ensembleID,
		"station":     station,
		"exceedances": strings.Join(formatted, ","),
	})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.UHS)+qs, &out); err != nil {
		return nil, fmt.Errorf("core uhs request failed: %w", err)
	}
	return &out, nil
}

// ComputeGMS runs a ground-motion-selection compute on the core API.
func (c *CoreClient) ComputeGMS(ctx context.Context, token string, req models.GMSRequest) (*models.GMSResult, error) {
	var out models.GMSResult
	if err := c.postJSON(ctx, token, c.resolvePath(c.paths.GMS), req, &out); err != nil {
		return nil, fmt.Errorf("core gms request failed: %w", err)
	}
	return &out, nil
}

// Scenario fetches the rupture scenario analysis for a site.
func (c *CoreClient) Scenario(ctx context.Context, token, ensembleID, station string) (*models.ScenarioResult, error) {
	var out models.ScenarioResult
	qs := query.Encode(map[string]any{
		"ensemble_id": ensembleID,
		"station":     station,
	})
	if err := c.getJSON(ctx, token, c.resolvePath(c.paths.Scenario)+qs, &out); err != nil {
		return nil, fmt.Errorf("core scenario request failed: %w", err)
	}
	return &out, nil
}

// Download streams the server-rendered data bundle for one or more opaque
// tokens, returning the body and the capability-specific file name. The
// caller owns the body and must close it.
func (c *CoreClient) Download(ctx context.Context, token, capability string, tokens []string) (io.ReadCloser, string, error) {
	qs := query.EncodeMulti(map[string][]string{capability + "_token": tokens})
	endpoint := c.resolvePath(path.Join(c.paths.Download, capability)) + qs

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	metrics.ObserveCoreStatus(resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", &StatusError{Code: resp.StatusCode}
	}
	return resp.Body, DownloadFilename(capability), nil
}

// DownloadFilename names the saved blob for a capability.
func DownloadFilename(capability string) string {
	switch capability {
	case "hazard":
		return "hazard_curve.zip"
	case "disagg":
		return "disaggregation.zip"
	case "uhs":
		return "uniform_hazard_spectra.zip"
	case "gms":
		return "ground_motion_selection.zip"
	case "scenario":
		return "scenario_analysis.zip"
	default:
		return capability + ".zip"
	}
}

func (c *CoreClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	cleaned := "/" + strings.TrimLeft(p, "/")
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + cleaned
	}
	u.Path = path.Join(u.Path, cleaned)
	return u.String()
}

func (c *CoreClient) getJSON(ctx context.Context, token, endpoint string, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, token, out)
}

func (c *CoreClient) postJSON(ctx context.Context, token, endpoint string, payload, out any) error {
	if endpoint == "" {
		return fmt.Errorf("empty endpoint")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token, out)
}

func (c *CoreClient) do(req *http.Request, token string, out any) error {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Cancellation passes through untranslated so callers can treat a
		// superseded request as a no-op.
		return err
	}
	defer resp.Body.Close()
	metrics.ObserveCoreStatus(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
