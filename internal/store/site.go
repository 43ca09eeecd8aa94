package store

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/seismostack/hazview/internal/models"
)

// SiteClient is the slice of the core API the site store needs.
type SiteClient interface {
	SiteParams(ctx context.Context, token string, loc models.Location) (models.SiteParams, error)
	IMCatalog(ctx context.Context, token, ensembleID string) ([]models.IM, error)
	SoilClasses(ctx context.Context, token string) ([]models.SoilClass, error)
	GMDatasets(ctx context.Context, token string) ([]models.GMDataset, error)
}

// SiteStore owns the current site selection: the map location, the chosen
// ensemble, and the site context resolved for them. Every other store hangs
// off this one; a new selection resets them all.
type SiteStore struct {
	lifecycle
	logger *slog.Logger
	client SiteClient

	site models.SiteContext
}

// SiteSnapshot is the immutable view handed to the presentation layer.
type SiteSnapshot struct {
	State    State              `json:"state"`
	ActionID string             `json:"action_id,omitempty"`
	Error    string             `json:"error,omitempty"`
	Site     models.SiteContext `json:"site"`
}

// NewSiteStore constructs a site store.
func NewSiteStore(logger *slog.Logger, client SiteClient) *SiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SiteStore{logger: logger, client: client}
}

// Select resolves the site context for a location and ensemble. The four
// lookups are independent and fetched in parallel; any failure fails the
// whole selection.
func (s *SiteStore) Select(ctx context.Context, token string, loc models.Location, ensembleID string) error {
	callCtx, gen, actionID := s.begin(ctx)
	s.logger.Info("site selection started",
		slog.String("action_id", actionID),
		slog.Float64("lat", loc.Lat),
		slog.Float64("lon", loc.Lon),
		slog.String("ensemble", ensembleID))

	var (
		params   models.SiteParams
		ims      []models.IM
		soils    []models.SoilClass
		datasets []models.GMDataset
	)
	g, gctx := errgroup.WithContext(callCtx)
	g.Go(func() error {
		var err error
		params, err = s.client.SiteParams(gctx, token, loc)
		return err
	})
	g.Go(func() error {
		var err error
		ims, err = s.client.IMCatalog(gctx, token, ensembleID)
		return err
	})
	g.Go(func() error {
		var err error
		soils, err = s.client.SoilClasses(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		datasets, err = s.client.GMDatasets(gctx, token)
		return err
	})

	err := g.Wait()
	return s.finish(gen, err, func() error {
		s.site = models.SiteContext{
			Location:    loc,
			EnsembleID:  ensembleID,
			Params:      params,
			IMs:         models.SortIMs(ims),
			SoilClasses: soils,
			Datasets:    datasets,
		}
		return nil
	})
}

// Snapshot returns an immutable copy of the current selection.
func (s *SiteStore) Snapshot() SiteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, actionID, message := s.status()
	site := s.site
	site.IMs = append([]models.IM(nil), s.site.IMs...)
	site.SoilClasses = append([]models.SoilClass(nil), s.site.SoilClasses...)
	site.Datasets = append([]models.GMDataset(nil), s.site.Datasets...)
	return SiteSnapshot{State: state, ActionID: actionID, Error: message, Site: site}
}

// Reset clears the selection.
func (s *SiteStore) Reset() {
	s.reset(func() { s.site = models.SiteContext{} })
}

// Current returns the ensemble and station of the active selection, when one
// has succeeded.
func (s *SiteStore) Current() (ensembleID, station string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded {
		return "", "", false
	}
	return s.site.EnsembleID, s.site.Params.Station, true
}
