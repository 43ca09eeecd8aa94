package store

import (
	"context"
	"log/slog"

	"github.com/seismostack/hazview/internal/hazard"
	"github.com/seismostack/hazview/internal/models"
)

// HazardClient is the slice of the core API the hazard store needs.
type HazardClient interface {
	HazardCurve(ctx context.Context, token, ensembleID, station string, im models.IM) (*models.HazardResult, error)
	NZCodeCurves(ctx context.Context, token, ensembleID, station string, im models.IM) (*models.NZCodeResult, error)
}

// HazardStore owns the hazard-curve selection (the IM under view) and the
// plot-ready curves derived from the last result.
type HazardStore struct {
	lifecycle
	logger *slog.Logger
	client HazardClient

	im         models.IM
	view       hazard.View
	codeCurves []hazard.Curve
}

// HazardSnapshot is the immutable view handed to the presentation layer.
type HazardSnapshot struct {
	State      State          `json:"state"`
	ActionID   string         `json:"action_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	IM         models.IM      `json:"im,omitempty"`
	View       hazard.View    `json:"view"`
	CodeCurves []hazard.Curve `json:"code_curves,omitempty"`
}

// NewHazardStore constructs a hazard store.
func NewHazardStore(logger *slog.Logger, client HazardClient) *HazardStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &HazardStore{logger: logger, client: client}
}

// Compute fetches and reshapes the hazard curve for one IM. The NZ-code
// comparison curves are best-effort: their failure degrades the overlay, not
// the whole view.
func (s *HazardStore) Compute(ctx context.Context, token, ensembleID, station string, im models.IM) error {
	callCtx, gen, actionID := s.begin(ctx)
	log := s.logger.With(slog.String("action_id", actionID), slog.String("im", string(im)))
	log.Info("hazard compute started", slog.String("station", station))

	res, err := s.client.HazardCurve(callCtx, token, ensembleID, station, im)

	var codeCurves []hazard.Curve
	if err == nil {
		if codeRes, codeErr := s.client.NZCodeCurves(callCtx, token, ensembleID, station, im); codeErr != nil {
			log.Warn("nz code fetch failed", slog.Any("error", codeErr))
		} else if codeCurves, codeErr = hazard.BuildCodeCurves(codeRes); codeErr != nil {
			log.Warn("nz code reshape failed", slog.Any("error", codeErr))
			codeCurves = nil
		}
	}

	return s.finish(gen, err, func() error {
		view, buildErr := hazard.BuildView(res)
		if buildErr != nil {
			return buildErr
		}
		s.im = im
		s.view = view
		s.codeCurves = codeCurves
		return nil
	})
}

// Snapshot returns the current hazard view.
func (s *HazardStore) Snapshot() HazardSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, actionID, message := s.status()
	return HazardSnapshot{
		State:      state,
		ActionID:   actionID,
		Error:      message,
		IM:         s.im,
		View:       s.view,
		CodeCurves: append([]hazard.Curve(nil), s.codeCurves...),
	}
}

// DownloadToken returns the token of the last successful result.
func (s *HazardStore) DownloadToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded || s.view.DownloadToken == "" {
		return "", false
	}
	return s.view.DownloadToken, true
}

// Reset discards the cached result.
func (s *HazardStore) Reset() {
	s.reset(func() {
		s.im = ""
		s.view = hazard.View{}
		s.codeCurves = nil
	})
}
