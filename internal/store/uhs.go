package store

import (
	"context"
	"log/slog"

	"github.com/seismostack/hazview/internal/hazard"
	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/utils"
)

// UHSClient is the slice of the core API the UHS store needs.
type UHSClient interface {
	UHS(ctx context.Context, token, ensembleID, station string, rates []float64) (*models.UHSResult, error)
}

// UHSStore owns the uniform-hazard-spectra selection (the exceedance rates)
// and the period-ordered series from the last result.
type UHSStore struct {
	lifecycle
	logger *slog.Logger
	client UHSClient

	rates  []float64
	series []models.UHSSeries
	token  string
}

// UHSSnapshot is the immutable view handed to the presentation layer.
type UHSSnapshot struct {
	State    State              `json:"state"`
	ActionID string             `json:"action_id,omitempty"`
	Error    string             `json:"error,omitempty"`
	Rates    []float64          `json:"rates,omitempty"`
	Series   []models.UHSSeries `json:"series,omitempty"`
}

// NewUHSStore constructs a UHS store.
func NewUHSStore(logger *slog.Logger, client UHSClient) *UHSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UHSStore{logger: logger, client: client}
}

// Compute fetches spectra for the requested exceedance rates.
func (s *UHSStore) Compute(ctx context.Context, token, ensembleID, station string, rates []float64) error {
	if len(rates) == 0 {
		return utils.NewAppError("uhs.compute", "at least one exceedance rate is required", nil)
	}
	callCtx, gen, actionID := s.begin(ctx)
	s.logger.Info("uhs compute started",
		slog.String("action_id", actionID),
		slog.Int("rates", len(rates)))

	res, err := s.client.UHS(callCtx, token, ensembleID, station, rates)
	return s.finish(gen, err, func() error {
		series, buildErr := hazard.BuildUHS(res)
		if buildErr != nil {
			return buildErr
		}
		s.rates = append([]float64(nil), rates...)
		s.series = series
		s.token = res.DownloadToken
		return nil
	})
}

// Snapshot returns the current UHS view.
func (s *UHSStore) Snapshot() UHSSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, actionID, message := s.status()
	return UHSSnapshot{
		State:    state,
		ActionID: actionID,
		Error:    message,
		Rates:    append([]float64(nil), s.rates...),
		Series:   append([]models.UHSSeries(nil), s.series...),
	}
}

// DownloadToken returns the token of the last successful result.
func (s *UHSStore) DownloadToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded || s.token == "" {
		return "", false
	}
	return s.token, true
}

// Reset discards the cached result.
func (s *UHSStore) Reset() {
	s.reset(func() {
		s.rates = nil
		s.series = nil
		s.token = ""
	})
}
