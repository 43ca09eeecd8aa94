package store

import (
	"context"
	"log/slog"

	"github.com/seismostack/hazview/internal/hazard"
	"github.com/seismostack/hazview/internal/models"
)

// Disaggregation tables are truncated to the dominant ruptures for display.
const disaggTableLimit = 20

// DisaggClient is the slice of the core API the disagg store needs.
type DisaggClient interface {
	Disaggregation(ctx context.Context, token, ensembleID, station string, im models.IM, exceedance float64) (*models.DisaggResult, error)
}

// DisaggStore owns the disaggregation selection (IM and exceedance rate) and
// the ranked contribution table from the last result.
type DisaggStore struct {
	lifecycle
	logger *slog.Logger
	client DisaggClient

	im         models.IM
	exceedance float64
	result     *models.DisaggResult
	table      []models.DisaggContribution
}

// DisaggSnapshot is the immutable view handed to the presentation layer.
type DisaggSnapshot struct {
	State      State                       `json:"state"`
	ActionID   string                      `json:"action_id,omitempty"`
	Error      string                      `json:"error,omitempty"`
	IM         models.IM                   `json:"im,omitempty"`
	Exceedance float64                     `json:"exceedance,omitempty"`
	Table      []models.DisaggContribution `json:"table,omitempty"`
	PlotTokens map[string]string           `json:"plot_tokens,omitempty"`
}

// NewDisaggStore constructs a disaggregation store.
func NewDisaggStore(logger *slog.Logger, client DisaggClient) *DisaggStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DisaggStore{logger: logger, client: client}
}

// Compute fetches the disaggregation at one IM and exceedance rate.
func (s *DisaggStore) Compute(ctx context.Context, token, ensembleID, station string, im models.IM, exceedance float64) error {
	callCtx, gen, actionID := s.begin(ctx)
	s.logger.Info("disagg compute started",
		slog.String("action_id", actionID),
		slog.String("im", string(im)),
		slog.Float64("exceedance", exceedance))

	res, err := s.client.Disaggregation(callCtx, token, ensembleID, station, im, exceedance)
	return s.finish(gen, err, func() error {
		s.im = im
		s.exceedance = exceedance
		s.result = res
		s.table = hazard.TopContributions(res, disaggTableLimit)
		return nil
	})
}

// Snapshot returns the current disaggregation view.
func (s *DisaggStore) Snapshot() DisaggSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, actionID, message := s.status()
	snap := DisaggSnapshot{
		State:      state,
		ActionID:   actionID,
		Error:      message,
		IM:         s.im,
		Exceedance: s.exceedance,
		Table:      append([]models.DisaggContribution(nil), s.table...),
	}
	if s.result != nil && len(s.result.PlotTokens) > 0 {
		snap.PlotTokens = make(map[string]string, len(s.result.PlotTokens))
		for k, v := range s.result.PlotTokens {
			snap.PlotTokens[k] = v
		}
	}
	return snap
}

// DownloadToken returns the token of the last successful result.
func (s *DisaggStore) DownloadToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded || s.result == nil || s.result.DownloadToken == "" {
		return "", false
	}
	return s.result.DownloadToken, true
}

// Reset discards the cached result.
func (s *DisaggStore) Reset() {
	s.reset(func() {
		s.im = ""
		s.exceedance = 0
		s.result = nil
		s.table = nil
	})
}
