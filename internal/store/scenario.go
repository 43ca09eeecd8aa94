package store

import (
	"context"
	"log/slog"

	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/scenario"
)

// scenarioRuptureLimit caps how many ruptures a scenario view carries,
// ordered by contribution.
const scenarioRuptureLimit = 20

// ScenarioClient is the slice of the core API the scenario store needs.
type ScenarioClient interface {
	Scenario(ctx context.Context, token, ensembleID, station string) (*models.ScenarioResult, error)
}

// ScenarioStore owns the scenario-analysis result for the selected site.
type ScenarioStore struct {
	lifecycle
	logger *slog.Logger
	client ScenarioClient

	ruptures []scenario.RuptureCurves
	token    string
}

// ScenarioSnapshot is the immutable view handed to the presentation layer.
type ScenarioSnapshot struct {
	State    State                    `json:"state"`
	ActionID string                   `json:"action_id,omitempty"`
	Error    string                   `json:"error,omitempty"`
	Ruptures []scenario.RuptureCurves `json:"ruptures,omitempty"`
}

// NewScenarioStore constructs a scenario store.
func NewScenarioStore(logger *slog.Logger, client ScenarioClient) *ScenarioStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScenarioStore{logger: logger, client: client}
}

// Compute fetches and reshapes the scenario analysis for the site.
func (s *ScenarioStore) Compute(ctx context.Context, token, ensembleID, station string) error {
	callCtx, gen, actionID := s.begin(ctx)
	s.logger.Info("scenario compute started",
		slog.String("action_id", actionID),
		slog.String("station", station))

	res, err := s.client.Scenario(callCtx, token, ensembleID, station)
	return s.finish(gen, err, func() error {
		ruptures, buildErr := scenario.Build(res, scenarioRuptureLimit)
		if buildErr != nil {
			return buildErr
		}
		s.ruptures = ruptures
		s.token = res.DownloadToken
		return nil
	})
}

// Snapshot returns the current scenario view.
func (s *ScenarioStore) Snapshot() ScenarioSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, actionID, message := s.status()
	return ScenarioSnapshot{
		State:    state,
		ActionID: actionID,
		Error:    message,
		Ruptures: append([]scenario.RuptureCurves(nil), s.ruptures...),
	}
}

// DownloadToken returns the token of the last successful result.
func (s *ScenarioStore) DownloadToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded || s.token == "" {
		return "", false
	}
	return s.token, true
}

// Reset discards the cached result.
func (s *ScenarioStore) Reset() {
	s.reset(func() {
		s.ruptures = nil
		s.token = ""
	})
}
