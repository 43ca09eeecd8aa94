package store

import (
	"context"
	"log/slog"

	"github.com/seismostack/hazview/internal/gms"
	"github.com/seismostack/hazview/internal/models"
	"github.com/seismostack/hazview/internal/utils"
)

// GMSClient is the slice of the core API the ground-motion-selection store
// needs.
type GMSClient interface {
	ComputeGMS(ctx context.Context, token string, req models.GMSRequest) (*models.GMSResult, error)
}

// GMSStore owns the ground-motion-selection request form and the validated,
// reshaped result of the last compute. A result that fails structural
// validation never reaches the snapshot; a result whose spectra cannot be
// reshaped still succeeds, with empty spectra.
type GMSStore struct {
	lifecycle
	logger *slog.Logger
	client GMSClient

	request models.GMSRequest
	result  *models.GMSResult
	spectra models.Spectra
}

// GMSSnapshot is the immutable view handed to the presentation layer.
type GMSSnapshot struct {
	State    State             `json:"state"`
	ActionID string            `json:"action_id,omitempty"`
	Error    string            `json:"error,omitempty"`
	Request  models.GMSRequest `json:"request"`
	Result   *models.GMSResult `json:"result,omitempty"`
	Spectra  models.Spectra    `json:"spectra"`
}

// NewGMSStore constructs a ground-motion-selection store.
func NewGMSStore(logger *slog.Logger, client GMSClient) *GMSStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GMSStore{logger: logger, client: client}
}

// SetRequest stages the request form without triggering a compute. The staged
// request is what Compute sends.
func (s *GMSStore) SetRequest(req models.GMSRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.request = req
}

// Request returns the staged request form.
func (s *GMSStore) Request() models.GMSRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// Compute sends the staged request and validates the response before any of
// it becomes visible. An incomplete request is rejected up front without
// touching the lifecycle.
func (s *GMSStore) Compute(ctx context.Context, token string) error {
	s.mu.Lock()
	req := s.request
	s.mu.Unlock()
	if err := req.Validate(); err != nil {
		return utils.NewAppError("gms.compute", "request is incomplete", err)
	}

	callCtx, gen, actionID := s.begin(ctx)
	s.logger.Info("gms compute started",
		slog.String("action_id", actionID),
		slog.String("conditioning_im", string(req.ConditioningIM)),
		slog.Int("im_vector", len(req.IMVector)),
		slog.Int("n_gms", req.NumGroundMotions))

	res, err := s.client.ComputeGMS(callCtx, token, req)
	return s.finish(gen, err, func() error {
		if vErr := gms.ValidateResult(res, req.IMVector, req.ConditioningIM); vErr != nil {
			return vErr
		}
		spectra := gms.BuildSpectra(
			s.logger.With(slog.String("action_id", actionID)),
			res, req.IMVector, req.ConditioningIM)
		s.result = res
		s.spectra = spectra
		return nil
	})
}

// Snapshot returns the current ground-motion-selection view.
func (s *GMSStore) Snapshot() GMSSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, actionID, message := s.status()
	return GMSSnapshot{
		State:    state,
		ActionID: actionID,
		Error:    message,
		Request:  s.request,
		Result:   s.result,
		Spectra:  s.spectra,
	}
}

// DownloadToken returns the token of the last successful result.
func (s *GMSStore) DownloadToken() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSucceeded || s.result == nil || s.result.DownloadToken == "" {
		return "", false
	}
	return s.result.DownloadToken, true
}

// Reset discards the staged request and the cached result.
func (s *GMSStore) Reset() {
	s.reset(func() {
		s.request = models.GMSRequest{}
		s.result = nil
		s.spectra = models.Spectra{}
	})
}
