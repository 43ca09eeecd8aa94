package models

import "fmt"

// Metadata field names returned for every selected ground motion.
const (
	MetadataMagnitude       = "mag"
	MetadataRuptureDistance = "rrup"
	MetadataVs30            = "vs30"
	MetadataScaleFactor     = "sf"
)

// MetadataFields lists the recognised per-ground-motion metadata keys.
func MetadataFields() []string {
	return []string{MetadataMagnitude, MetadataRuptureDistance, MetadataVs30, MetadataScaleFactor}
}

// Bounds is an inclusive [Min, Max] causal-parameter range.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Valid reports whether the range is ordered.
func (b Bounds) Valid() bool { return b.Min <= b.Max }

// CausalBounds filters candidate ground motions during selection.
type CausalBounds struct {
	Magnitude       Bounds `json:"mag"`
	RuptureDistance Bounds `json:"rrup"`
	Vs30            Bounds `json:"vs30"`
	ScaleFactor     Bounds `json:"sf"`
}

// GMSRequest describes one ground-motion-selection compute action. Exactly one
// of IMLevel / ExceedanceRate anchors the conditioning IM.
type GMSRequest struct {
	EnsembleID       string         `json:"ensemble_id"`
	Station          string         `json:"station"`
	ConditioningIM   IM             `json:"IM_j"`
	IMVector         []IM           `json:"IMs"`
	IMLevel          *float64       `json:"im_level,omitempty"`
	ExceedanceRate   *float64       `json:"exceedance_rate,omitempty"`
	NumGroundMotions int            `json:"n_gms"`
	Replicates       int            `json:"n_replica"`
	Weights          map[IM]float64 `json:"im_weights"`
	CausalBounds     CausalBounds   `json:"causal_params"`
	DatasetID        string         `json:"gm_dataset_id"`
}

// Validate checks the request is complete enough to send to the core API.
func (r GMSRequest) Validate() error {
	if r.EnsembleID == "" || r.Station == "" {
		return fmt.Errorf("ensemble and station are required")
	}
	if !r.ConditioningIM.Valid() {
		return fmt.Errorf("conditioning IM %q is malformed", r.ConditioningIM)
	}
	if len(r.IMVector) == 0 {
		return fmt.Errorf("IM vector must not be empty")
	}
	for _, im := range r.IMVector {
		if !im.Valid() {
			return fmt.Errorf("IM vector entry %q is malformed", im)
		}
	}
	if (r.IMLevel == nil) == (r.ExceedanceRate == nil) {
		return fmt.Errorf("exactly one of im_level and exceedance_rate must be set")
	}
	if r.NumGroundMotions <= 0 {
		return fmt.Errorf("n_gms must be positive")
	}
	if r.Replicates <= 0 {
		return fmt.Errorf("n_replica must be positive")
	}
	for im, w := range r.Weights {
		if w < 0 {
			return fmt.Errorf("weight for %s must be non-negative", im)
		}
	}
	for name, b := range map[string]Bounds{
		"mag":  r.CausalBounds.Magnitude,
		"rrup": r.CausalBounds.RuptureDistance,
		"vs30": r.CausalBounds.Vs30,
		"sf":   r.CausalBounds.ScaleFactor,
	} {
		if !b.Valid() {
			return fmt.Errorf("causal bounds for %s are inverted", name)
		}
	}
	return nil
}

// GMSResult is the core API's ground-motion-selection payload.
type GMSResult struct {
	IMVector       []string             `json:"IMs"`
	ConditioningIM string               `json:"IM_j"`
	IMLevel        float64              `json:"im_j_level"`
	CDFX           map[string][]float64 `json:"gcim_cdf_x"`
	CDFY           map[string][]float64 `json:"gcim_cdf_y"`
	Realisations   map[string][]float64 `json:"realisations"`
	SelectedGMs    map[string][]float64 `json:"selected_GMs"`
	Metadata       map[string][]float64 `json:"selected_gms_metadata"`
	DownloadToken  string               `json:"download_token"`
}

// SpectraSeries is one period-ordered trace for plotting.
type SpectraSeries struct {
	Name    string    `json:"name"`
	Periods []float64 `json:"periods"`
	Values  []float64 `json:"values"`
}

// Spectra carries every trace of a response-spectrum overlay: GCIM percentile
// bands plus one trace per realisation and per selected ground motion.
type Spectra struct {
	Median       SpectraSeries   `json:"median"`
	Lower        SpectraSeries   `json:"lower"`
	Upper        SpectraSeries   `json:"upper"`
	Realisations []SpectraSeries `json:"realisations"`
	SelectedGMs  []SpectraSeries `json:"selected_gms"`
}

// Empty reports whether no traces were produced.
func (s Spectra) Empty() bool {
	return len(s.Median.Periods) == 0 && len(s.Realisations) == 0 && len(s.SelectedGMs) == 0
}
