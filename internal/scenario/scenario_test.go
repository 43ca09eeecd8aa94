package scenario

import (
	"reflect"
	"testing"

	"github.com/seismostack/hazview/internal/models"
)

func TestBuildRealignsAndRanks(t *testing.T) {
	res := &models.ScenarioResult{
		IMs: []string{"pSA_1.0", "PGA", "pSA_0.1"},
		Ruptures: []models.RuptureScenario{
			{
				Name:         "AlpineF2K",
				Contribution: 0.7,
				Mean:         []float64{0.3, 0.5, 0.8},
				Percentile16: []float64{0.2, 0.4, 0.6},
				Percentile84: []float64{0.4, 0.7, 1.1},
			},
			{
				Name:         "Wairau",
				Contribution: 0.9,
				Mean:         []float64{0.1, 0.2, 0.3},
				Percentile16: []float64{0.05, 0.1, 0.2},
				Percentile84: []float64{0.2, 0.3, 0.5},
			},
		},
	}

	curves, err := Build(res, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(curves) != 2 || curves[0].Name != "Wairau" {
		t.Fatalf("ruptures not ranked by contribution: %+v", curves)
	}
	// Axis becomes PGA, pSA_0.1, pSA_1.0.
	if !reflect.DeepEqual(curves[0].Periods, []float64{0, 0.1, 1.0}) {
		t.Fatalf("periods = %v", curves[0].Periods)
	}
	if !reflect.DeepEqual(curves[1].Mean, []float64{0.5, 0.8, 0.3}) {
		t.Fatalf("mean not realigned: %v", curves[1].Mean)
	}
	// Input order untouched.
	if res.Ruptures[0].Name != "AlpineF2K" || res.Ruptures[0].Mean[0] != 0.3 {
		t.Fatalf("input mutated")
	}
}

func TestBuildLimitsRuptures(t *testing.T) {
	res := &models.ScenarioResult{
		IMs: []string{"PGA"},
		Ruptures: []models.RuptureScenario{
			{Name: "a", Contribution: 0.1, Mean: []float64{1}, Percentile16: []float64{1}, Percentile84: []float64{1}},
			{Name: "b", Contribution: 0.2, Mean: []float64{1}, Percentile16: []float64{1}, Percentile84: []float64{1}},
		},
	}
	curves, err := Build(res, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(curves) != 1 || curves[0].Name != "b" {
		t.Fatalf("limit not applied: %+v", curves)
	}
}

func TestBuildRejectsRaggedRupture(t *testing.T) {
	res := &models.ScenarioResult{
		IMs: []string{"PGA", "pSA_0.5"},
		Ruptures: []models.RuptureScenario{
			{Name: "a", Mean: []float64{1}, Percentile16: []float64{1, 2}, Percentile84: []float64{1, 2}},
		},
	}
	if _, err := Build(res, 0); err == nil {
		t.Fatalf("ragged rupture should be rejected")
	}
}
