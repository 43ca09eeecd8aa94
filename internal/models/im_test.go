package models

import (
	"reflect"
	"testing"
)

func TestIMPeriodRoundTrip(t *testing.T) {
	im := IM("pSA_0.5")
	if im.Family() != "pSA" {
		t.Fatalf("family = %q", im.Family())
	}
	period, ok := im.Period()
	if !ok || period != 0.5 {
		t.Fatalf("period = %v, %v", period, ok)
	}
	if rebuilt := NewPeriodIM(im.Family(), period); rebuilt != im {
		t.Fatalf("round trip produced %q", rebuilt)
	}
}

func TestIMScalar(t *testing.T) {
	im := IM("PGA")
	if _, ok := im.Period(); ok {
		t.Fatalf("PGA should carry no period")
	}
	if !im.Valid() {
		t.Fatalf("PGA should be valid")
	}
}

func TestIMMalformed(t *testing.T) {
	for _, name := range []string{"", "pSA_abc", "_0.5"} {
		if IM(name).Valid() {
			t.Fatalf("%q should be rejected", name)
		}
	}
}

func TestSortIMsCanonicalOrder(t *testing.T) {
	got := SortIMs([]IM{"pSA_2.0", "Ds595", "pSA_0.1", "PGV", "PGA", "pSA_10.0"})
	want := []IM{"PGA", "PGV", "Ds595", "pSA_0.1", "pSA_2.0", "pSA_10.0"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestSortIMsDoesNotMutate(t *testing.T) {
	in := []IM{"pSA_1.0", "PGA"}
	SortIMs(in)
	if in[0] != "pSA_1.0" {
		t.Fatalf("input was reordered: %v", in)
	}
}

func floatPtr(v float64) *float64 { return &v }

func validRequest() GMSRequest {
	return GMSRequest{
		EnsembleID:       "v20p5emp",
		Station:          "CCCC",
		ConditioningIM:   "pSA_0.5",
		IMVector:         []IM{"PGA", "pSA_1.0"},
		IMLevel:          floatPtr(0.35),
		NumGroundMotions: 10,
		Replicates:       1,
		Weights:          map[IM]float64{"PGA": 0.5, "pSA_1.0": 0.5},
		CausalBounds: CausalBounds{
			Magnitude:       Bounds{Min: 5, Max: 8},
			RuptureDistance: Bounds{Min: 0, Max: 200},
			Vs30:            Bounds{Min: 100, Max: 800},
			ScaleFactor:     Bounds{Min: 0.3, Max: 3},
		},
		DatasetID: "nga_west_2",
	}
}

func TestGMSRequestValidate(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}

func TestGMSRequestLevelRateExclusive(t *testing.T) {
	req := validRequest()
	req.ExceedanceRate = floatPtr(0.002)
	if err := req.Validate(); err == nil {
		t.Fatalf("level and rate together must be rejected")
	}

	req = validRequest()
	req.IMLevel = nil
	if err := req.Validate(); err == nil {
		t.Fatalf("neither level nor rate must be rejected")
	}

	req = validRequest()
	req.IMLevel = nil
	req.ExceedanceRate = floatPtr(0.002)
	if err := req.Validate(); err != nil {
		t.Fatalf("rate-anchored request rejected: %v", err)
	}
}

func TestGMSRequestRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*GMSRequest)
	}{
		{"empty vector", func(r *GMSRequest) { r.IMVector = nil }},
		{"malformed vector entry", func(r *GMSRequest) { r.IMVector = []IM{"pSA_x"} }},
		{"zero gms", func(r *GMSRequest) { r.NumGroundMotions = 0 }},
		{"zero replicates", func(r *GMSRequest) { r.Replicates = 0 }},
		{"negative weight", func(r *GMSRequest) { r.Weights["PGA"] = -1 }},
		{"inverted bounds", func(r *GMSRequest) { r.CausalBounds.Magnitude = Bounds{Min: 8, Max: 5} }},
		{"missing station", func(r *GMSRequest) { r.Station = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			if err := req.Validate(); err == nil {
				t.Fatalf("expected rejection")
			}
		})
	}
}
