package gms

import (
	"errors"
	"testing"

	"github.com/seismostack/hazview/internal/models"
)

func validResult() *models.GMSResult {
	series := func() map[string][]float64 {
		return map[string][]float64{
			"PGA":     {0.1, 0.2, 0.3},
			"pSA_1.0": {0.2, 0.4, 0.6},
		}
	}
	return &models.GMSResult{
		IMVector:       []string{"pSA_1.0", "PGA"},
		ConditioningIM: "pSA_0.5",
		IMLevel:        0.35,
		CDFX:           series(),
		CDFY:           series(),
		Realisations:   series(),
		SelectedGMs:    series(),
		Metadata: map[string][]float64{
			"mag":  {6.1, 6.5, 7.0},
			"rrup": {12, 30, 55},
			"vs30": {250, 300, 400},
			"sf":   {0.9, 1.1, 1.3},
		},
	}
}

var requestedVector = []models.IM{"PGA", "pSA_1.0"}

func TestValidateResultPasses(t *testing.T) {
	if err := ValidateResult(validResult(), requestedVector, "pSA_0.5"); err != nil {
		t.Fatalf("expected valid result, got %v", err)
	}
}

func TestValidateResultOrderInsensitive(t *testing.T) {
	res := validResult()
	res.IMVector = []string{"PGA", "pSA_1.0"}
	if err := ValidateResult(res, []models.IM{"pSA_1.0", "PGA"}, "pSA_0.5"); err != nil {
		t.Fatalf("sorted comparison should ignore ordering, got %v", err)
	}
}

func codeOf(t *testing.T, err error) ValidationCode {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return verr.Code
}

func TestValidateResultDiscriminatesFailures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.GMSResult)
		want   ValidationCode
	}{
		{"missing im", func(r *models.GMSResult) { r.IMVector = []string{"PGA"} }, CodeIMVectorMismatch},
		{"extra im", func(r *models.GMSResult) { r.IMVector = append(r.IMVector, "PGV") }, CodeIMVectorMismatch},
		{"cdf x key", func(r *models.GMSResult) { delete(r.CDFX, "PGA") }, CodeCDFXMismatch},
		{"cdf y key", func(r *models.GMSResult) { r.CDFY["PGV"] = []float64{0.1} }, CodeCDFYMismatch},
		{"realisations key", func(r *models.GMSResult) { delete(r.Realisations, "pSA_1.0") }, CodeRealisationsMismatch},
		{"conditioning im", func(r *models.GMSResult) { r.ConditioningIM = "pSA_1.0" }, CodeConditioningIMMismatch},
		{"metadata key", func(r *models.GMSResult) { delete(r.Metadata, "vs30") }, CodeMetadataMismatch},
		{"metadata extra", func(r *models.GMSResult) { r.Metadata["ztor"] = []float64{1} }, CodeMetadataMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := validResult()
			tc.mutate(res)
			err := ValidateResult(res, requestedVector, "pSA_0.5")
			if err == nil {
				t.Fatalf("expected failure")
			}
			if got := codeOf(t, err); got != tc.want {
				t.Fatalf("got code %s want %s", got, tc.want)
			}
		})
	}
}

func TestValidateResultNil(t *testing.T) {
	err := ValidateResult(nil, requestedVector, "pSA_0.5")
	if got := codeOf(t, err); got != CodeMissingResult {
		t.Fatalf("got code %s want %s", got, CodeMissingResult)
	}
}

func TestValidateChecksShortCircuitInOrder(t *testing.T) {
	// Both the IM vector and the metadata are broken; the earlier check wins.
	res := validResult()
	res.IMVector = []string{"PGA"}
	res.Metadata = map[string][]float64{}
	err := ValidateResult(res, requestedVector, "pSA_0.5")
	if got := codeOf(t, err); got != CodeIMVectorMismatch {
		t.Fatalf("got code %s want %s", got, CodeIMVectorMismatch)
	}
}
