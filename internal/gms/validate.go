// Package gms turns raw ground-motion-selection responses into validated,
// plot-ready spectral series. Everything here is a pure function over the
// result payload; state lives with the caller.
package gms

import (
	"fmt"
	"sort"

	"github.com/seismostack/hazview/internal/models"
)

// ValidationCode discriminates the structural check a GMS result failed.
type ValidationCode string

const (
	CodeMissingResult          ValidationCode = "missing_result"
	CodeIMVectorMismatch       ValidationCode = "im_vector_mismatch"
	CodeCDFXMismatch           ValidationCode = "cdf_x_mismatch"
	CodeCDFYMismatch           ValidationCode = "cdf_y_mismatch"
	CodeRealisationsMismatch   ValidationCode = "realisations_mismatch"
	CodeConditioningIMMismatch ValidationCode = "conditioning_im_mismatch"
	CodeMetadataMismatch       ValidationCode = "metadata_mismatch"
)

// ValidationError reports which structural check a result failed.
type ValidationError struct {
	Code ValidationCode
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gms result failed validation: %s", e.Code)
}

// ValidateResult checks that a GMS result structurally corresponds to the
// request that produced it. Checks run in a fixed order and short-circuit on
// the first failure; nil means the result is safe to hand to the reshaper.
func ValidateResult(res *models.GMSResult, vector []models.IM, conditioning models.IM) error {
	if res == nil {
		return &ValidationError{Code: CodeMissingResult}
	}

	requested := sortedStrings(models.IMStrings(vector))

	if !equalSorted(sortedStrings(res.IMVector), requested) {
		return &ValidationError{Code: CodeIMVectorMismatch}
	}
	if !equalSorted(sortedKeys(res.CDFX), requested) {
		return &ValidationError{Code: CodeCDFXMismatch}
	}
	if !equalSorted(sortedKeys(res.CDFY), requested) {
		return &ValidationError{Code: CodeCDFYMismatch}
	}
	if !equalSorted(sortedKeys(res.Realisations), requested) {
		return &ValidationError{Code: CodeRealisationsMismatch}
	}
	if models.IM(res.ConditioningIM) != conditioning {
		return &ValidationError{Code: CodeConditioningIMMismatch}
	}
	if !equalSorted(sortedKeys(res.Metadata), sortedStrings(models.MetadataFields())) {
		return &ValidationError{Code: CodeMetadataMismatch}
	}
	return nil
}

func sortedStrings(values []string) []string {
	sorted := append([]string(nil), values...)
	sort.Strings(sorted)
	return sorted
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
