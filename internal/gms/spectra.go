package gms

import (
	"fmt"
	"log/slog"

	"github.com/seismostack/hazview/internal/metrics"
	"github.com/seismostack/hazview/internal/models"
)

// Percentile thresholds for the GCIM band curves.
const (
	thresholdLower  = 0.16
	thresholdMedian = 0.5
	thresholdUpper  = 0.84
)

// BuildSpectra derives the response-spectrum overlay from a validated GMS
// result: the 16th/median/84th GCIM band plus one trace per realisation and
// per selected ground motion. Reshaping is best-effort: a malformed payload
// produces a structured error event and an empty trace set rather than a
// failure, so the surrounding view degrades to a placeholder.
func BuildSpectra(logger *slog.Logger, res *models.GMSResult, vector []models.IM, conditioning models.IM) models.Spectra {
	if logger == nil {
		logger = slog.Default()
	}
	spectra, err := reshape(res, vector, conditioning)
	if err != nil {
		logger.Error("spectra reshape failed",
			slog.String("conditioning_im", string(conditioning)),
			slog.Int("im_vector_size", len(vector)),
			slog.Any("error", err))
		metrics.ObserveReshapeFailure("gms")
		return models.Spectra{}
	}
	return spectra
}

func reshape(res *models.GMSResult, vector []models.IM, conditioning models.IM) (models.Spectra, error) {
	if res == nil {
		return models.Spectra{}, fmt.Errorf("no result")
	}

	axis := PeriodAxis(vector, conditioning)
	if len(axis) == 0 {
		return models.Spectra{}, fmt.Errorf("empty period axis")
	}
	periods := make([]float64, 0, len(axis))
	for _, im := range axis {
		period, _ := im.Period()
		periods = append(periods, period)
	}

	median := make([]float64, 0, len(axis))
	lower := make([]float64, 0, len(axis))
	upper := make([]float64, 0, len(axis))
	for _, im := range axis {
		if im == conditioning {
			// The server returns no distribution for the conditioning
			// variable; it is a fixed point at the anchored level.
			median = append(median, res.IMLevel)
			lower = append(lower, res.IMLevel)
			upper = append(upper, res.IMLevel)
			continue
		}
		xs, ys, err := cdfFor(res, im)
		if err != nil {
			return models.Spectra{}, err
		}
		median = append(median, xs[percentileIndex(ys, thresholdMedian)])
		lower = append(lower, xs[percentileIndex(ys, thresholdLower)])
		upper = append(upper, xs[percentileIndex(ys, thresholdUpper)])
	}

	realisations, err := drawTraces("Realisations", res.Realisations, axis, conditioning, res.IMLevel, periods)
	if err != nil {
		return models.Spectra{}, err
	}
	selected, err := drawTraces("Selected GMs", res.SelectedGMs, axis, conditioning, res.IMLevel, periods)
	if err != nil {
		return models.Spectra{}, err
	}

	return models.Spectra{
		Median:       models.SpectraSeries{Name: "GCIM median", Periods: periods, Values: median},
		Lower:        models.SpectraSeries{Name: "GCIM 16th percentile", Periods: periods, Values: lower},
		Upper:        models.SpectraSeries{Name: "GCIM 84th percentile", Periods: periods, Values: upper},
		Realisations: realisations,
		SelectedGMs:  selected,
	}, nil
}

// PeriodAxis builds the ordered axis for a spectra plot: every identifier of
// the requested vector exactly once, plus the conditioning IM when it carries
// a period and is not already present, canonically ordered.
func PeriodAxis(vector []models.IM, conditioning models.IM) []models.IM {
	axis := append([]models.IM(nil), vector...)
	if _, hasPeriod := conditioning.Period(); hasPeriod && !containsIM(axis, conditioning) {
		axis = append(axis, conditioning)
	}
	return models.SortIMs(axis)
}

// percentileIndex locates the first index whose CDF value reaches the
// threshold. When no value does (e.g. a degenerate all-zero CDF) the last
// valid index is used; that clamp is deliberate, documented behaviour.
func percentileIndex(ys []float64, threshold float64) int {
	for i, y := range ys {
		if y >= threshold {
			return i
		}
	}
	return len(ys) - 1
}

func cdfFor(res *models.GMSResult, im models.IM) (xs, ys []float64, err error) {
	xs, ok := res.CDFX[string(im)]
	if !ok {
		return nil, nil, fmt.Errorf("cdf x missing for %s", im)
	}
	ys, ok = res.CDFY[string(im)]
	if !ok {
		return nil, nil, fmt.Errorf("cdf y missing for %s", im)
	}
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, nil, fmt.Errorf("cdf arrays for %s are ragged (%d x, %d y)", im, len(xs), len(ys))
	}
	return xs, ys, nil
}

// drawTraces builds one period-ordered trace per draw: trace i takes the i-th
// value of every IM's array, substituting the conditioning level at the
// conditioning IM's position.
func drawTraces(group string, values map[string][]float64, axis []models.IM, conditioning models.IM, level float64, periods []float64) ([]models.SpectraSeries, error) {
	draws := -1
	for _, im := range axis {
		if im == conditioning {
			continue
		}
		arr, ok := values[string(im)]
		if !ok {
			return nil, fmt.Errorf("%s array missing for %s", group, im)
		}
		if draws == -1 {
			draws = len(arr)
		} else if len(arr) != draws {
			return nil, fmt.Errorf("%s arrays are ragged: %s has %d draws, expected %d", group, im, len(arr), draws)
		}
	}
	if draws <= 0 {
		return nil, nil
	}

	traces := make([]models.SpectraSeries, 0, draws)
	for i := 0; i < draws; i++ {
		trace := make([]float64, 0, len(axis))
		for _, im := range axis {
			if im == conditioning {
				trace = append(trace, level)
				continue
			}
			trace = append(trace, values[string(im)][i])
		}
		name := group
		if i > 0 {
			// Traces beyond the first are grouped visually, not labelled.
			name = ""
		}
		traces = append(traces, models.SpectraSeries{Name: name, Periods: periods, Values: trace})
	}
	return traces, nil
}

func containsIM(ims []models.IM, target models.IM) bool {
	for _, im := range ims {
		if im == target {
			return true
		}
	}
	return false
}
