// Package hazard reshapes core-API hazard, disaggregation, and UHS payloads
// into ordered, plot-ready series. Functions are pure and never alias or
// mutate their inputs.
package hazard

import (
	"fmt"
	"sort"

	"github.com/seismostack/hazview/internal/models"
)

// Curve is one plot-ready x/y series.
type Curve struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// View is the full overlay for a hazard-curve plot: the ensemble mean split
// by source type, per-branch curves, and the percentile envelope.
type View struct {
	IM            string  `json:"im"`
	Total         Curve   `json:"total"`
	Fault         Curve   `json:"fault"`
	Distributed   Curve   `json:"distributed"`
	Branches      []Curve `json:"branches"`
	Lower         Curve   `json:"percentile_16"`
	Upper         Curve   `json:"percentile_84"`
	DownloadToken string  `json:"download_token"`
}

// BuildView orders every curve of a hazard result by ascending IM level.
func BuildView(res *models.HazardResult) (View, error) {
	if res == nil {
		return View{}, fmt.Errorf("no result")
	}
	if len(res.IMValues) == 0 {
		return View{}, fmt.Errorf("hazard result has no IM values")
	}

	order := ascendingOrder(res.IMValues)
	xs := reorder(res.IMValues, order)

	view := View{IM: res.IM, DownloadToken: res.DownloadToken}
	var err error
	if view.Total, err = alignedCurve("Total", xs, res.Total, order); err != nil {
		return View{}, err
	}
	if len(res.Fault) > 0 {
		if view.Fault, err = alignedCurve("Fault", xs, res.Fault, order); err != nil {
			return View{}, err
		}
	}
	if len(res.Distributed) > 0 {
		if view.Distributed, err = alignedCurve("Distributed", xs, res.Distributed, order); err != nil {
			return View{}, err
		}
	}
	if len(res.Percentile16) > 0 {
		if view.Lower, err = alignedCurve("16th percentile", xs, res.Percentile16, order); err != nil {
			return View{}, err
		}
	}
	if len(res.Percentile84) > 0 {
		if view.Upper, err = alignedCurve("84th percentile", xs, res.Percentile84, order); err != nil {
			return View{}, err
		}
	}

	names := make([]string, 0, len(res.Branches))
	for name := range res.Branches {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		branch, err := alignedCurve(name, xs, res.Branches[name], order)
		if err != nil {
			return View{}, err
		}
		view.Branches = append(view.Branches, branch)
	}
	return view, nil
}

// StepCurve duplicates points so a piecewise-constant series renders as steps:
// each level extends to the next x before dropping to the next level.
func StepCurve(name string, xs, ys []float64) (Curve, error) {
	if len(xs) != len(ys) {
		return Curve{}, fmt.Errorf("step curve arrays are ragged (%d x, %d y)", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return Curve{Name: name}, nil
	}
	stepX := make([]float64, 0, 2*len(xs)-1)
	stepY := make([]float64, 0, 2*len(xs)-1)
	stepX = append(stepX, xs[0])
	stepY = append(stepY, ys[0])
	for i := 1; i < len(xs); i++ {
		stepX = append(stepX, xs[i], xs[i])
		stepY = append(stepY, ys[i-1], ys[i])
	}
	return Curve{Name: name, X: stepX, Y: stepY}, nil
}

// BuildCodeCurves converts NZ-code piecewise levels into step curves for
// overlay on a hazard plot.
func BuildCodeCurves(res *models.NZCodeResult) ([]Curve, error) {
	if res == nil {
		return nil, fmt.Errorf("no result")
	}
	curves := make([]Curve, 0, len(res.Curves))
	for _, code := range res.Curves {
		order := ascendingOrder(code.IMValues)
		xs := reorder(code.IMValues, order)
		if len(code.Exceedances) != len(code.IMValues) {
			return nil, fmt.Errorf("code curve %s arrays are ragged", code.Name)
		}
		ys := reorder(code.Exceedances, order)
		curve, err := StepCurve(code.Name, xs, ys)
		if err != nil {
			return nil, err
		}
		curves = append(curves, curve)
	}
	return curves, nil
}

// TopContributions returns a copy of the disaggregation contributions sorted
// descending by contribution, truncated to limit when limit is positive.
func TopContributions(res *models.DisaggResult, limit int) []models.DisaggContribution {
	if res == nil {
		return nil
	}
	sorted := append([]models.DisaggContribution(nil), res.Contributions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Contribution > sorted[j].Contribution
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// BuildUHS pivots per-rate spectral values into period-ordered series, one
// per exceedance rate. Scalar IMs (PGA) plot at period zero. Entries with
// malformed identifiers fail the whole reshape, matching the strictness of
// the hazard view.
func BuildUHS(res *models.UHSResult) ([]models.UHSSeries, error) {
	if res == nil {
		return nil, fmt.Errorf("no result")
	}
	rates := make([]string, 0, len(res.Spectra))
	for rate := range res.Spectra {
		rates = append(rates, rate)
	}
	sort.Strings(rates)

	series := make([]models.UHSSeries, 0, len(rates))
	for _, rate := range rates {
		values := res.Spectra[rate]
		ims := make([]models.IM, 0, len(values))
		for name := range values {
			im := models.IM(name)
			if !im.Valid() {
				return nil, fmt.Errorf("uhs rate %s has malformed IM %q", rate, name)
			}
			ims = append(ims, im)
		}
		ims = models.SortIMs(ims)

		periods := make([]float64, 0, len(ims))
		ordinates := make([]float64, 0, len(ims))
		for _, im := range ims {
			period, _ := im.Period()
			periods = append(periods, period)
			ordinates = append(ordinates, values[string(im)])
		}
		series = append(series, models.UHSSeries{Rate: rate, Periods: periods, Values: ordinates})
	}
	return series, nil
}

func ascendingOrder(xs []float64) []int {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return xs[order[i]] < xs[order[j]] })
	return order
}

func reorder(values []float64, order []int) []float64 {
	out := make([]float64, 0, len(order))
	for _, idx := range order {
		out = append(out, values[idx])
	}
	return out
}

func alignedCurve(name string, xs, ys []float64, order []int) (Curve, error) {
	if len(ys) != len(order) {
		return Curve{}, fmt.Errorf("curve %s has %d values for %d IM levels", name, len(ys), len(order))
	}
	return Curve{Name: name, X: xs, Y: reorder(ys, order)}, nil
}
