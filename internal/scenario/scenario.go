// Package scenario reshapes rupture scenario payloads into period-ordered
// percentile curves for plotting.
package scenario

import (
	"fmt"
	"sort"

	"github.com/seismostack/hazview/internal/models"
)

// RuptureCurves is one rupture's plot-ready scenario overlay: the mean
// spectrum plus the 16th/84th envelope over the scenario period axis.
type RuptureCurves struct {
	Name         string    `json:"name"`
	Contribution float64   `json:"contribution"`
	Periods      []float64 `json:"periods"`
	Mean         []float64 `json:"mean"`
	Lower        []float64 `json:"percentile_16"`
	Upper        []float64 `json:"percentile_84"`
}

// Build orders the scenario IM axis canonically, realigns every rupture's
// arrays to it, and sorts ruptures descending by contribution. A positive
// limit truncates to the top ruptures.
func Build(res *models.ScenarioResult, limit int) ([]RuptureCurves, error) {
	if res == nil {
		return nil, fmt.Errorf("no result")
	}
	ims, err := models.ParseIMs(res.IMs)
	if err != nil {
		return nil, err
	}
	if len(ims) == 0 {
		return nil, fmt.Errorf("scenario result has no IM axis")
	}

	order := make([]int, len(ims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return ims[order[i]].Less(ims[order[j]]) })

	periods := make([]float64, 0, len(order))
	for _, idx := range order {
		period, _ := ims[idx].Period()
		periods = append(periods, period)
	}

	curves := make([]RuptureCurves, 0, len(res.Ruptures))
	for _, rupture := range res.Ruptures {
		mean, err := realign(rupture.Name, rupture.Mean, order)
		if err != nil {
			return nil, err
		}
		lower, err := realign(rupture.Name, rupture.Percentile16, order)
		if err != nil {
			return nil, err
		}
		upper, err := realign(rupture.Name, rupture.Percentile84, order)
		if err != nil {
			return nil, err
		}
		curves = append(curves, RuptureCurves{
			Name:         rupture.Name,
			Contribution: rupture.Contribution,
			Periods:      periods,
			Mean:         mean,
			Lower:        lower,
			Upper:        upper,
		})
	}

	sort.SliceStable(curves, func(i, j int) bool {
		return curves[i].Contribution > curves[j].Contribution
	})
	if limit > 0 && len(curves) > limit {
		curves = curves[:limit]
	}
	return curves, nil
}

func realign(rupture string, values []float64, order []int) ([]float64, error) {
	if len(values) != len(order) {
		return nil, fmt.Errorf("rupture %s has %d values for %d IMs", rupture, len(values), len(order))
	}
	out := make([]float64, 0, len(order))
	for _, idx := range order {
		out = append(out, values[idx])
	}
	return out, nil
}
