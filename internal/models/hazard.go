package models

// HazardResult is the core API's hazard-curve payload for one site and IM.
type HazardResult struct {
	IM            string               `json:"im"`
	IMValues      []float64            `json:"im_values"`
	Total         []float64            `json:"total"`
	Fault         []float64            `json:"fault"`
	Distributed   []float64            `json:"ds"`
	Branches      map[string][]float64 `json:"branches"`
	Percentile16  []float64            `json:"percentile_16"`
	Percentile84  []float64            `json:"percentile_84"`
	DownloadToken string               `json:"download_token"`
}

// CodeCurve is one NZ-code design curve (NZS1170.5 or NZTA) expressed as
// piecewise exceedance levels over IM values.
type CodeCurve struct {
	Name        string    `json:"name"`
	IMValues    []float64 `json:"im_values"`
	Exceedances []float64 `json:"exceedances"`
}

// NZCodeResult carries the code comparison curves for a hazard view.
type NZCodeResult struct {
	Curves        []CodeCurve `json:"curves"`
	DownloadToken string      `json:"download_token"`
}

// DisaggContribution is one rupture's share of the hazard at the requested
// exceedance, with its causal parameters.
type DisaggContribution struct {
	Rupture      string  `json:"rupture"`
	Contribution float64 `json:"contribution"`
	Magnitude    float64 `json:"magnitude"`
	Distance     float64 `json:"rrup"`
	Epsilon      float64 `json:"epsilon"`
}

// DisaggResult is the core API's disaggregation payload.
type DisaggResult struct {
	IM             string               `json:"im"`
	ExceedanceRate float64              `json:"exceedance_rate"`
	Contributions  []DisaggContribution `json:"contributions"`
	DownloadToken  string               `json:"download_token"`
	PlotTokens     map[string]string    `json:"plot_tokens"`
}

// UHSResult maps each requested exceedance rate to per-IM spectral values.
type UHSResult struct {
	Spectra       map[string]map[string]float64 `json:"uhs_results"`
	DownloadToken string                        `json:"download_token"`
}

// UHSSeries is one plot-ready uniform-hazard spectrum.
type UHSSeries struct {
	Rate    string    `json:"rate"`
	Periods []float64 `json:"periods"`
	Values  []float64 `json:"values"`
}
