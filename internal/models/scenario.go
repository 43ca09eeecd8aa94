package models

// RuptureScenario is one rupture's spectral response in a scenario analysis:
// mean plus 16th/84th percentile values over the scenario IM axis.
type RuptureScenario struct {
	Name         string    `json:"name"`
	Contribution float64   `json:"contribution"`
	Mean         []float64 `json:"mu"`
	Percentile16 []float64 `json:"percentile_16"`
	Percentile84 []float64 `json:"percentile_84"`
}

// ScenarioResult is the core API's scenario-analysis payload.
type ScenarioResult struct {
	IMs           []string          `json:"ims"`
	Ruptures      []RuptureScenario `json:"ruptures"`
	DownloadToken string            `json:"download_token"`
}
