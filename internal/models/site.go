package models

// Location is a site selection on the map.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// SiteParams describes the site conditions the core API resolved for a
// location.
type SiteParams struct {
	Station       string  `json:"station"`
	Vs30          float64 `json:"vs30"`
	Z1p0          float64 `json:"z1p0"`
	Z2p5          float64 `json:"z2p5"`
	DistanceKm    float64 `json:"distance"`
	DownloadToken string  `json:"download_token"`
}

// SoilClass is one NZ soil class entry from the lookup table.
type SoilClass struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// GMDataset identifies a selectable ground-motion database.
type GMDataset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SiteContext groups everything resolved for a site selection in one place:
// the station match, the ensemble's IM catalog, and the static lookups.
type SiteContext struct {
	Location    Location    `json:"location"`
	EnsembleID  string      `json:"ensemble_id"`
	Params      SiteParams  `json:"params"`
	IMs         []IM        `json:"ims"`
	SoilClasses []SoilClass `json:"soil_classes"`
	Datasets    []GMDataset `json:"gm_datasets"`
}
