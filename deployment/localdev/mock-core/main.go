// mock-core serves canned hazard core API responses for local development.
// Point hazview at it with HAZVIEW_CORE_BASE_URL=http://localhost:8081.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/v1/site", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"station":        "CCCC",
			"vs30":           250.0,
			"z1p0":           0.33,
			"z2p5":           1.2,
			"distance":       0.4,
			"download_token": "dl-site-1",
		})
	})

	mux.HandleFunc("GET /api/v1/ims", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"ims": []string{"PGA", "PGV", "pSA_0.1", "pSA_0.5", "pSA_1.0", "pSA_3.0"},
		})
	})

	mux.HandleFunc("GET /api/v1/soil-classes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"soil_classes": []map[string]string{
				{"code": "B", "name": "Rock"},
				{"code": "C", "name": "Shallow soil"},
				{"code": "D", "name": "Deep or soft soil"},
			},
		})
	})

	mux.HandleFunc("GET /api/v1/gm-datasets", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"datasets": []map[string]string{
				{"id": "nga_west_2", "name": "NGA West 2"},
			},
		})
	})

	mux.HandleFunc("GET /api/v1/hazard", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"im":             r.URL.Query().Get("im"),
			"im_values":      []float64{0.1, 0.2, 0.4, 0.8},
			"total":          []float64{0.02, 0.01, 0.004, 0.001},
			"fault":          []float64{0.012, 0.006, 0.0025, 0.0006},
			"ds":             []float64{0.008, 0.004, 0.0015, 0.0004},
			"percentile_16":  []float64{0.015, 0.007, 0.003, 0.0007},
			"percentile_84":  []float64{0.03, 0.015, 0.006, 0.0015},
			"branches":       map[string][]float64{"branch_a": {0.019, 0.009, 0.0038, 0.0009}},
			"download_token": "dl-hazard-1",
		})
	})

	mux.HandleFunc("GET /api/v1/hazard/nz-code", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"curves": []map[string]any{
				{
					"name":        "NZS1170.5",
					"im_values":   []float64{0.1, 0.3, 0.6},
					"exceedances": []float64{0.021, 0.0021, 0.0004},
				},
			},
			"download_token": "dl-nzcode-1",
		})
	})

	mux.HandleFunc("GET /api/v1/disagg", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"im":              r.URL.Query().Get("im"),
			"exceedance_rate": 0.002,
			"contributions": []map[string]any{
				{"rupture": "AlpineF2K", "contribution": 0.41, "magnitude": 8.1, "rrup": 120.5, "epsilon": 1.2},
				{"rupture": "PortHills", "contribution": 0.22, "magnitude": 6.3, "rrup": 4.2, "epsilon": 0.4},
				{"rupture": "distributed", "contribution": 0.37, "magnitude": 5.8, "rrup": 25.0, "epsilon": 0.9},
			},
			"download_token": "dl-disagg-1",
			"plot_tokens": map[string]string{
				"src":     "dl-disagg-src-1",
				"epsilon": "dl-disagg-eps-1",
			},
		})
	})

	mux.HandleFunc("GET /api/v1/uhs", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"uhs_results": map[string]map[string]float64{
				"0.002": {"PGA": 0.38, "pSA_0.1": 0.82, "pSA_0.5": 0.61, "pSA_1.0": 0.33, "pSA_3.0": 0.09},
				"0.001": {"PGA": 0.52, "pSA_0.1": 1.1, "pSA_0.5": 0.84, "pSA_1.0": 0.46, "pSA_3.0": 0.13},
			},
			"download_token": "dl-uhs-1",
		})
	})

	mux.HandleFunc("POST /api/v1/gms", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ConditioningIM string   `json:"IM_j"`
			IMVector       []string `json:"IMs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		cdfX := map[string][]float64{}
		cdfY := map[string][]float64{}
		realisations := map[string][]float64{}
		selected := map[string][]float64{}
		for _, im := range req.IMVector {
			cdfX[im] = []float64{0.1, 0.2, 0.4, 0.8}
			cdfY[im] = []float64{0.05, 0.3, 0.7, 1.0}
			realisations[im] = []float64{0.18, 0.35}
			selected[im] = []float64{0.21, 0.4}
		}
		writeJSON(w, map[string]any{
			"IMs":          req.IMVector,
			"IM_j":         req.ConditioningIM,
			"im_j_level":   0.35,
			"gcim_cdf_x":   cdfX,
			"gcim_cdf_y":   cdfY,
			"realisations": realisations,
			"selected_GMs": selected,
			"selected_gms_metadata": map[string][]float64{
				"mag":  {6.2, 7.1},
				"rrup": {14.0, 62.0},
				"vs30": {260.0, 410.0},
				"sf":   {0.95, 1.2},
			},
			"download_token": "dl-gms-1",
		})
	})

	mux.HandleFunc("GET /api/v1/scenario", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"ims": []string{"PGA", "pSA_0.5", "pSA_1.0"},
			"ruptures": []map[string]any{
				{
					"name":          "AlpineF2K",
					"contribution":  0.41,
					"mu":            []float64{0.31, 0.42, 0.27},
					"percentile_16": []float64{0.18, 0.25, 0.15},
					"percentile_84": []float64{0.52, 0.7, 0.46},
				},
				{
					"name":          "PortHills",
					"contribution":  0.22,
					"mu":            []float64{0.39, 0.5, 0.3},
					"percentile_16": []float64{0.22, 0.29, 0.17},
					"percentile_84": []float64{0.66, 0.85, 0.51},
				},
			},
			"download_token": "dl-scenario-1",
		})
	})

	mux.HandleFunc("GET /api/v1/download/{capability}", func(w http.ResponseWriter, r *http.Request) {
		capability := r.PathValue("capability")
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", capability+".zip"))
		_, _ = w.Write([]byte("mock " + capability + " bundle"))
	})

	logger := log.New(log.Writer(), "core-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8081",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8081")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
