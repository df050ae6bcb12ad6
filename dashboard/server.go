/*
Copyright © 2026 the Hexposure authors.
This file is part of Hexposure.

Hexposure is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Hexposure is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Hexposure.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package dashboard serves a metrics artifact over an HTTP API for
// interactive exploration: region-wide summaries, filtered cell queries,
// quantile breaks for choropleth styling, and the region outline.
package dashboard

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ctessum/geom"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/ecospatial/hexposure"
)

// Server serves the dashboard API for one loaded metrics artifact. The
// artifact is read once at startup; an artifact that fails schema
// validation is refused rather than served partially.
type Server struct {
	mux     *chi.Mux
	records []*hexposure.Record
}

// NewServer loads the metrics artifact at path and builds the API router.
func NewServer(path string) (*Server, error) {
	records, err := hexposure.ReadMetrics(path)
	if err != nil {
		return nil, err
	}
	s := &Server{records: records}
	s.mux = chi.NewRouter()
	s.mux.Use(middleware.Recoverer)
	s.mux.Use(requestLogger)
	s.mux.Get("/api/summary", s.handleSummary)
	s.mux.Get("/api/hexes", s.handleHexes)
	s.mux.Get("/api/quantiles", s.handleQuantiles)
	s.mux.Get("/api/outline", s.handleOutline)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.WithFields(logrus.Fields{
			"method":  r.Method,
			"path":    r.URL.Path,
			"elapsed": time.Since(start),
		}).Debug("dashboard request")
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Error("dashboard: encoding response")
	}
}

// Summary is the region-wide aggregate of the loaded artifact.
type Summary struct {
	Cells           int            `json:"cells"`
	TotalRoadKm     float64        `json:"total_road_km"`
	MeanExposure    float64        `json:"mean_exposure"`
	MaxExposure     float64        `json:"max_exposure"`
	MaxExposureCell string         `json:"max_exposure_cell,omitempty"`
	BiomeCellCounts map[string]int `json:"biome_cell_counts"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum := Summary{
		Cells:           len(s.records),
		BiomeCellCounts: make(map[string]int),
	}
	for _, rec := range s.records {
		sum.TotalRoadKm += rec.RoadLengthKm
		sum.MeanExposure += rec.ExposureScore
		if rec.ExposureScore > sum.MaxExposure {
			sum.MaxExposure = rec.ExposureScore
			sum.MaxExposureCell = rec.CellID
		}
		sum.BiomeCellCounts[rec.DominantBiome]++
	}
	if len(s.records) > 0 {
		sum.MeanExposure /= float64(len(s.records))
	}
	writeJSON(w, sum)
}

// handleHexes returns the cells passing the query filters as GeoJSON.
// Supported filters: biome (exact dominant-biome match), min_road and
// min_exposure (lower bounds), and top (the N highest-scoring cells after
// the other filters).
func (s *Server) handleHexes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	biome := q.Get("biome")
	minRoad, err := queryFloat(q.Get("min_road"))
	if err != nil {
		http.Error(w, `{"error":"min_road must be a number"}`, http.StatusBadRequest)
		return
	}
	minExposure, err := queryFloat(q.Get("min_exposure"))
	if err != nil {
		http.Error(w, `{"error":"min_exposure must be a number"}`, http.StatusBadRequest)
		return
	}
	top := 0
	if v := q.Get("top"); v != "" {
		if top, err = strconv.Atoi(v); err != nil || top < 0 {
			http.Error(w, `{"error":"top must be a non-negative integer"}`, http.StatusBadRequest)
			return
		}
	}

	var out []*hexposure.Record
	for _, rec := range s.records {
		if biome != "" && rec.DominantBiome != biome {
			continue
		}
		if rec.RoadLengthKm < minRoad || rec.ExposureScore < minExposure {
			continue
		}
		out = append(out, rec)
	}
	if top > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ExposureScore > out[j].ExposureScore
		})
		if len(out) > top {
			out = out[:top]
		}
	}
	writeJSON(w, hexposure.MetricsFeatureCollection(out))
}

// Quantiles are exposure-score class breaks for choropleth styling.
type Quantiles struct {
	Breaks []float64 `json:"breaks"`
}

func (s *Server) handleQuantiles(w http.ResponseWriter, r *http.Request) {
	scores := make([]float64, len(s.records))
	for i, rec := range s.records {
		scores[i] = rec.ExposureScore
	}
	sort.Float64s(scores)
	q := Quantiles{Breaks: make([]float64, 0, 4)}
	if len(scores) > 0 {
		for _, p := range []float64{0.2, 0.4, 0.6, 0.8} {
			q.Breaks = append(q.Breaks, stat.Quantile(p, stat.Empirical, scores, nil))
		}
	}
	writeJSON(w, q)
}

// handleOutline returns the union of all cell boundaries, the effective
// gridded footprint of the region.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	var outline geom.Polygonal
	for _, rec := range s.records {
		if outline == nil {
			outline = rec.Geom
		} else {
			outline = outline.Union(rec.Geom)
		}
	}
	if outline == nil {
		http.Error(w, `{"error":"the artifact has no cells"}`, http.StatusNotFound)
		return
	}
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(hexposure.GeoJSONGeometry(outline)))
	writeJSON(w, fc)
}

func queryFloat(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
