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

package hexposure

import "fmt"

// Config is the run configuration for the metrics pipeline. All of it is
// explicit; there are no hidden constants, so the same code can run at any
// resolution or in any metric projection.
type Config struct {
	// Resolution is the fixed H3 resolution for this run. It is chosen by
	// the caller, never auto-selected.
	Resolution int

	// MetricProj is the proj4 string of the length/area-preserving
	// coordinate system used for all overlay arithmetic. Empty means
	// DefaultMetricProj.
	MetricProj string

	// Input layer paths, all GeoJSON in geographic coordinates.
	BoundaryPath string
	RoadsPath    string
	BiomesPath   string

	// OutputPath receives the per-cell metrics artifact.
	OutputPath string

	// Grid optionally supplies a pre-generated grid, for example one
	// restored from cache. When nil the grid is generated from the
	// boundary layer.
	Grid *Grid
}

// Run executes the full pipeline: boundary → grid → overlay → metrics →
// artifact. Progress messages are sent on msgLog if it is non-nil. A run
// either completes and writes the full artifact, or fails and writes
// nothing.
func Run(cfg Config, msgLog chan string) error {
	msg := func(format string, args ...interface{}) {
		if msgLog != nil {
			msgLog <- fmt.Sprintf(format, args...)
		}
	}

	grid := cfg.Grid
	if grid == nil {
		msg("Reading boundary layer: %s", cfg.BoundaryPath)
		region, err := ReadBoundary(cfg.BoundaryPath)
		if err != nil {
			return err
		}
		msg("Generating grid at resolution %d", cfg.Resolution)
		grid, err = NewGrid(region, cfg.Resolution)
		if err != nil {
			return err
		}
	}
	msg("Grid has %d cells", len(grid.Cells))

	msg("Reading road layer: %s", cfg.RoadsPath)
	roads, err := ReadRoads(cfg.RoadsPath)
	if err != nil {
		return err
	}
	msg("Reading biome layer: %s", cfg.BiomesPath)
	biomes, err := ReadBiomes(cfg.BiomesPath)
	if err != nil {
		return err
	}

	metricProj := cfg.MetricProj
	if metricProj == "" {
		metricProj = DefaultMetricProj
	}
	agg, err := NewAggregator(grid, metricProj)
	if err != nil {
		return err
	}

	msg("Aggregating road lengths over %d features", len(roads))
	roadKm, err := agg.RoadLengths(roads)
	if err != nil {
		return err
	}
	msg("Aggregating biome shares over %d features", len(biomes))
	shares, err := agg.BiomeShares(biomes)
	if err != nil {
		return err
	}

	records := Synthesize(grid, roadKm, DominantBiomes(shares))
	msg("Writing %d metric records to %s", len(records), cfg.OutputPath)
	return WriteMetrics(cfg.OutputPath, records)
}
