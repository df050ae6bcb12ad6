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

package hexposureutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/ecospatial/hexposure"
	"github.com/ecospatial/hexposure/ingest"
)

// ConfigData is the fully resolved run configuration, assembled from the
// configuration file, command-line flags, and environment variables.
type ConfigData struct {
	// Resolution is the H3 resolution for the grid, 0 through 15.
	Resolution int

	// MetricProj is the proj4 string for overlay arithmetic.
	MetricProj string

	// Processed layer paths.
	BoundaryPath string
	RoadsPath    string
	BiomesPath   string

	// OutputFile receives the metrics artifact.
	OutputFile string

	// CacheDir is the grid cache location; empty disables disk caching.
	CacheDir string

	// Ingest configures the raw-source ingestion run.
	Ingest ingest.Config

	// ExportFile and ExportTolerance configure the deploy export.
	ExportFile      string
	ExportTolerance float64

	// ServeAddr is the dashboard listen address.
	ServeAddr string
}

// LoadConfig assembles a ConfigData from the configuration source, expanding
// environment variables in all paths.
func LoadConfig(cfg *viper.Viper) (*ConfigData, error) {
	c := &ConfigData{
		Resolution:   cfg.GetInt("Grid.Resolution"),
		MetricProj:   cfg.GetString("Grid.MetricProj"),
		BoundaryPath: os.ExpandEnv(cfg.GetString("Layers.Boundary")),
		RoadsPath:    os.ExpandEnv(cfg.GetString("Layers.Roads")),
		BiomesPath:   os.ExpandEnv(cfg.GetString("Layers.Biomes")),
		OutputFile:   os.ExpandEnv(cfg.GetString("OutputFile")),
		CacheDir:     os.ExpandEnv(cfg.GetString("Grid.CacheDir")),
		Ingest: ingest.Config{
			BoundaryShapefile: os.ExpandEnv(cfg.GetString("Ingest.BoundaryShapefile")),
			RegionName:        cfg.GetString("Ingest.RegionName"),
			BiomeShapefile:    os.ExpandEnv(cfg.GetString("Ingest.BiomeShapefile")),
			RoadBackend:       cfg.GetString("Ingest.RoadBackend"),
			RoadShapefile:     os.ExpandEnv(cfg.GetString("Ingest.RoadShapefile")),
			OSMFile:           os.ExpandEnv(cfg.GetString("Ingest.OSMFile")),
			OutputDir:         os.ExpandEnv(cfg.GetString("Ingest.OutputDir")),
		},
		ExportFile:      os.ExpandEnv(cfg.GetString("Export.OutputFile")),
		ExportTolerance: cfg.GetFloat64("Export.Tolerance"),
		ServeAddr:       cfg.GetString("Serve.Addr"),
	}
	classes, err := cast.ToStringSliceE(cfg.Get("Ingest.RoadClasses"))
	if err != nil {
		return nil, fmt.Errorf("hexposureutil: reading Ingest.RoadClasses: %v", err)
	}
	c.Ingest.RoadClasses = classes

	if c.Resolution < 0 || c.Resolution > 15 {
		return nil, fmt.Errorf("hexposureutil: Grid.Resolution must be between 0 and 15 but is %d", c.Resolution)
	}
	if c.MetricProj == "" {
		c.MetricProj = hexposure.DefaultMetricProj
	}
	if c.ExportTolerance < 0 {
		return nil, fmt.Errorf("hexposureutil: Export.Tolerance must not be negative but is %g", c.ExportTolerance)
	}
	return c, nil
}

// checkOutputFile makes sure the output file's directory exists before a
// long run starts.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`hexposureutil: an output file must be specified (for example: OutputFile="metrics.geojson")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("hexposureutil: the output directory doesn't exist: %v", err)
	}
	return f, nil
}

// pipelineConfig translates the resolved configuration into a pipeline run
// configuration.
func (c *ConfigData) pipelineConfig(grid *hexposure.Grid) hexposure.Config {
	return hexposure.Config{
		Resolution:   c.Resolution,
		MetricProj:   c.MetricProj,
		BoundaryPath: c.BoundaryPath,
		RoadsPath:    c.RoadsPath,
		BiomesPath:   c.BiomesPath,
		OutputPath:   c.OutputFile,
		Grid:         grid,
	}
}
