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

// Package hexposureutil wires the exposure pipeline, ingestion, export, and
// dashboard into a configurable command-line tool.
package hexposureutil

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ecospatial/hexposure"
	"github.com/ecospatial/hexposure/dashboard"
	"github.com/ecospatial/hexposure/ingest"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Hexposure.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the logging verbosity: debug, info, warn, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Grid.Resolution",
			usage: `
              Grid.Resolution specifies the H3 resolution of the analysis grid,
              from 0 (coarsest) to 15 (finest). The resolution is fixed for a
              run; it is never auto-selected.`,
			shorthand:  "r",
			defaultVal: 7,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.PersistentFlags()},
		},
		{
			name: "Grid.MetricProj",
			usage: `
              Grid.MetricProj gives the projection used for length and area
              arithmetic in Proj4 or WKT format. It must preserve lengths and
              areas over the analysis region.`,
			defaultVal: hexposure.DefaultMetricProj,
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Grid.CacheDir",
			usage: `
              Grid.CacheDir specifies a directory for caching generated grids
              across runs. An empty value keeps grids in memory only.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.PersistentFlags()},
		},
		{
			name: "Layers.Boundary",
			usage: `
              Layers.Boundary is the path to the processed region boundary
              layer in GeoJSON format.`,
			defaultVal: "layers/boundary.geojson",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags(), runCmd.PersistentFlags()},
		},
		{
			name: "Layers.Roads",
			usage: `
              Layers.Roads is the path to the processed road layer in GeoJSON
              format.`,
			defaultVal: "layers/roads.geojson",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "Layers.Biomes",
			usage: `
              Layers.Biomes is the path to the processed land-cover layer in
              GeoJSON format.`,
			defaultVal: "layers/biomes.geojson",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the per-cell metrics artifact will
              be written.`,
			shorthand:  "o",
			defaultVal: "metrics.geojson",
			flagsets:   []*pflag.FlagSet{runCmd.PersistentFlags(), exportCmd.Flags(), serveCmd.Flags()},
		},
		{
			name: "Ingest.BoundaryShapefile",
			usage: `
              Ingest.BoundaryShapefile is the path to the raw region boundary
              polygon shapefile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.RegionName",
			usage: `
              Ingest.RegionName labels the dissolved boundary feature in the
              processed layer.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.BiomeShapefile",
			usage: `
              Ingest.BiomeShapefile is the path to the raw land-cover polygon
              shapefile. Its label column is matched against the accepted
              alias list.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.RoadBackend",
			usage: `
              Ingest.RoadBackend selects the road source: 'shapefile' or
              'osm'.`,
			defaultVal: ingest.BackendShapefile,
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.RoadShapefile",
			usage: `
              Ingest.RoadShapefile is the path to the raw road line shapefile,
              used with the 'shapefile' road backend.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.OSMFile",
			usage: `
              Ingest.OSMFile is the path to an OpenStreetMap .osm.pbf extract,
              used with the 'osm' road backend.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.RoadClasses",
			usage: `
              Ingest.RoadClasses restricts ingested roads to the given highway
              classes. An empty list keeps all classes.`,
			defaultVal: []string{"motorway", "trunk", "primary", "secondary"},
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Ingest.OutputDir",
			usage: `
              Ingest.OutputDir is the directory that receives the processed
              layer files.`,
			defaultVal: "layers",
			flagsets:   []*pflag.FlagSet{ingestCmd.Flags()},
		},
		{
			name: "Export.OutputFile",
			usage: `
              Export.OutputFile is the path where the simplified deploy copy
              of the metrics artifact will be written.`,
			defaultVal: "deploy/metrics.geojson",
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Export.Tolerance",
			usage: `
              Export.Tolerance is the geometry simplification tolerance for
              the deploy export, in degrees. Zero disables simplification.`,
			defaultVal: 0.0001,
			flagsets:   []*pflag.FlagSet{exportCmd.Flags()},
		},
		{
			name: "Serve.Addr",
			usage: `
              Serve.Addr is the address the dashboard server listens on.`,
			defaultVal: ":8080",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("HEXPOSURE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(ingestCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(exportCmd)
	Root.AddCommand(serveCmd)
}

// outChan returns a channel printing to the log.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for msg := range outChan {
			logrus.Info(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one, and
// applies the configured log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("hexposure: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("hexposure: invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "hexposure",
	Short: "A hexagonal road-biome exposure metric pipeline.",
	Long: `Hexposure covers a region with a fixed-resolution hexagonal grid and
computes, for every cell, the total road length, the dominant biome with its
area share, and a composite exposure score. Use the subcommands specified
below to access the pipeline stages.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'HEXPOSURE_var' where 'var'
is the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Hexposure.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Hexposure v%s\n", hexposure.Version)
	},
	DisableAutoGenTag: true,
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Convert raw sources into processed layers",
	Long: `ingest reads the configured boundary, land-cover, and road sources,
reprojects them to geographic coordinates, clips them to the region boundary,
and writes the processed GeoJSON layers the other commands consume.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		return ingest.Run(cmd.Context(), c.Ingest)
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Generate the hexagonal grid",
	Long: `grid generates the hexagonal grid covering the region boundary and
stores it in the grid cache, so later runs can skip the polyfill. It reports
the number of cells the configured resolution produces.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		grid, err := buildGrid(cmd.Context(), c)
		if err != nil {
			return err
		}
		logrus.WithFields(logrus.Fields{
			"resolution": grid.Resolution,
			"cells":      len(grid.Cells),
		}).Info("grid generated")
		return nil
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the exposure pipeline",
	Long: `run executes the full pipeline: it covers the region boundary with
hexagons, overlays the road and land-cover layers onto them, and writes the
per-cell metrics artifact. The run either completes and writes the full
artifact, or fails and writes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		if c.OutputFile, err = checkOutputFile(c.OutputFile); err != nil {
			return err
		}
		grid, err := buildGrid(cmd.Context(), c)
		if err != nil {
			return err
		}
		return hexposure.Run(c.pipelineConfig(grid), outChan())
	},
	DisableAutoGenTag: true,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a simplified deploy copy of the metrics artifact",
	Long: `export reads a metrics artifact, simplifies the cell boundaries with
the configured tolerance, and writes the result to the deploy location.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		out, err := checkOutputFile(c.ExportFile)
		if err != nil {
			return err
		}
		return Export(c.OutputFile, out, c.ExportTolerance)
	},
	DisableAutoGenTag: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the metrics dashboard",
	Long: `serve loads a metrics artifact and serves the dashboard API over
HTTP for interactive exploration of the per-cell metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		srv, err := dashboard.NewServer(c.OutputFile)
		if err != nil {
			return err
		}
		logrus.WithField("addr", c.ServeAddr).Info("dashboard listening")
		return http.ListenAndServe(c.ServeAddr, srv)
	},
	DisableAutoGenTag: true,
}

// buildGrid reads the boundary layer and produces the grid through the grid
// cache.
func buildGrid(ctx context.Context, c *ConfigData) (*hexposure.Grid, error) {
	region, err := hexposure.ReadBoundary(c.BoundaryPath)
	if err != nil {
		return nil, err
	}
	return NewGridCache(c.CacheDir).Grid(ctx, region, c.Resolution)
}
