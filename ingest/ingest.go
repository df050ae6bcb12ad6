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

// Package ingest converts raw boundary, road, and land-cover sources into
// the processed GeoJSON layers the metrics pipeline consumes. Sources may
// arrive in arbitrary projected coordinate systems; everything written here
// is in geographic coordinates, clipped to the region boundary.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"

	"github.com/ecospatial/hexposure"
)

// Road source backends.
const (
	BackendShapefile = "shapefile"
	BackendOSM       = "osm"
)

type roadReader func(ctx context.Context, cfg Config, region geom.Polygonal) ([]*hexposure.RoadFeature, error)

var roadBackends = map[string]roadReader{
	BackendShapefile: readShapefileRoads,
	BackendOSM:       readOSMRoads,
}

// Available reports whether a road backend with the given name exists.
// Callers check this before starting a run so a misconfigured backend fails
// fast instead of after the boundary and biome work is done.
func Available(name string) error {
	if _, ok := roadBackends[name]; !ok {
		return &hexposure.DependencyUnavailableError{Backend: name}
	}
	return nil
}

// Config specifies the raw sources for one ingestion run.
type Config struct {
	// BoundaryShapefile is the region boundary polygon source. All of its
	// features are dissolved into a single region.
	BoundaryShapefile string

	// RegionName labels the boundary feature in the output layer.
	RegionName string

	// BiomeShapefile is the land-cover polygon source. Its label column is
	// matched against hexposure.BiomeLabelAliases.
	BiomeShapefile string

	// RoadBackend selects the road source: BackendShapefile or BackendOSM.
	RoadBackend string

	// RoadShapefile is the road line source for the shapefile backend.
	RoadShapefile string

	// OSMFile is the .osm.pbf extract for the OSM backend.
	OSMFile string

	// RoadClasses restricts the ingested roads to the given highway
	// classes. Empty means all classes.
	RoadClasses []string

	// OutputDir receives the processed layer files.
	OutputDir string
}

// LayerPaths returns the processed layer file locations within dir.
func LayerPaths(dir string) (boundary, roads, biomes string) {
	return filepath.Join(dir, "boundary.geojson"),
		filepath.Join(dir, "roads.geojson"),
		filepath.Join(dir, "biomes.geojson")
}

// Run executes an ingestion: boundary first, then biomes and roads clipped
// against it. Output layers are written atomically, so an interrupted run
// leaves either complete layers or none.
func Run(ctx context.Context, cfg Config) error {
	if err := Available(cfg.RoadBackend); err != nil {
		return err
	}
	boundaryPath, roadsPath, biomesPath := LayerPaths(cfg.OutputDir)

	logrus.WithField("file", cfg.BoundaryShapefile).Info("reading boundary shapefile")
	region, err := readBoundaryShapefile(cfg.BoundaryShapefile)
	if err != nil {
		return err
	}
	if err := hexposure.WriteBoundary(boundaryPath, region, cfg.RegionName); err != nil {
		return err
	}

	logrus.WithField("file", cfg.BiomeShapefile).Info("reading biome shapefile")
	biomes, err := readBiomeShapefile(cfg.BiomeShapefile)
	if err != nil {
		return err
	}
	biomes = clipBiomes(biomes, region)
	if err := hexposure.WriteBiomes(biomesPath, biomes); err != nil {
		return err
	}

	logrus.WithField("backend", cfg.RoadBackend).Info("reading road source")
	roads, err := roadBackends[cfg.RoadBackend](ctx, cfg, region)
	if err != nil {
		return err
	}
	roads = clipRoads(roads, region)
	if err := hexposure.WriteRoads(roadsPath, roads); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"roads":  len(roads),
		"biomes": len(biomes),
	}).Info("ingestion finished")
	return nil
}

// clipRoads clips road lines to the region, dropping roads that fall
// entirely outside it.
func clipRoads(roads []*hexposure.RoadFeature, region geom.Polygonal) []*hexposure.RoadFeature {
	out := make([]*hexposure.RoadFeature, 0, len(roads))
	for _, r := range roads {
		clipped := r.Geom.Clip(region)
		if clipped == nil || clipped.Length() == 0 {
			continue
		}
		out = append(out, &hexposure.RoadFeature{Geom: clipped, Name: r.Name, Class: r.Class})
	}
	return out
}

// clipBiomes clips biome polygons to the region, dropping polygons that
// fall entirely outside it.
func clipBiomes(biomes []*hexposure.BiomeFeature, region geom.Polygonal) []*hexposure.BiomeFeature {
	out := make([]*hexposure.BiomeFeature, 0, len(biomes))
	for _, b := range biomes {
		clipped := b.Geom.Intersection(region)
		if clipped == nil || clipped.Area() == 0 {
			continue
		}
		out = append(out, &hexposure.BiomeFeature{Geom: clipped, Label: b.Label})
	}
	return out
}

// keepClass reports whether a road class passes the configured filter.
func keepClass(class string, classes []string) bool {
	if len(classes) == 0 {
		return true
	}
	for _, c := range classes {
		if class == c {
			return true
		}
	}
	return false
}

func ingestErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("ingest: "+format, args...)
}
