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

package ingest

import (
	"context"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"

	"github.com/ecospatial/hexposure"
)

const geographicProj = "+proj=longlat"

// geographicTransform builds a reprojection from the shapefile's spatial
// reference (read from its .prj sidecar) to geographic coordinates.
func geographicTransform(d *shp.Decoder) (proj.Transformer, error) {
	sr, err := d.SR()
	if err != nil {
		return nil, ingestErrorf("reading shapefile spatial reference: %w", err)
	}
	geoSR, err := proj.Parse(geographicProj)
	if err != nil {
		return nil, ingestErrorf("parsing geographic projection: %w", err)
	}
	return sr.NewTransform(geoSR)
}

// readBoundaryShapefile reads a boundary polygon shapefile, dissolving all
// rows into one region in geographic coordinates.
func readBoundaryShapefile(path string) (geom.Polygonal, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, ingestErrorf("opening boundary shapefile %s: %w", path, err)
	}
	defer d.Close()
	ct, err := geographicTransform(d)
	if err != nil {
		return nil, err
	}

	var region geom.Polygonal
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		gg, err := g.Transform(ct)
		if err != nil {
			return nil, ingestErrorf("reprojecting boundary row: %w", err)
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, ingestErrorf("boundary shapefile %s: expected polygons, got %T", path, gg)
		}
		if region == nil {
			region = p
		} else {
			region = region.Union(p)
		}
	}
	if err := d.Error(); err != nil {
		return nil, ingestErrorf("reading boundary shapefile %s: %w", path, err)
	}
	if region == nil {
		return nil, ingestErrorf("boundary shapefile %s has no rows", path)
	}
	return region, nil
}

// biomeLabelField scans the shapefile attribute table for the first
// recognized biome label column, or returns "" if none is present.
func biomeLabelField(d *shp.Decoder) string {
	present := make(map[string]bool)
	for _, f := range d.Fields() {
		present[strings.ToLower(f.String())] = true
	}
	for _, alias := range hexposure.BiomeLabelAliases {
		if present[strings.ToLower(alias)] {
			return alias
		}
	}
	return ""
}

// readBiomeShapefile reads a land-cover polygon shapefile in geographic
// coordinates with labels from the first recognized alias column.
func readBiomeShapefile(path string) ([]*hexposure.BiomeFeature, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, ingestErrorf("opening biome shapefile %s: %w", path, err)
	}
	defer d.Close()
	ct, err := geographicTransform(d)
	if err != nil {
		return nil, err
	}
	labelField := biomeLabelField(d)
	if labelField == "" {
		return nil, hexposure.NewSchemaError("ingest: no biome label column in %s (accepted: %v)",
			path, hexposure.BiomeLabelAliases)
	}

	var biomes []*hexposure.BiomeFeature
	for {
		g, fields, more := d.DecodeRowFields(labelField)
		if !more {
			break
		}
		gg, err := g.Transform(ct)
		if err != nil {
			return nil, ingestErrorf("reprojecting biome row %d: %w", len(biomes), err)
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, ingestErrorf("biome shapefile %s: expected polygons, got %T", path, gg)
		}
		label := strings.TrimSpace(fields[labelField])
		if label == "" {
			return nil, hexposure.NewSchemaError("ingest: biome row with an empty %s label in %s", labelField, path)
		}
		biomes = append(biomes, &hexposure.BiomeFeature{Geom: p, Label: label})
	}
	if err := d.Error(); err != nil {
		return nil, ingestErrorf("reading biome shapefile %s: %w", path, err)
	}
	return biomes, nil
}

// roadRow matches the attribute columns of a road shapefile. Both columns
// are optional; rows without them get empty tags.
type roadRow struct {
	Geom  geom.Geom
	Name  string `shp:"name"`
	Class string `shp:"highway"`
}

// readShapefileRoads reads a road line shapefile in geographic coordinates.
func readShapefileRoads(ctx context.Context, cfg Config, region geom.Polygonal) ([]*hexposure.RoadFeature, error) {
	d, err := shp.NewDecoder(cfg.RoadShapefile)
	if err != nil {
		return nil, ingestErrorf("opening road shapefile %s: %w", cfg.RoadShapefile, err)
	}
	defer d.Close()
	ct, err := geographicTransform(d)
	if err != nil {
		return nil, err
	}

	var roads []*hexposure.RoadFeature
	for {
		var row roadRow
		if !d.DecodeRow(&row) {
			break
		}
		if !keepClass(row.Class, cfg.RoadClasses) {
			continue
		}
		gg, err := row.Geom.Transform(ct)
		if err != nil {
			return nil, ingestErrorf("reprojecting road row %d: %w", len(roads), err)
		}
		line, ok := gg.(geom.Linear)
		if !ok {
			return nil, ingestErrorf("road shapefile %s: expected lines, got %T", cfg.RoadShapefile, gg)
		}
		roads = append(roads, &hexposure.RoadFeature{Geom: line, Name: row.Name, Class: row.Class})
	}
	if err := d.Error(); err != nil {
		return nil, ingestErrorf("reading road shapefile %s: %w", cfg.RoadShapefile, err)
	}
	return roads, nil
}
