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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/osm"

	"github.com/ecospatial/hexposure"
)

// readOSMRoads extracts highway lines from an OpenStreetMap .osm.pbf file.
// OSM data is already in geographic coordinates, so no reprojection happens
// here. The class filter is pushed into the extraction: only objects tagged
// with the requested highway values are decoded at all, so the per-row
// keepClass check is unnecessary for this backend.
func readOSMRoads(ctx context.Context, cfg Config, region geom.Polygonal) ([]*hexposure.RoadFeature, error) {
	tags := map[string][]string{"highway": cfg.RoadClasses}
	data, err := osm.ExtractFile(ctx, cfg.OSMFile, osm.KeepTags(tags), false)
	if err != nil {
		return nil, ingestErrorf("extracting roads from %s: %w", cfg.OSMFile, err)
	}
	geomTags, err := data.Geom()
	if err != nil {
		return nil, ingestErrorf("building road geometry from %s: %w", cfg.OSMFile, err)
	}

	var roads []*hexposure.RoadFeature
	for _, gt := range geomTags {
		line := linearOnly(gt.Geom)
		if line == nil {
			// Highway polygons (pedestrian areas and the like) and
			// isolated nodes are not roads for length purposes.
			continue
		}
		roads = append(roads, &hexposure.RoadFeature{Geom: line})
	}
	return roads, nil
}

// linearOnly extracts the line content of an OSM geometry, flattening
// geometry collections, or returns nil if it has none.
func linearOnly(g geom.Geom) geom.Linear {
	switch t := g.(type) {
	case geom.LineString:
		return t
	case geom.MultiLineString:
		return t
	case geom.GeometryCollection:
		var o geom.MultiLineString
		for _, member := range t {
			switch l := linearOnly(member).(type) {
			case geom.LineString:
				o = append(o, l)
			case geom.MultiLineString:
				o = append(o, l...)
			}
		}
		if len(o) == 0 {
			return nil
		}
		return o
	default:
		return nil
	}
}
