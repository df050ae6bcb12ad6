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

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ctessum/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// BiomeLabelAliases are the accepted names for the biome label column, in
// lookup order. IBGE land-cover products name the column differently
// depending on the dataset version.
var BiomeLabelAliases = []string{"BIOMA", "Bioma", "NOME", "NOME_BIO", "BIO_NOME", "NM_BIOMA"}

// MetricColumns are the property columns of the metrics artifact, all of
// which must be present for the artifact to be readable.
var MetricColumns = []string{"cell_id", "road_length_km", "dominant_biome", "biome_area_pct", "exposure_score"}

// orbToGeom converts a GeoJSON geometry to the geometry model used for
// overlay math.
func orbToGeom(g orb.Geometry) (geom.Geom, error) {
	switch t := g.(type) {
	case orb.Point:
		return geom.Point{X: t[0], Y: t[1]}, nil
	case orb.LineString:
		return orbLine(t), nil
	case orb.MultiLineString:
		o := make(geom.MultiLineString, len(t))
		for i, l := range t {
			o[i] = orbLine(l)
		}
		return o, nil
	case orb.Polygon:
		return orbPolygon(t), nil
	case orb.MultiPolygon:
		o := make(geom.MultiPolygon, len(t))
		for i, p := range t {
			o[i] = orbPolygon(p)
		}
		return o, nil
	default:
		return nil, geometryErrorf("hexposure: unsupported geometry type %T", g)
	}
}

func orbLine(l orb.LineString) geom.LineString {
	o := make(geom.LineString, len(l))
	for i, pt := range l {
		o[i] = geom.Point{X: pt[0], Y: pt[1]}
	}
	return o
}

func orbPolygon(p orb.Polygon) geom.Polygon {
	o := make(geom.Polygon, len(p))
	for i, ring := range p {
		path := make(geom.Path, len(ring))
		for j, pt := range ring {
			path[j] = geom.Point{X: pt[0], Y: pt[1]}
		}
		o[i] = path
	}
	return o
}

// geomToOrb converts a polygon back to a GeoJSON geometry for output.
func geomToOrb(p geom.Polygon) orb.Polygon {
	o := make(orb.Polygon, len(p))
	for i, path := range p {
		ring := make(orb.Ring, len(path))
		for j, pt := range path {
			ring[j] = orb.Point{pt.X, pt.Y}
		}
		o[i] = ring
	}
	return o
}

func geomLinearToOrb(l geom.Linear) orb.Geometry {
	switch t := l.(type) {
	case geom.LineString:
		o := make(orb.LineString, len(t))
		for i, pt := range t {
			o[i] = orb.Point{pt.X, pt.Y}
		}
		return o
	case geom.MultiLineString:
		o := make(orb.MultiLineString, len(t))
		for i, ls := range t {
			line := make(orb.LineString, len(ls))
			for j, pt := range ls {
				line[j] = orb.Point{pt.X, pt.Y}
			}
			o[i] = line
		}
		return o
	default:
		return nil
	}
}

func geomPolygonalToOrb(p geom.Polygonal) orb.Geometry {
	switch t := p.(type) {
	case geom.Polygon:
		return geomToOrb(t)
	case geom.MultiPolygon:
		o := make(orb.MultiPolygon, len(t))
		for i, poly := range t {
			o[i] = geomToOrb(poly)
		}
		return o
	default:
		return nil
	}
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hexposure: reading layer file %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("hexposure: parsing layer file %s: %w", path, err)
	}
	return fc, nil
}

// writeFeatureCollection writes fc through a temporary file and renames it
// into place, so a failed run never leaves a partial artifact behind.
func writeFeatureCollection(path string, fc *geojson.FeatureCollection) error {
	b, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("hexposure: encoding layer file %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".hexposure-*")
	if err != nil {
		return fmt.Errorf("hexposure: creating temporary file for %s: %w", path, err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("hexposure: writing layer file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("hexposure: writing layer file %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("hexposure: writing layer file %s: %w", path, err)
	}
	return nil
}

// ReadBoundary reads the region boundary layer and dissolves all of its
// features into a single polygonal region.
func ReadBoundary(path string) (geom.Polygonal, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	var region geom.Polygonal
	for i, f := range fc.Features {
		gg, err := orbToGeom(f.Geometry)
		if err != nil {
			return nil, err
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, geometryErrorf("hexposure: boundary feature %d: expected polygon geometry, got %T", i, gg)
		}
		if region == nil {
			region = p
		} else {
			region = region.Union(p)
		}
	}
	if region == nil {
		return nil, geometryErrorf("hexposure: boundary layer %s has no polygon features", path)
	}
	return region, nil
}

// ReadRoads reads the road line layer. Name and class tags are optional.
func ReadRoads(path string) ([]*RoadFeature, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	roads := make([]*RoadFeature, 0, len(fc.Features))
	for i, f := range fc.Features {
		gg, err := orbToGeom(f.Geometry)
		if err != nil {
			return nil, err
		}
		line, ok := gg.(geom.Linear)
		if !ok {
			return nil, geometryErrorf("hexposure: road feature %d: expected line geometry, got %T", i, gg)
		}
		roads = append(roads, &RoadFeature{
			Geom:  line,
			Name:  f.Properties.MustString("name", ""),
			Class: f.Properties.MustString("highway", ""),
		})
	}
	return roads, nil
}

// ReadBiomes reads the biome polygon layer. The label column is selected
// from BiomeLabelAliases; if no alias is present in any feature the layer
// is rejected with a SchemaError.
func ReadBiomes(path string) ([]*BiomeFeature, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	labelKey := ""
	for _, alias := range BiomeLabelAliases {
		for _, f := range fc.Features {
			if _, ok := f.Properties[alias]; ok {
				labelKey = alias
				break
			}
		}
		if labelKey != "" {
			break
		}
	}
	if labelKey == "" {
		return nil, schemaErrorf("hexposure: no biome label column found in %s (accepted: %v)", path, BiomeLabelAliases)
	}

	biomes := make([]*BiomeFeature, 0, len(fc.Features))
	for i, f := range fc.Features {
		gg, err := orbToGeom(f.Geometry)
		if err != nil {
			return nil, err
		}
		poly, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, geometryErrorf("hexposure: biome feature %d: expected polygon geometry, got %T", i, gg)
		}
		label, ok := f.Properties[labelKey].(string)
		if !ok || label == "" {
			return nil, schemaErrorf("hexposure: biome feature %d is missing the %q label", i, labelKey)
		}
		biomes = append(biomes, &BiomeFeature{Geom: poly, Label: label})
	}
	return biomes, nil
}

// WriteBoundary writes a dissolved region boundary as a single-feature
// layer file.
func WriteBoundary(path string, region geom.Polygonal, name string) error {
	og := geomPolygonalToOrb(region)
	if og == nil {
		return geometryErrorf("hexposure: boundary geometry %T cannot be written", region)
	}
	f := geojson.NewFeature(og)
	f.Properties = geojson.Properties{"name": name}
	fc := geojson.NewFeatureCollection()
	fc.Append(f)
	return writeFeatureCollection(path, fc)
}

// WriteRoads writes a processed road layer.
func WriteRoads(path string, roads []*RoadFeature) error {
	fc := geojson.NewFeatureCollection()
	for i, r := range roads {
		og := geomLinearToOrb(r.Geom)
		if og == nil {
			return geometryErrorf("hexposure: road feature %d geometry %T cannot be written", i, r.Geom)
		}
		f := geojson.NewFeature(og)
		f.Properties = geojson.Properties{"name": r.Name, "highway": r.Class}
		fc.Append(f)
	}
	return writeFeatureCollection(path, fc)
}

// WriteBiomes writes a processed biome layer. The label lands in the first
// accepted alias column.
func WriteBiomes(path string, biomes []*BiomeFeature) error {
	fc := geojson.NewFeatureCollection()
	for i, b := range biomes {
		og := geomPolygonalToOrb(b.Geom)
		if og == nil {
			return geometryErrorf("hexposure: biome feature %d geometry %T cannot be written", i, b.Geom)
		}
		f := geojson.NewFeature(og)
		f.Properties = geojson.Properties{BiomeLabelAliases[0]: b.Label}
		fc.Append(f)
	}
	return writeFeatureCollection(path, fc)
}

// GeoJSONGeometry converts a polygonal geometry to its GeoJSON form, or nil
// for unsupported types.
func GeoJSONGeometry(p geom.Polygonal) orb.Geometry {
	return geomPolygonalToOrb(p)
}

// MetricsFeatureCollection converts metric records to a GeoJSON feature
// collection with exactly the MetricColumns properties per feature.
func MetricsFeatureCollection(records []*Record) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(geomToOrb(r.Geom))
		f.Properties = geojson.Properties{
			"cell_id":        r.CellID,
			"road_length_km": r.RoadLengthKm,
			"dominant_biome": r.DominantBiome,
			"biome_area_pct": r.BiomeAreaPct,
			"exposure_score": r.ExposureScore,
		}
		fc.Append(f)
	}
	return fc
}

// WriteMetrics writes the per-cell metrics table as the pipeline's terminal
// artifact. The write is atomic: either the full table lands at path, or
// nothing does.
func WriteMetrics(path string, records []*Record) error {
	return writeFeatureCollection(path, MetricsFeatureCollection(records))
}

// ReadMetrics reads a metrics artifact back, validating that every feature
// carries the full metric schema. Consumers of the artifact must not guess
// at column meaning, so a missing or mistyped column is a SchemaError, not
// a default.
func ReadMetrics(path string) ([]*Record, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	records := make([]*Record, 0, len(fc.Features))
	for i, f := range fc.Features {
		gg, err := orbToGeom(f.Geometry)
		if err != nil {
			return nil, err
		}
		poly, ok := gg.(geom.Polygon)
		if !ok {
			return nil, geometryErrorf("hexposure: metric feature %d: expected polygon geometry, got %T", i, gg)
		}
		r := &Record{Geom: poly}
		if r.CellID, ok = f.Properties["cell_id"].(string); !ok {
			return nil, schemaErrorf("hexposure: metric feature %d is missing column cell_id", i)
		}
		if r.DominantBiome, ok = f.Properties["dominant_biome"].(string); !ok {
			return nil, schemaErrorf("hexposure: metric feature %d is missing column dominant_biome", i)
		}
		if r.RoadLengthKm, ok = propFloat(f.Properties, "road_length_km"); !ok {
			return nil, schemaErrorf("hexposure: metric feature %d is missing column road_length_km", i)
		}
		if r.BiomeAreaPct, ok = propFloat(f.Properties, "biome_area_pct"); !ok {
			return nil, schemaErrorf("hexposure: metric feature %d is missing column biome_area_pct", i)
		}
		if r.ExposureScore, ok = propFloat(f.Properties, "exposure_score"); !ok {
			return nil, schemaErrorf("hexposure: metric feature %d is missing column exposure_score", i)
		}
		records = append(records, r)
	}
	return records, nil
}

// propFloat reads a numeric property, accepting the types the JSON decoder
// can produce for a number.
func propFloat(props geojson.Properties, key string) (float64, bool) {
	switch v := props[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
