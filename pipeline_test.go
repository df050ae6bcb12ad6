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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
)

// writePipelineInputs writes a small synthetic region near São Paulo with
// one road crossing it and two biomes splitting it, and returns the three
// layer paths.
func writePipelineInputs(t *testing.T, dir string) (boundary, roads, biomes string) {
	t.Helper()
	boundary = filepath.Join(dir, "boundary.geojson")
	roads = filepath.Join(dir, "roads.geojson")
	biomes = filepath.Join(dir, "biomes.geojson")

	region := square(testCenter, 0.1)
	if err := WriteBoundary(boundary, region, "test region"); err != nil {
		t.Fatal(err)
	}
	if err := WriteRoads(roads, []*RoadFeature{{
		Geom: geom.LineString{
			{X: testCenter.X - 0.1, Y: testCenter.Y},
			{X: testCenter.X + 0.1, Y: testCenter.Y},
		},
		Name:  "Avenida Paulista",
		Class: "primary",
	}}); err != nil {
		t.Fatal(err)
	}
	west := geom.Polygon{{
		{X: testCenter.X - 0.2, Y: testCenter.Y - 0.2},
		{X: testCenter.X, Y: testCenter.Y - 0.2},
		{X: testCenter.X, Y: testCenter.Y + 0.2},
		{X: testCenter.X - 0.2, Y: testCenter.Y + 0.2},
		{X: testCenter.X - 0.2, Y: testCenter.Y - 0.2},
	}}
	east := geom.Polygon{{
		{X: testCenter.X, Y: testCenter.Y - 0.2},
		{X: testCenter.X + 0.2, Y: testCenter.Y - 0.2},
		{X: testCenter.X + 0.2, Y: testCenter.Y + 0.2},
		{X: testCenter.X, Y: testCenter.Y + 0.2},
		{X: testCenter.X, Y: testCenter.Y - 0.2},
	}}
	if err := WriteBiomes(biomes, []*BiomeFeature{
		{Geom: west, Label: "Mata Atlântica"},
		{Geom: east, Label: "Cerrado"},
	}); err != nil {
		t.Fatal(err)
	}
	return boundary, roads, biomes
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	boundary, roads, biomes := writePipelineInputs(t, dir)
	out := filepath.Join(dir, "metrics.geojson")

	cfg := Config{
		Resolution:   testResolution,
		BoundaryPath: boundary,
		RoadsPath:    roads,
		BiomesPath:   biomes,
		OutputPath:   out,
	}
	msgLog := make(chan string)
	done := make(chan struct{})
	go func() {
		for range msgLog {
		}
		close(done)
	}()
	err := Run(cfg, msgLog)
	close(msgLog)
	<-done
	if err != nil {
		t.Fatal(err)
	}

	records, err := ReadMetrics(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) == 0 {
		t.Fatal("empty metrics artifact")
	}

	var roadTotal float64
	var scored int
	for _, r := range records {
		if r.RoadLengthKm < 0 {
			t.Errorf("cell %s: negative road length %g", r.CellID, r.RoadLengthKm)
		}
		if r.BiomeAreaPct < 0 || r.BiomeAreaPct > 100+1e-6 {
			t.Errorf("cell %s: biome share %g out of range", r.CellID, r.BiomeAreaPct)
		}
		if r.DominantBiome == "" {
			t.Errorf("cell %s: empty dominant biome", r.CellID)
		}
		roadTotal += r.RoadLengthKm
		if r.ExposureScore > 0 {
			scored++
		}
	}
	// The road is about 20 km of longitude at 23.5°S, roughly 20.4 km on
	// the ground, and lies entirely inside the region.
	if roadTotal < 15 || roadTotal > 25 {
		t.Errorf("total road length %g km outside the plausible range", roadTotal)
	}
	if scored == 0 {
		t.Error("no cell received a positive exposure score")
	}
	// The biome tiling covers the whole region, so every cell crossed by
	// the road must also have a dominant biome other than Unknown.
	for _, r := range records {
		if r.RoadLengthKm > 0 && r.DominantBiome == UnknownBiome {
			t.Errorf("cell %s has roads but an unknown biome", r.CellID)
		}
	}
}

func TestRunIdempotent(t *testing.T) {
	dir := t.TempDir()
	boundary, roads, biomes := writePipelineInputs(t, dir)

	outA := filepath.Join(dir, "a.geojson")
	outB := filepath.Join(dir, "b.geojson")
	base := Config{
		Resolution:   testResolution,
		BoundaryPath: boundary,
		RoadsPath:    roads,
		BiomesPath:   biomes,
	}

	cfgA := base
	cfgA.OutputPath = outA
	if err := Run(cfgA, nil); err != nil {
		t.Fatal(err)
	}
	cfgB := base
	cfgB.OutputPath = outB
	if err := Run(cfgB, nil); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(outA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(outB)
	if err != nil {
		t.Fatal(err)
	}
	// Cell order is fixed and per-cell sums only reorder within a cell,
	// which for this single-road, disjoint-biome input cannot change any
	// value, so the artifacts must match byte for byte.
	if !bytes.Equal(a, b) {
		t.Error("two runs over the same inputs produced different artifacts")
	}
}

func TestRunWithSuppliedGrid(t *testing.T) {
	dir := t.TempDir()
	boundary, roads, biomes := writePipelineInputs(t, dir)

	region, err := ReadBoundary(boundary)
	if err != nil {
		t.Fatal(err)
	}
	grid, err := NewGrid(region, testResolution)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "metrics.geojson")
	cfg := Config{
		Resolution: testResolution,
		RoadsPath:  roads,
		BiomesPath: biomes,
		OutputPath: out,
		Grid:       grid,
		// BoundaryPath deliberately left empty: a supplied grid must
		// make the boundary read unnecessary.
	}
	if err := Run(cfg, nil); err != nil {
		t.Fatal(err)
	}
	records, err := ReadMetrics(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(grid.Cells) {
		t.Errorf("expected %d records, got %d", len(grid.Cells), len(records))
	}
}
