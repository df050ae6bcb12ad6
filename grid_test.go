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
	"errors"
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/ctessum/geom"
	"github.com/uber/h3-go/v4"
)

const testResolution = 6

// testCenter is in the interior of São Paulo state.
var testCenter = geom.Point{X: -46.63, Y: -23.55}

// square returns an axis-aligned square of half-width r centered on c.
func square(c geom.Point, r float64) geom.Polygon {
	return geom.Polygon{{
		{X: c.X - r, Y: c.Y - r},
		{X: c.X + r, Y: c.Y - r},
		{X: c.X + r, Y: c.Y + r},
		{X: c.X - r, Y: c.Y + r},
		{X: c.X - r, Y: c.Y - r},
	}}
}

func TestNewGridSingleCell(t *testing.T) {
	// A region much smaller than one cell must produce exactly the cell
	// that contains it.
	home, err := h3.LatLngToCell(h3.LatLng{Lat: testCenter.Y, Lng: testCenter.X}, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	ll, err := home.LatLng()
	if err != nil {
		t.Fatal(err)
	}
	region := square(geom.Point{X: ll.Lng, Y: ll.Lat}, 0.0005)

	grid, err := NewGrid(region, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid.Cells) != 1 {
		t.Fatalf("expected 1 cell, got %d", len(grid.Cells))
	}
	if grid.Cells[0].ID != home.String() {
		t.Errorf("expected cell %s, got %s", home.String(), grid.Cells[0].ID)
	}
	if grid.Cells[0].Intersection(region).Area() <= 0 {
		t.Error("cell boundary does not intersect the region")
	}
}

func TestNewGridHoleExclusion(t *testing.T) {
	outer := square(testCenter, 0.5)[0]
	hole := square(testCenter, 0.3)[0]
	// Hole winding opposite to the outer ring.
	for i, j := 0, len(hole)-1; i < j; i, j = i+1, j-1 {
		hole[i], hole[j] = hole[j], hole[i]
	}
	region := geom.Polygon{outer, hole}

	grid, err := NewGrid(region, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid.Cells) == 0 {
		t.Fatal("empty grid")
	}

	// The cell at the hole center is wholly inside the hole (the hole is
	// tens of kilometers across, a res-6 cell about 4) and must be absent.
	holeCell, err := h3.LatLngToCell(h3.LatLng{Lat: testCenter.Y, Lng: testCenter.X}, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range grid.Cells {
		if c.ID == holeCell.String() {
			t.Fatalf("cell %s inside the hole is present in the grid", c.ID)
		}
	}
	// Every produced cell must intersect the holed region.
	for _, c := range grid.Cells {
		if c.Intersection(region).Area() <= 0 {
			t.Errorf("cell %s does not intersect the region", c.ID)
		}
	}
}

func TestNewGridMultiPolygonDedupe(t *testing.T) {
	p := square(testCenter, 0.1)
	single, err := NewGrid(p, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	double, err := NewGrid(geom.MultiPolygon{p, p}, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(single.CellIDs(), double.CellIDs()) {
		t.Errorf("duplicate components changed the cell set: %d vs %d cells",
			len(single.Cells), len(double.Cells))
	}
}

func TestNewGridDeterministic(t *testing.T) {
	region := square(testCenter, 0.2)
	a, err := NewGrid(region, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewGrid(region, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.CellIDs(), b.CellIDs()) {
		t.Error("two polyfills of the same region differ")
	}
	if !sort.StringsAreSorted(a.CellIDs()) {
		t.Error("cell IDs are not sorted")
	}
}

func TestCellBoundary(t *testing.T) {
	c, err := h3.LatLngToCell(h3.LatLng{Lat: testCenter.Y, Lng: testCenter.X}, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	b, err := CellBoundary(c.String())
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != 1 {
		t.Fatalf("expected 1 ring, got %d", len(b))
	}
	ring := b[0]
	if len(ring) < 6 {
		t.Fatalf("ring has only %d vertices", len(ring))
	}
	if ring[0] != ring[len(ring)-1] {
		t.Error("ring is not closed")
	}
	if a := ringArea(ring[:len(ring)-1]); a <= 0 {
		t.Errorf("ring is not counterclockwise (signed area %g)", a)
	}
	if b.Area() <= 0 {
		t.Error("boundary polygon has non-positive area")
	}
}

func TestCellBoundaryInvalidID(t *testing.T) {
	_, err := CellBoundary("not-a-cell")
	var gerr *GeometryError
	if !errors.As(err, &gerr) {
		t.Errorf("expected GeometryError, got %v", err)
	}
}

func TestGridFromCellIDs(t *testing.T) {
	region := square(testCenter, 0.1)
	grid, err := NewGrid(region, testResolution)
	if err != nil {
		t.Fatal(err)
	}
	rebuilt, err := GridFromCellIDs(grid.CellIDs(), testResolution)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(grid.CellIDs(), rebuilt.CellIDs()) {
		t.Error("rebuilt grid has a different cell set")
	}
	for i := range grid.Cells {
		if !reflect.DeepEqual(grid.Cells[i].Polygon, rebuilt.Cells[i].Polygon) {
			t.Errorf("cell %s boundary differs after rebuild", grid.Cells[i].ID)
		}
	}
}

func TestRepair(t *testing.T) {
	p := square(testCenter, 0.1)
	r, err := Repair(p)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r.Area()-p.Area()) > 1e-9 {
		t.Errorf("repair changed the area of a valid polygon: %g vs %g", r.Area(), p.Area())
	}

	var gerr *GeometryError
	if _, err := Repair(nil); !errors.As(err, &gerr) {
		t.Errorf("expected GeometryError for nil geometry, got %v", err)
	}
	if _, err := Repair(geom.Polygon{}); !errors.As(err, &gerr) {
		t.Errorf("expected GeometryError for empty polygon, got %v", err)
	}
}

func TestNewGridBadResolution(t *testing.T) {
	if _, err := NewGrid(square(testCenter, 0.1), 16); err == nil {
		t.Error("expected error for resolution 16")
	}
	if _, err := NewGrid(square(testCenter, 0.1), -1); err == nil {
		t.Error("expected error for resolution -1")
	}
}
