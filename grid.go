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
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/uber/h3-go/v4"
)

// MinResolution and MaxResolution are the valid H3 grid resolutions.
const (
	MinResolution = 0
	MaxResolution = 15
)

// Cell is one hexagonal (rarely pentagonal) tile of the global H3 grid,
// identified by its H3 index string. The embedded polygon is the cell
// boundary in geographic (WGS84) coordinates.
type Cell struct {
	ID string
	geom.Polygon
}

// Grid is the complete set of cells whose area intersects a region at a
// fixed resolution. Cells are sorted lexicographically by ID, so grids
// generated from the same region and resolution compare equal.
type Grid struct {
	Resolution int
	Cells      []*Cell
}

// NewGrid polyfills region with H3 cells at the given resolution. The
// region must be in geographic (WGS84) coordinates and may be a polygon or
// multi-polygon with holes; invalid rings are repaired first.
//
// H3's native polyfill keeps cells whose centroid falls inside the region.
// NewGrid instead keeps every cell whose area intersects the region: the
// centroid polyfill and the cells containing the region's vertices seed an
// outward search over grid neighbors, and a candidate is kept when its
// boundary has nonzero intersection area with the region. Cells wholly
// inside a hole have empty intersection with the region and are never kept.
func NewGrid(region geom.Polygonal, resolution int) (*Grid, error) {
	if resolution < MinResolution || resolution > MaxResolution {
		return nil, fmt.Errorf("hexposure: grid resolution %d outside valid range [%d, %d]",
			resolution, MinResolution, MaxResolution)
	}
	repaired, err := Repair(region)
	if err != nil {
		return nil, err
	}

	seeds := make(map[h3.Cell]struct{})
	for _, poly := range repaired.Polygons() {
		for _, ring := range poly {
			if len(ring) == 0 {
				continue
			}
			loop := make([]h3.LatLng, len(ring))
			for i, pt := range ring {
				loop[i] = h3.LatLng{Lat: pt.Y, Lng: pt.X}
				c, err := h3.LatLngToCell(loop[i], resolution)
				if err != nil {
					return nil, geometryErrorf("hexposure: indexing region vertex (%g, %g): %v", pt.X, pt.Y, err)
				}
				seeds[c] = struct{}{}
			}
			// Each ring is polyfilled as a plain loop; cells seeded from
			// inside a hole fail the intersection test below.
			cells, err := h3.PolygonToCells(h3.GeoPolygon{GeoLoop: loop}, resolution)
			if err != nil {
				return nil, geometryErrorf("hexposure: polyfill at resolution %d: %v", resolution, err)
			}
			for _, c := range cells {
				seeds[c] = struct{}{}
			}
		}
	}

	accepted := make(map[h3.Cell]*Cell)
	rejected := make(map[h3.Cell]struct{})
	queue := make([]h3.Cell, 0, len(seeds))
	for c := range seeds {
		queue = append(queue, c)
	}
	for len(queue) > 0 {
		c := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if _, ok := accepted[c]; ok {
			continue
		}
		if _, ok := rejected[c]; ok {
			continue
		}
		b, err := CellBoundary(c.String())
		if err != nil {
			return nil, err
		}
		if b.Intersection(repaired).Area() <= 0 {
			rejected[c] = struct{}{}
			continue
		}
		accepted[c] = &Cell{ID: c.String(), Polygon: b}
		neighbors, err := c.GridDisk(1)
		if err != nil {
			return nil, geometryErrorf("hexposure: neighbors of cell %s: %v", c.String(), err)
		}
		queue = append(queue, neighbors...)
	}

	cells := make([]*Cell, 0, len(accepted))
	for _, c := range accepted {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })
	return &Grid{Resolution: resolution, Cells: cells}, nil
}

// GridFromCellIDs reconstructs a grid from a set of cell IDs, for example
// one read back from a cache or an exported artifact. Boundaries are
// rebuilt from the IDs alone.
func GridFromCellIDs(ids []string, resolution int) (*Grid, error) {
	cells := make([]*Cell, len(ids))
	for i, id := range ids {
		b, err := CellBoundary(id)
		if err != nil {
			return nil, err
		}
		cells[i] = &Cell{ID: id, Polygon: b}
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i].ID < cells[j].ID })
	return &Grid{Resolution: resolution, Cells: cells}, nil
}

// CellIDs returns the IDs of all cells in the grid, in sorted order.
func (g *Grid) CellIDs() []string {
	ids := make([]string, len(g.Cells))
	for i, c := range g.Cells {
		ids[i] = c.ID
	}
	return ids
}

// CellBoundary reconstructs the boundary of the cell with the given H3
// index string as a closed counterclockwise ring in geographic coordinates.
// It depends only on the ID, not on how the cell was produced.
func CellBoundary(id string) (geom.Polygon, error) {
	c := h3.Cell(h3.IndexFromString(id))
	if !c.IsValid() {
		return nil, geometryErrorf("hexposure: invalid cell id %q", id)
	}
	verts, err := c.Boundary()
	if err != nil {
		return nil, geometryErrorf("hexposure: boundary of cell %q: %v", id, err)
	}
	ring := make(geom.Path, len(verts), len(verts)+1)
	for i, v := range verts {
		ring[i] = geom.Point{X: v.Lng, Y: v.Lat}
	}
	if ringArea(ring) < 0 {
		for i, j := 0, len(ring)-1; i < j; i, j = i+1, j-1 {
			ring[i], ring[j] = ring[j], ring[i]
		}
	}
	ring = append(ring, ring[0])
	return geom.Polygon{ring}, nil
}

// ringArea returns twice the signed area of a ring; positive means
// counterclockwise.
func ringArea(ring geom.Path) float64 {
	var a float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a
}

// Repair fixes self-intersecting rings by passing the geometry through the
// polygon clipper, the equivalent of a zero-distance buffer. Geometries
// that are empty, or still empty after repair, are rejected with a
// GeometryError.
func Repair(p geom.Polygonal) (repaired geom.Polygonal, err error) {
	defer func() {
		if r := recover(); r != nil {
			repaired = nil
			err = geometryErrorf("hexposure: repairing region geometry: %v", r)
		}
	}()
	if p == nil {
		return nil, geometryErrorf("hexposure: empty region geometry")
	}
	u := p.Union(p)
	if u == nil || u.Area() <= 0 {
		return nil, geometryErrorf("hexposure: region geometry is empty after repair")
	}
	return u, nil
}
