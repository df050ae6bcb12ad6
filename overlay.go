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
	"runtime"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// geographicProj is the spatial reference of all layer inputs and outputs.
const geographicProj = "+proj=longlat"

// DefaultMetricProj is SIRGAS 2000 / UTM zone 23S (EPSG:31983), a
// length/area-preserving projection suitable for southeastern Brazil.
// Length and area arithmetic must never be done in geographic coordinates,
// so every run needs some metric projection; this is only a default.
const DefaultMetricProj = "+proj=utm +zone=23 +south +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs"

// RoadFeature is a road line geometry with descriptive tags.
type RoadFeature struct {
	Geom  geom.Linear
	Name  string
	Class string
}

// BiomeFeature is a land-cover polygon with its categorical label.
type BiomeFeature struct {
	Geom  geom.Polygonal
	Label string
}

// BiomeShare is an area share of one biome label within one cell.
type BiomeShare struct {
	Label   string
	AreaPct float64
}

// Aggregator computes per-cell overlay statistics. All geometry is
// reprojected into a single metric coordinate system before any length or
// area is measured; the cells are indexed in an R-tree so each feature is
// only intersected against cells its bounding box overlaps.
type Aggregator struct {
	cells    []*projCell
	index    *rtree.Rtree
	cellArea map[string]float64
	ct       proj.Transformer // geographic → metric; nil if inputs are pre-projected
}

// projCell is a grid cell reprojected into the metric coordinate system.
type projCell struct {
	id string
	geom.Polygonal
	area float64
}

// NewAggregator reprojects the grid into the metric coordinate system given
// as a proj4 string and prepares it for overlay queries.
func NewAggregator(g *Grid, metricProj string) (*Aggregator, error) {
	geoSR, err := proj.Parse(geographicProj)
	if err != nil {
		return nil, fmt.Errorf("hexposure: parsing geographic projection: %w", err)
	}
	metricSR, err := proj.Parse(metricProj)
	if err != nil {
		return nil, fmt.Errorf("hexposure: parsing metric projection %q: %w", metricProj, err)
	}
	ct, err := geoSR.NewTransform(metricSR)
	if err != nil {
		return nil, fmt.Errorf("hexposure: creating reprojector: %w", err)
	}

	cells := make([]*projCell, len(g.Cells))
	for i, c := range g.Cells {
		gg, err := c.Polygon.Transform(ct)
		if err != nil {
			return nil, fmt.Errorf("hexposure: reprojecting cell %s: %w", c.ID, err)
		}
		p := gg.(geom.Polygonal)
		area := p.Area()
		if area <= 0 {
			return nil, geometryErrorf("hexposure: cell %s has non-positive projected area", c.ID)
		}
		cells[i] = &projCell{id: c.ID, Polygonal: p, area: area}
	}
	a := newAggregatorFromCells(cells)
	a.ct = ct
	return a, nil
}

// newAggregatorFromCells builds an aggregator over cells that are already
// in the metric coordinate system.
func newAggregatorFromCells(cells []*projCell) *Aggregator {
	a := &Aggregator{
		cells:    cells,
		index:    rtree.NewTree(25, 50),
		cellArea: make(map[string]float64, len(cells)),
	}
	for _, c := range cells {
		a.index.Insert(c)
		a.cellArea[c.id] = c.area
	}
	return a
}

// toMetric reprojects a feature geometry into the metric coordinate system.
func (a *Aggregator) toMetric(g geom.Geom) (geom.Geom, error) {
	if a.ct == nil {
		return g, nil
	}
	return g.Transform(a.ct)
}

// RoadLengths returns the total road length in kilometers within each cell
// that is crossed by at least one road. Cells with no intersecting road
// segments are absent from the result; the synthesizer fills them later.
// Features are processed in parallel; only the float summation order can
// differ between runs.
func (a *Aggregator) RoadLengths(roads []*RoadFeature) (map[string]float64, error) {
	lengths := make(map[string]float64)
	nprocs := runtime.GOMAXPROCS(0)
	var mu sync.Mutex
	errChan := make(chan error)
	for procnum := 0; procnum < nprocs; procnum++ {
		go func(procnum int) {
			for i := procnum; i < len(roads); i += nprocs {
				r := roads[i]
				if r.Geom == nil {
					errChan <- geometryErrorf("hexposure: road feature %d has empty geometry", i)
					return
				}
				gg, err := a.toMetric(r.Geom)
				if err != nil {
					errChan <- fmt.Errorf("hexposure: reprojecting road feature %d: %w", i, err)
					return
				}
				line, ok := gg.(geom.Linear)
				if !ok {
					errChan <- geometryErrorf("hexposure: road feature %d: expected line geometry, got %T", i, gg)
					return
				}
				local := make(map[string]float64)
				for _, cI := range a.index.SearchIntersect(line.Bounds()) {
					cell := cI.(*projCell)
					seg := line.Clip(cell.Polygonal)
					if seg == nil {
						continue
					}
					if l := seg.Length(); l > 0 {
						local[cell.id] += l
					}
				}
				mu.Lock()
				for id, l := range local {
					lengths[id] += l
				}
				mu.Unlock()
			}
			errChan <- nil
		}(procnum)
	}
	var err error
	for procnum := 0; procnum < nprocs; procnum++ {
		if e := <-errChan; e != nil && err == nil {
			err = e
		}
	}
	if err != nil {
		return nil, err
	}
	for id := range lengths {
		lengths[id] /= 1000 // m to km
	}
	return lengths, nil
}

// BiomeShares returns, for each cell crossed by at least one biome polygon,
// the percentage of the cell's area covered by each biome label. Clipping a
// polygon against a polygon can only produce polygons, so lower-dimensional
// slivers never leak into the area sums; fragments with zero area are
// dropped.
func (a *Aggregator) BiomeShares(biomes []*BiomeFeature) (map[string]map[string]float64, error) {
	areas := make(map[string]map[string]float64) // cell id → label → m²
	nprocs := runtime.GOMAXPROCS(0)
	var mu sync.Mutex
	errChan := make(chan error)
	for procnum := 0; procnum < nprocs; procnum++ {
		go func(procnum int) {
			for i := procnum; i < len(biomes); i += nprocs {
				b := biomes[i]
				if b.Geom == nil {
					errChan <- geometryErrorf("hexposure: biome feature %d has empty geometry", i)
					return
				}
				gg, err := a.toMetric(b.Geom)
				if err != nil {
					errChan <- fmt.Errorf("hexposure: reprojecting biome feature %d: %w", i, err)
					return
				}
				poly, ok := gg.(geom.Polygonal)
				if !ok {
					errChan <- geometryErrorf("hexposure: biome feature %d: expected polygon geometry, got %T", i, gg)
					return
				}
				local := make(map[string]float64)
				for _, cI := range a.index.SearchIntersect(poly.Bounds()) {
					cell := cI.(*projCell)
					clip := poly.Intersection(cell.Polygonal)
					if clip == nil {
						continue
					}
					if area := clip.Area(); area > 0 {
						local[cell.id] += area
					}
				}
				mu.Lock()
				for id, area := range local {
					if areas[id] == nil {
						areas[id] = make(map[string]float64)
					}
					areas[id][b.Label] += area
				}
				mu.Unlock()
			}
			errChan <- nil
		}(procnum)
	}
	var err error
	for procnum := 0; procnum < nprocs; procnum++ {
		if e := <-errChan; e != nil && err == nil {
			err = e
		}
	}
	if err != nil {
		return nil, err
	}

	for id, labels := range areas {
		cellArea := a.cellArea[id]
		for label, area := range labels {
			labels[label] = area / cellArea * 100
		}
	}
	return areas, nil
}

// DominantBiomes selects the biome label with the largest area share in
// each cell. Exact ties break lexicographically on the label, so the result
// does not depend on map iteration order.
func DominantBiomes(shares map[string]map[string]float64) map[string]BiomeShare {
	out := make(map[string]BiomeShare, len(shares))
	for id, labels := range shares {
		var best BiomeShare
		first := true
		for label, pct := range labels {
			switch {
			case first || pct > best.AreaPct:
				best = BiomeShare{Label: label, AreaPct: pct}
				first = false
			case pct == best.AreaPct && label < best.Label:
				best.Label = label
			}
		}
		out[id] = best
	}
	return out
}
