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
	"context"
	"reflect"
	"testing"

	"github.com/ctessum/geom"

	"github.com/ecospatial/hexposure"
)

func cacheTestRegion() geom.Polygon {
	return geom.Polygon{{
		{X: -46.7, Y: -23.6},
		{X: -46.5, Y: -23.6},
		{X: -46.5, Y: -23.4},
		{X: -46.7, Y: -23.4},
		{X: -46.7, Y: -23.6},
	}}
}

func TestGridCache(t *testing.T) {
	region := cacheTestRegion()
	const res = 6

	direct, err := hexposure.NewGrid(region, res)
	if err != nil {
		t.Fatal(err)
	}

	gc := NewGridCache(t.TempDir())
	cached, err := gc.Grid(context.Background(), region, res)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(direct.CellIDs(), cached.CellIDs()) {
		t.Error("cached grid differs from directly generated grid")
	}

	// The second request must come back from the cache with the same
	// cell set.
	again, err := gc.Grid(context.Background(), region, res)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cached.CellIDs(), again.CellIDs()) {
		t.Error("second cache request returned a different grid")
	}
}

func TestGridCacheMemoryOnly(t *testing.T) {
	gc := NewGridCache("")
	g, err := gc.Grid(context.Background(), cacheTestRegion(), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Cells) == 0 {
		t.Error("empty grid from memory-only cache")
	}
}

func TestGridCacheDistinctKeys(t *testing.T) {
	gc := NewGridCache("")
	a, err := gc.Grid(context.Background(), cacheTestRegion(), 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := gc.Grid(context.Background(), cacheTestRegion(), 6)
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(a.CellIDs(), b.CellIDs()) {
		t.Error("different resolutions produced the same grid")
	}
}
