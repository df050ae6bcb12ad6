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
	"encoding/gob"
	"fmt"
	"runtime"

	"github.com/ctessum/geom"
	"github.com/ctessum/requestcache"

	"github.com/ecospatial/hexposure"
	"github.com/ecospatial/hexposure/internal/hash"
)

func init() {
	gob.Register(gridPayload{})
}

// gridPayload is the cacheable form of a grid. Cell boundaries are
// recomputable from the IDs, so only the IDs are stored.
type gridPayload struct {
	Resolution int
	IDs        []string
}

type gridRequest struct {
	region     geom.Polygonal
	resolution int
}

// GridCache memoizes grid generation, keyed by the boundary geometry and
// resolution. Polyfilling a large region at a fine resolution dominates
// pipeline start-up time, and the result never changes for the same inputs.
type GridCache struct {
	cache *requestcache.Cache
}

// NewGridCache creates a grid cache. If cacheDir is non-empty, generated
// grids also persist on disk across runs.
func NewGridCache(cacheDir string) *GridCache {
	process := func(ctx context.Context, reqI interface{}) (interface{}, error) {
		req := reqI.(*gridRequest)
		g, err := hexposure.NewGrid(req.region, req.resolution)
		if err != nil {
			return nil, err
		}
		return gridPayload{Resolution: g.Resolution, IDs: g.CellIDs()}, nil
	}
	if cacheDir == "" {
		return &GridCache{cache: requestcache.NewCache(process, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(5))}
	}
	return &GridCache{cache: requestcache.NewCache(process, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(5),
		requestcache.Disk(cacheDir, requestcache.MarshalGob, requestcache.UnmarshalGob))}
}

// Grid returns the grid covering region at the given resolution, generating
// it only if no cached copy exists.
func (gc *GridCache) Grid(ctx context.Context, region geom.Polygonal, resolution int) (*hexposure.Grid, error) {
	key := fmt.Sprintf("grid_%d_%s", resolution, hash.Hash(region))
	req := gc.cache.NewRequest(ctx, &gridRequest{region: region, resolution: resolution}, key)
	resultI, err := req.Result()
	if err != nil {
		return nil, err
	}
	payload := resultI.(gridPayload)
	return hexposure.GridFromCellIDs(payload.IDs, payload.Resolution)
}
