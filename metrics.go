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

import "github.com/ctessum/geom"

// UnknownBiome is the dominant-biome label for cells with no biome overlap.
const UnknownBiome = "Unknown"

// Record is one row of the final per-cell metrics table. The geometry is
// the cell boundary in geographic coordinates. ExposureScore is always
// RoadLengthKm × (BiomeAreaPct / 100); it is derived, never set directly.
type Record struct {
	CellID        string
	Geom          geom.Polygon
	RoadLengthKm  float64
	DominantBiome string
	BiomeAreaPct  float64
	ExposureScore float64
}

// Synthesize left-joins the full cell set with the partial overlay results.
// Every grid cell yields exactly one record: cells absent from roadKm get
// 0 km, and cells absent from dominant get the Unknown label with a 0%
// share. Records come back sorted by cell ID, but consumers should treat
// the table as an unordered set keyed by cell ID.
func Synthesize(g *Grid, roadKm map[string]float64, dominant map[string]BiomeShare) []*Record {
	records := make([]*Record, len(g.Cells))
	for i, c := range g.Cells {
		r := &Record{
			CellID:        c.ID,
			Geom:          c.Polygon,
			DominantBiome: UnknownBiome,
		}
		if km, ok := roadKm[c.ID]; ok {
			r.RoadLengthKm = km
		}
		if d, ok := dominant[c.ID]; ok {
			r.DominantBiome = d.Label
			r.BiomeAreaPct = d.AreaPct
		}
		r.ExposureScore = r.RoadLengthKm * (r.BiomeAreaPct / 100)
		records[i] = r
	}
	return records
}
