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

// Package hexposure computes a per-hexagon road–biome exposure metric over
// a region. A region boundary is covered with a fixed-resolution H3 grid,
// road and land-cover layers are overlaid onto the grid in a metric
// coordinate system, and each cell receives its road length, dominant
// biome with area share, and the composite exposure score
// road_length_km × (biome_area_pct / 100).
//
// The score is an interpretable co-occurrence proxy, not a calibrated risk
// measure. Every run recomputes the grid and metrics from scratch over a
// static snapshot of the inputs.
package hexposure

// Version gives the version number.
const Version = "0.1.0"
