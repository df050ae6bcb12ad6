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
	"fmt"

	"github.com/ctessum/geom"

	"github.com/ecospatial/hexposure"
)

// Export rewrites a metrics artifact for publication, simplifying each cell
// boundary with the given tolerance in degrees. Hexagon edges are short, so
// even a small tolerance trims most vertices from a web-map payload without
// visibly changing the cells. A zero tolerance copies the artifact
// unchanged.
func Export(inputFile, outputFile string, tolerance float64) error {
	records, err := hexposure.ReadMetrics(inputFile)
	if err != nil {
		return err
	}
	if tolerance > 0 {
		for _, r := range records {
			s := r.Geom.Simplify(tolerance)
			p, ok := s.(geom.Polygon)
			if !ok {
				return fmt.Errorf("hexposureutil: simplifying cell %s: expected a polygon, got %T", r.CellID, s)
			}
			r.Geom = p
		}
	}
	return hexposure.WriteMetrics(outputFile, records)
}
