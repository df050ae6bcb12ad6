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

// Package hash derives stable cache keys from arbitrary values, so cached
// grid computations can be looked up by the inputs that produced them.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a stable hexadecimal key for object. Values implementing
// fmt.Stringer are keyed by their string form; everything else is keyed by
// an FNV-128a digest of its gob encoding.
func Hash(object interface{}) string {
	if s, ok := object.(fmt.Stringer); ok {
		return s.String()
	}
	h := fnv.New128a()
	e := gob.NewEncoder(h)
	if err := e.Encode(object); err == nil {
		return fmt.Sprintf("%x", h.Sum(nil)[:h.Size()])
	}
	// gob cannot encode some values (NaNs, unexported fields); fall back
	// to a canonical spew rendering.
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
	return fmt.Sprintf("%x", h.Sum(nil)[:h.Size()])
}
