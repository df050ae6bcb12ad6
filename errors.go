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

import "fmt"

// GeometryError indicates an input geometry that is invalid, empty, or of an
// unsupported type and cannot be repaired or classified. It is unrecoverable
// for the run that raised it.
type GeometryError struct {
	msg string
}

func (e *GeometryError) Error() string { return e.msg }

func geometryErrorf(format string, args ...interface{}) *GeometryError {
	return &GeometryError{msg: fmt.Sprintf(format, args...)}
}

// SchemaError indicates a required attribute column that is missing from an
// input layer, including failure of the biome label alias lookup. It is
// unrecoverable for the run that raised it.
type SchemaError struct {
	msg string
}

func (e *SchemaError) Error() string { return e.msg }

func schemaErrorf(format string, args ...interface{}) *SchemaError {
	return &SchemaError{msg: fmt.Sprintf(format, args...)}
}

// NewGeometryError creates a GeometryError for use by layer producers
// outside this package.
func NewGeometryError(format string, args ...interface{}) *GeometryError {
	return geometryErrorf(format, args...)
}

// NewSchemaError creates a SchemaError for use by layer producers outside
// this package.
func NewSchemaError(format string, args ...interface{}) *SchemaError {
	return schemaErrorf(format, args...)
}

// DependencyUnavailableError indicates that an optional ingestion backend was
// requested but is not available in this build.
type DependencyUnavailableError struct {
	Backend string
}

func (e *DependencyUnavailableError) Error() string {
	return fmt.Sprintf("hexposure: ingestion backend %q is not available", e.Backend)
}
