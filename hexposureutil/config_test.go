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
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ecospatial/hexposure"
	"github.com/ecospatial/hexposure/ingest"
)

func TestLoadConfigDefaults(t *testing.T) {
	c, err := LoadConfig(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if c.Resolution != 7 {
		t.Errorf("default resolution %d, want 7", c.Resolution)
	}
	if c.MetricProj != hexposure.DefaultMetricProj {
		t.Errorf("default metric projection %q", c.MetricProj)
	}
	if c.Ingest.RoadBackend != ingest.BackendShapefile {
		t.Errorf("default road backend %q", c.Ingest.RoadBackend)
	}
	want := []string{"motorway", "trunk", "primary", "secondary"}
	if !reflect.DeepEqual(c.Ingest.RoadClasses, want) {
		t.Errorf("default road classes %v, want %v", c.Ingest.RoadClasses, want)
	}
	if c.ServeAddr != ":8080" {
		t.Errorf("default serve address %q", c.ServeAddr)
	}
}

func TestLoadConfigBadResolution(t *testing.T) {
	Cfg.Set("Grid.Resolution", 22)
	defer Cfg.Set("Grid.Resolution", 7)
	if _, err := LoadConfig(Cfg); err == nil {
		t.Error("expected an error for resolution 22")
	}
}

func TestLoadConfigBadTolerance(t *testing.T) {
	Cfg.Set("Export.Tolerance", -0.5)
	defer Cfg.Set("Export.Tolerance", 0.0001)
	if _, err := LoadConfig(Cfg); err == nil {
		t.Error("expected an error for a negative tolerance")
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("expected an error for an empty output file")
	}
	if _, err := checkOutputFile(filepath.Join("no", "such", "dir", "out.geojson")); err == nil {
		t.Error("expected an error for a missing output directory")
	}
	got, err := checkOutputFile(filepath.Join(t.TempDir(), "out.geojson"))
	if err != nil {
		t.Fatal(err)
	}
	if got == "" {
		t.Error("empty path returned for a valid output file")
	}
}
