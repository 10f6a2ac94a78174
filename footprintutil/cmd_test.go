/*
Copyright © 2017 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package footprintutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/footprint"
	"github.com/spatialmodel/footprint/rastersrc"
)

// resetFlags restores the scalar flags to their defaults so that tests
// don't see each other's arguments.
func resetFlags(t *testing.T) {
	t.Helper()
	for _, o := range options {
		if _, ok := o.defaultVal.([]int); ok {
			continue
		}
		f := o.flagsets[0].Lookup(o.name)
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatal(err)
		}
		f.Changed = false
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(t)
	Root.SetArgs(args)
	return Root.Execute()
}

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := ioutil.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readPolygons(t *testing.T, path string) []geom.Polygon {
	t.Helper()
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	polys, err := footprint.DecodeGeoJSON(b)
	if err != nil {
		t.Fatal(err)
	}
	return polys
}

const crossGrid = `ncols 4
nrows 3
xllcorner 0
yllcorner 0
cellsize 1
nodata_value -9999
-9999 1 1 -9999
1 1 1 1
-9999 1 1 -9999
`

const ringGrid = `ncols 3
nrows 3
xllcorner 0
yllcorner 0
cellsize 1
nodata_value 0
1 1 1
1 0 1
1 1 1
`

const unitSquare = `{"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]}`

func TestCreate(t *testing.T) {
	grid := writeFile(t, "cross.asc", crossGrid)
	out := filepath.Join(t.TempDir(), "sub", "footprint.json")
	if err := run(t, "create", grid, "--source-crs=EPSG:4326", "--output="+out); err != nil {
		t.Fatal(err)
	}
	polys := readPolygons(t, out)
	if len(polys) != 1 {
		t.Fatalf("have %d polygons, want 1", len(polys))
	}
	if a := polys[0].Area(); a != 8 {
		t.Errorf("area: %g", a)
	}

	t.Run("with-nodata", func(t *testing.T) {
		if err := run(t, "create", grid, "--source-crs=EPSG:4326", "--with-nodata", "--output="+out); err != nil {
			t.Fatal(err)
		}
		if a := readPolygons(t, out)[0].Area(); a != 12 {
			t.Errorf("area: %g", a)
		}
	})

	t.Run("convex-hull", func(t *testing.T) {
		if err := run(t, "create", grid, "--source-crs=EPSG:4326", "--convex-hull", "--output="+out); err != nil {
			t.Fatal(err)
		}
		if a := readPolygons(t, out)[0].Area(); a != 10 {
			t.Errorf("area: %g", a)
		}
	})

	t.Run("nodata override", func(t *testing.T) {
		if err := run(t, "create", grid, "--source-crs=EPSG:4326", "--nodata=1", "--output="+out); err != nil {
			t.Fatal(err)
		}
		// Only the corners remain valid.
		polys := readPolygons(t, out)
		if len(polys) != 4 {
			t.Fatalf("have %d polygons, want 4", len(polys))
		}
		for _, p := range polys {
			if a := p.Area(); a != 1 {
				t.Errorf("area: %g", a)
			}
		}
	})
}

func TestCreateHoles(t *testing.T) {
	grid := writeFile(t, "ring.asc", ringGrid)
	out := filepath.Join(t.TempDir(), "footprint.json")
	if err := run(t, "create", grid, "--source-crs=EPSG:4326", "--output="+out); err != nil {
		t.Fatal(err)
	}
	if polys := readPolygons(t, out); len(polys[0]) != 1 {
		t.Errorf("have %d rings without holes", len(polys[0]))
	}
	if err := run(t, "create", grid, "--source-crs=EPSG:4326", "--holes", "--output="+out); err != nil {
		t.Fatal(err)
	}
	if polys := readPolygons(t, out); len(polys[0]) != 2 {
		t.Errorf("have %d rings with holes", len(polys[0]))
	}
}

func TestCreateStdout(t *testing.T) {
	grid := writeFile(t, "cross.asc", crossGrid)
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	if err := run(t, "create", grid, "--source-crs=EPSG:4326"); err != nil {
		t.Fatal(err)
	}
	var g struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(buf.Bytes(), &g); err != nil {
		t.Fatal(err)
	}
	if g.Type != "Polygon" {
		t.Errorf("type: %s", g.Type)
	}
}

func TestCreateErrors(t *testing.T) {
	grid := writeFile(t, "cross.asc", crossGrid)
	out := filepath.Join(t.TempDir(), "footprint.json")
	for name, args := range map[string][]string{
		"densify conflict":  {"--densify-factor=2", "--densify-distance=0.5"},
		"hull with holes":   {"--convex-hull", "--holes"},
		"negative simplify": {"--simplify=-1"},
		"bad nodata":        {"--nodata=abc"},
	} {
		t.Run(name, func(t *testing.T) {
			args = append([]string{"create", grid, "--source-crs=EPSG:4326", "--output=" + out}, args...)
			if err := run(t, args...); !footprint.IsConfigurationError(err) {
				t.Errorf("want configuration error, have %v", err)
			}
		})
	}
	if err := run(t, "create", filepath.Join(t.TempDir(), "missing.asc"), "--output="+out); err == nil {
		t.Error("missing raster should be an error")
	}
}

func TestDensify(t *testing.T) {
	in := writeFile(t, "square.json", unitSquare)
	out := filepath.Join(t.TempDir(), "densified.json")
	if err := run(t, "densify", in, "--densify-factor=2", "--output="+out); err != nil {
		t.Fatal(err)
	}
	polys := readPolygons(t, out)
	if n := len(polys[0][0]); n != 9 {
		t.Errorf("have %d points, want 9", n)
	}
}

func TestReproject(t *testing.T) {
	in := writeFile(t, "square.json", `{"type": "Feature", "properties": {}, "geometry":
		{"type": "Polygon", "coordinates": [[[10, 50], [11, 50], [11, 51], [10, 51], [10, 50]]]}}`)
	out := filepath.Join(t.TempDir(), "utm.json")
	if err := run(t, "reproject", in, "--destination-crs=EPSG:32633", "--precision=2", "--output="+out); err != nil {
		t.Fatal(err)
	}
	polys := readPolygons(t, out)
	for _, p := range polys[0][0] {
		if p.X < 0 || p.X > 1e6 || p.Y < 5e6 || p.Y > 6e6 {
			t.Errorf("point %v isn't in UTM zone 33N", p)
		}
	}
	if err := run(t, "reproject", in, "--destination-crs=EPSG:99999", "--output="+out); err == nil {
		t.Error("unknown spatial reference should be an error")
	}
}

func TestSimplify(t *testing.T) {
	in := writeFile(t, "square.json", `{"type": "Polygon", "coordinates":
		[[[0, 0], [0.5, 0], [1, 0], [1, 0.5], [1, 1], [0.5, 1], [0, 1], [0, 0.5], [0, 0]]]}`)
	out := filepath.Join(t.TempDir(), "simple.json")
	if err := run(t, "simplify", in, "--simplify=0.1", "--output="+out); err != nil {
		t.Fatal(err)
	}
	if n := len(readPolygons(t, out)[0][0]); n != 5 {
		t.Errorf("have %d points, want 5", n)
	}
}

func TestBlobInputOutput(t *testing.T) {
	dir := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(dir, "square.json"), []byte(unitSquare), 0644); err != nil {
		t.Fatal(err)
	}
	base := "file://" + filepath.ToSlash(dir)
	if err := run(t, "densify", base+"/square.json", "--densify-factor=4", "--output="+base+"/densified.json"); err != nil {
		t.Fatal(err)
	}
	path, err := rastersrc.NewFetcher(t.TempDir()).Fetch(context.Background(), base+"/densified.json")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(readPolygons(t, path)[0][0]); n != 17 {
		t.Errorf("have %d points, want 17", n)
	}
}

func TestCells(t *testing.T) {
	in := writeFile(t, "square.json", `{"type": "Polygon", "coordinates": [[[10, 50], [11, 50], [11, 51], [10, 51], [10, 50]]]}`)
	out := filepath.Join(t.TempDir(), "cells.json")
	if err := run(t, "cells", in, "--h3-resolution=5", "--output="+out); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var cells []string
	if err := json.Unmarshal(b, &cells); err != nil {
		t.Fatal(err)
	}
	if len(cells) == 0 {
		t.Fatal("no cells")
	}
	if err := run(t, "cells", in, "--h3-resolution=16", "--output="+out); !footprint.IsConfigurationError(err) {
		t.Errorf("want configuration error, have %v", err)
	}
}

func TestOptionFlags(t *testing.T) {
	types := map[string]string{
		"string": "string", "bool": "bool", "int": "int", "[]int": "intSlice", "float64": "float64",
	}
	seen := make(map[string]bool)
	for _, o := range options {
		t.Run(o.name, func(t *testing.T) {
			if seen[o.name] {
				t.Fatal("defined twice")
			}
			seen[o.name] = true
			f := o.flagsets[0].Lookup(o.name)
			if f == nil {
				t.Fatal("not defined")
			}
			if want := types[fmt.Sprintf("%T", o.defaultVal)]; f.Value.Type() != want {
				t.Errorf("type: have %s, want %s", f.Value.Type(), want)
			}
			if f.Shorthand != o.shorthand {
				t.Errorf("shorthand: have %q, want %q", f.Shorthand, o.shorthand)
			}
			for i, set := range o.flagsets {
				if set.Lookup(o.name) != f {
					t.Errorf("flag set %d doesn't share the flag", i)
				}
			}
		})
	}
	for _, name := range []string{"bands", "precision", "source-crs", "h3-resolution"} {
		if !seen[name] {
			t.Errorf("missing option %s", name)
		}
	}
	if f := createCmd.Flags().Lookup("compact"); f != nil {
		t.Error("create shouldn't have the compact flag")
	}
}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOutput(&buf)
	defer Root.SetOutput(nil)
	if err := run(t, "version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), Version) {
		t.Errorf("version output: %q", buf.String())
	}
}
