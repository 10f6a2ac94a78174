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

package rastersrc

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/spatialmodel/footprint"
)

const testASCIIGrid = `ncols        4
nrows        3
xllcorner    100.0
yllcorner    200.0
cellsize     10.0
NODATA_value -9999
-9999 1 2 -9999
3 4 5 6
-9999 -9999 7 8
`

const testPrj = `PROJCS["WGS 84 / UTM zone 33N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",15],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1]]`

func TestReadASCIIGrid(t *testing.T) {
	a, err := ReadASCIIGrid(strings.NewReader(testASCIIGrid), "EPSG:32633")
	if err != nil {
		t.Fatal(err)
	}
	want := &Array{
		Rows: 3,
		Cols: 4,
		Bands: [][]float64{{
			-9999, 1, 2, -9999,
			3, 4, 5, 6,
			-9999, -9999, 7, 8,
		}},
		NodataValues: a.NodataValues,
		Affine:       footprint.Affine{A: 10, C: 100, E: -10, F: 230},
		SRS:          "EPSG:32633",
	}
	if diff := pretty.Diff(a, want); len(diff) > 0 {
		t.Errorf("have %v\nwant %v\ndiff: %v", a, want, diff)
	}
	if v, ok := a.Nodata(1); !ok || v != -9999 {
		t.Errorf("nodata: %g, %v", v, ok)
	}

	f, err := footprint.FromSource(a, testConfig("EPSG:32633"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Kind() != footprint.Polygon {
		t.Fatalf("kind: %v", f.Kind())
	}
	if area := footprintArea(f); area != 800 {
		t.Errorf("area: %g", area)
	}
}

func TestReadASCIIGridHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   footprint.Affine
	}{
		{
			name:   "cell centers",
			header: "NCOLS 2\nNROWS 2\nXLLCENTER 0.5\nYLLCENTER 1.5\nCELLSIZE 1\n",
			want:   footprint.Affine{A: 1, C: 0, E: -1, F: 3},
		},
		{
			name:   "rectangular cells",
			header: "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ndx 2\ndy 0.5\n",
			want:   footprint.Affine{A: 2, C: 0, E: -0.5, F: 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a, err := ReadASCIIGrid(strings.NewReader(test.header+"1 2\n3 4\n"), "")
			if err != nil {
				t.Fatal(err)
			}
			if a.Affine != test.want {
				t.Errorf("have %+v, want %+v", a.Affine, test.want)
			}
			if _, ok := a.Nodata(1); ok {
				t.Error("grid shouldn't have a nodata value")
			}
		})
	}
}

func TestReadASCIIGridErrors(t *testing.T) {
	const header = "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n"
	tests := map[string]string{
		"too few values":  header + "1 2 3",
		"too many values": header + "1 2 3 4 5",
		"bad value":       header + "1 2 x 4",
		"unknown field":   "ncols 2\nnrows 2\ncolor red\n1 2 3 4",
		"missing corner":  "ncols 2\nnrows 2\ncellsize 1\n1 2 3 4",
		"missing size":    "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\n1 2 3 4",
		"bad shape":       "ncols 0\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n",
		"bad header":      "ncols two\nnrows 2\n",
		"no value":        "ncols",
	}
	for name, grid := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadASCIIGrid(strings.NewReader(grid), ""); err == nil {
				t.Error("should be an error")
			}
		})
	}
}

func TestReadASCIIGridFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dem.asc")
	if err := ioutil.WriteFile(path, []byte(testASCIIGrid), 0644); err != nil {
		t.Fatal(err)
	}
	a, err := ReadASCIIGridFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if a.CRS() != "" {
		t.Errorf("grid without a projection file has CRS %q", a.CRS())
	}

	if err := ioutil.WriteFile(filepath.Join(dir, "dem.prj"), []byte(testPrj+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if a, err = ReadASCIIGridFile(path); err != nil {
		t.Fatal(err)
	}
	if a.CRS() != testPrj {
		t.Errorf("CRS: %q", a.CRS())
	}

	if _, err := ReadASCIIGridFile(filepath.Join(dir, "missing.asc")); err == nil {
		t.Error("missing file should be an error")
	}
}
