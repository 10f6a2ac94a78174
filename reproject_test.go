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

package footprint

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/ctessum/geom"
	"github.com/gonum/floats"
	"github.com/kr/pretty"
)

// funcTransformer applies a function to every point.
type funcTransformer func(geom.Point) (geom.Point, error)

func (f funcTransformer) Transform(pts []geom.Point, src, dst string) ([]geom.Point, error) {
	o := make([]geom.Point, len(pts))
	for i, p := range pts {
		var err error
		if o[i], err = f(p); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func TestSameCRS(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"EPSG:4326", "epsg:4326", true},
		{"EPSG:4326", "WGS84", true},
		{" EPSG:32633", "EPSG:32633 ", true},
		{"+proj=longlat  +datum=WGS84", "+proj=longlat +datum=WGS84", true},
		{"EPSG:4326", "EPSG:3857", false},
		{"", "EPSG:4326", false},
	}
	for _, test := range tests {
		if SameCRS(test.a, test.b) != test.same {
			t.Errorf("SameCRS(%q, %q) should be %v", test.a, test.b, test.same)
		}
	}
}

func TestReprojectIdentity(t *testing.T) {
	in := []geom.Polygon{{square(0.123456789, 0, 4, 4)}}
	fail := funcTransformer(func(geom.Point) (geom.Point, error) {
		return geom.Point{}, errors.New("should not be called")
	})
	have, err := Reproject(in, "EPSG:4326", "WGS84", fail, DefaultPrecision)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(have, in); len(diff) > 0 {
		t.Errorf("have %v\nwant %v\ndiff: %v", have, in, diff)
	}
}

func TestReprojectWinding(t *testing.T) {
	mirror := funcTransformer(func(p geom.Point) (geom.Point, error) {
		return geom.Point{X: 2 - p.X, Y: p.Y}, nil
	})
	in := []geom.Polygon{{
		square(0, 0, 1, 1),
		{{X: 0.25, Y: 0.25}, {X: 0.25, Y: 0.75}, {X: 0.75, Y: 0.75}, {X: 0.75, Y: 0.25}, {X: 0.25, Y: 0.25}},
	}}
	have, err := Reproject(in, "a", "b", mirror, DefaultPrecision)
	if err != nil {
		t.Fatal(err)
	}
	want := []geom.Polygon{{
		{{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 2, Y: 0}},
		{{X: 1.75, Y: 0.25}, {X: 1.25, Y: 0.25}, {X: 1.25, Y: 0.75}, {X: 1.75, Y: 0.75}, {X: 1.75, Y: 0.25}},
	}}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v\nwant %v", have, want)
	}
	checkRings(t, have)
}

func TestReprojectRounding(t *testing.T) {
	shrink := funcTransformer(func(p geom.Point) (geom.Point, error) {
		return geom.Point{X: p.X / 3, Y: p.Y / 3}, nil
	})
	in := []geom.Polygon{{{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1.01, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 3}, {X: 0, Y: 0}}}}
	have, err := Reproject(in, "a", "b", shrink, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []geom.Polygon{{{{X: 0, Y: 0}, {X: 0.3, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0}}}}
	if diff := pretty.Diff(have, want); len(diff) > 0 {
		t.Errorf("have %v\nwant %v\ndiff: %v", have, want, diff)
	}
}

func TestReprojectErrors(t *testing.T) {
	in := []geom.Polygon{{square(0, 0, 1, 1)}}
	errBad := errors.New("out of range")
	t.Run("transformer error", func(t *testing.T) {
		bad := funcTransformer(func(geom.Point) (geom.Point, error) { return geom.Point{}, errBad })
		_, err := Reproject(in, "a", "b", bad, DefaultPrecision)
		if !IsProjectionError(err) {
			t.Fatalf("want projection error, have %v", err)
		}
		if !errors.Is(err, errBad) {
			t.Errorf("error should wrap cause: %v", err)
		}
	})
	t.Run("non-finite", func(t *testing.T) {
		nan := funcTransformer(func(p geom.Point) (geom.Point, error) {
			if p.X == 1 && p.Y == 1 {
				return geom.Point{X: math.Inf(1), Y: 0}, nil
			}
			return p, nil
		})
		_, err := Reproject(in, "a", "b", nan, DefaultPrecision)
		var pe *ProjectionError
		if !errors.As(err, &pe) {
			t.Fatalf("want projection error, have %v", err)
		}
		if pe.Point != (geom.Point{X: 1, Y: 1}) {
			t.Errorf("error point: %v", pe.Point)
		}
	})
	t.Run("no source", func(t *testing.T) {
		_, err := Reproject(in, "", "EPSG:4326", DefaultTransformer(), DefaultPrecision)
		if !IsConfigurationError(err) {
			t.Errorf("want configuration error, have %v", err)
		}
	})
}

func TestProjDefinition(t *testing.T) {
	tests := []struct {
		crs, want string
		err       bool
	}{
		{crs: "EPSG:4326", want: "+proj=longlat +datum=WGS84 +no_defs"},
		{crs: "wgs84", want: "+proj=longlat +datum=WGS84 +no_defs"},
		{crs: "EPSG:32633", want: "+proj=utm +zone=33 +datum=WGS84 +units=m +no_defs"},
		{crs: "epsg:32718", want: "+proj=utm +zone=18 +south +datum=WGS84 +units=m +no_defs"},
		{crs: "+proj=lcc +lat_1=33 +lat_2=45", want: "+proj=lcc +lat_1=33 +lat_2=45"},
		{crs: "EPSG:1234", err: true},
		{crs: "EPSG:abc", err: true},
		{crs: "", err: true},
	}
	for _, test := range tests {
		t.Run(test.crs, func(t *testing.T) {
			have, err := ProjDefinition(test.crs)
			if (err != nil) != test.err {
				t.Fatalf("error: %v", err)
			}
			if have != test.want {
				t.Errorf("have %q, want %q", have, test.want)
			}
		})
	}
}

func TestProjTransformer(t *testing.T) {
	tr, err := NewProjTransformer(2)
	if err != nil {
		t.Fatal(err)
	}
	pts := []geom.Point{{X: 500000, Y: 0}}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			have, err := tr.Transform(pts, "EPSG:32633", "EPSG:4326")
			if err != nil {
				t.Error(err)
				return
			}
			if !floats.EqualWithinAbsOrRel(have[0].X, 15, 1e-6, 1e-9) ||
				!floats.EqualWithinAbsOrRel(have[0].Y, 0, 1e-6, 1e-9) {
				t.Errorf("have %v, want (15, 0)", have[0])
			}
		}()
	}
	wg.Wait()

	if _, err := tr.Transform(pts, "EPSG:1234", "EPSG:4326"); !IsConfigurationError(err) {
		t.Errorf("want configuration error, have %v", err)
	}
}

func TestProjTransformerDatumShift(t *testing.T) {
	const (
		ed50   = "+proj=longlat +ellps=intl +towgs84=-87,-98,-121,0,0,0,0 +no_defs"
		bessel = "+proj=utm +zone=33 +ellps=bessel +towgs84=598.1,73.7,418.2,0.202,0.045,-2.455,6.7 +units=m +no_defs"
	)
	tr, err := NewProjTransformer(2)
	if err != nil {
		t.Fatal(err)
	}
	pts := []geom.Point{{X: 15, Y: 50}, {X: 15, Y: 50}, {X: 15, Y: 50}}
	first, err := tr.Transform(pts, ed50, bessel)
	if err != nil {
		t.Fatal(err)
	}
	second, err := tr.Transform(pts[:1], ed50, bessel)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range append(first[1:], second...) {
		if p != first[0] {
			t.Errorf("point %d: have %v, want %v", i+1, p, first[0])
		}
	}
}

func TestProjTransformerDomain(t *testing.T) {
	tr, err := NewProjTransformer(2)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		name     string
		pt       geom.Point
		src, dst string
	}{
		{name: "to geographic", pt: geom.Point{X: 1e30, Y: 0}, src: "EPSG:32633", dst: "EPSG:4326"},
		{name: "from geographic", pt: geom.Point{X: 10, Y: 95}, src: "EPSG:4326", dst: "EPSG:32633"},
		{name: "longitude", pt: geom.Point{X: 1000, Y: 10}, src: "EPSG:4326", dst: "EPSG:3857"},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := tr.Transform([]geom.Point{test.pt}, test.src, test.dst)
			if !IsProjectionError(err) {
				t.Errorf("want projection error, have %v", err)
			}
		})
	}

	ring := geom.Polygon{{{X: 1e30, Y: 0}, {X: 1e30 + 1, Y: 0}, {X: 1e30 + 1, Y: 1}, {X: 1e30, Y: 0}}}
	if _, err := Reproject([]geom.Polygon{ring}, "EPSG:32633", "EPSG:4326", tr, DefaultPrecision); !IsProjectionError(err) {
		t.Errorf("reproject: want projection error, have %v", err)
	}

	// Longitudes just across the antimeridian are accepted.
	if _, err := tr.Transform([]geom.Point{{X: 181, Y: 10}}, "EPSG:4326", "EPSG:3857"); err != nil {
		t.Error(err)
	}
}
