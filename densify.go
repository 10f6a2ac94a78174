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
	"math"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// DensifyMode specifies how extra vertices are added along ring edges.
type DensifyMode int

const (
	// DensifyNone leaves rings unchanged.
	DensifyNone DensifyMode = iota

	// DensifyFactor splits every edge into Factor equal segments.
	DensifyFactor

	// DensifyDistance splits every edge into the smallest number of equal
	// segments that are no longer than Distance.
	DensifyDistance
)

func (m DensifyMode) String() string {
	switch m {
	case DensifyNone:
		return "none"
	case DensifyFactor:
		return "factor"
	case DensifyDistance:
		return "distance"
	default:
		return "unknown"
	}
}

// Densify holds densification options. Only the field matching Mode is
// used.
type Densify struct {
	Mode     DensifyMode
	Factor   int
	Distance float64
}

// Validate checks that the magnitude matches the mode.
func (d Densify) Validate() error {
	switch d.Mode {
	case DensifyNone:
		return nil
	case DensifyFactor:
		if d.Factor < 1 {
			return configErrorf("densify-factor", "factor must be at least 1 but is %d", d.Factor)
		}
	case DensifyDistance:
		if math.IsNaN(d.Distance) || d.Distance <= 0 {
			return configErrorf("densify-distance", "distance must be positive but is %g", d.Distance)
		}
	default:
		return configErrorf("densify", "unknown mode %d", int(d.Mode))
	}
	return nil
}

// segments returns the number of segments edge a–b should be split into.
func (d Densify) segments(a, b geom.Point) int {
	switch d.Mode {
	case DensifyFactor:
		return d.Factor
	case DensifyDistance:
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		if l == 0 || math.IsInf(d.Distance, 1) {
			return 1
		}
		return int(math.Ceil(l / d.Distance))
	default:
		return 1
	}
}

// DensifyPolygons returns copies of polys where vertices have been added
// along each ring edge as specified by d. All output coordinates are rounded
// to precision decimal places and consecutive duplicate points are removed.
// Rings that have fewer than four points after rounding are dropped, as are
// polygons whose exterior ring is dropped.
func DensifyPolygons(polys []geom.Polygon, d Densify, precision int) ([]geom.Polygon, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := checkPrecision(precision); err != nil {
		return nil, err
	}
	out := make([]geom.Polygon, 0, len(polys))
	for _, p := range polys {
		var op geom.Polygon
		for i, r := range p {
			dr := densifyRing(closeRing(r), d, precision)
			if len(dr) < minRingPoints {
				if i == 0 {
					break
				}
				continue
			}
			op = append(op, dr)
		}
		if len(op) > 0 {
			out = append(out, op)
		}
	}
	return out, nil
}

func densifyRing(r geom.Path, d Densify, precision int) geom.Path {
	o := make(geom.Path, 0, len(r))
	var xs, ys []float64
	for i := 0; i < len(r)-1; i++ {
		a, b := r[i], r[i+1]
		n := d.segments(a, b)
		if n <= 1 {
			o = append(o, roundPoint(a, precision))
			continue
		}
		if cap(xs) < n+1 {
			xs, ys = make([]float64, n+1), make([]float64, n+1)
		}
		xs, ys = xs[:n+1], ys[:n+1]
		floats.Span(xs, a.X, b.X)
		floats.Span(ys, a.Y, b.Y)
		for j := 0; j < n; j++ {
			o = append(o, roundPoint(geom.Point{X: xs[j], Y: ys[j]}, precision))
		}
	}
	if len(r) > 0 {
		o = append(o, roundPoint(r[len(r)-1], precision))
	}
	return dedupeRing(o)
}

func checkPrecision(precision int) error {
	if precision < 0 || precision > 15 {
		return configErrorf("precision", "must be between 0 and 15 but is %d", precision)
	}
	return nil
}
