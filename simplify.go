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
)

// SimplifyPolygons returns copies of polys where each ring has been
// simplified with the Douglas-Peucker algorithm: every removed vertex is
// within tolerance of the edge that replaces it. Rings are handled
// independently. A ring that would be left with fewer than four points is
// removed, and a polygon whose exterior ring is removed is dropped along
// with its holes. A tolerance of zero returns polys unchanged.
func SimplifyPolygons(polys []geom.Polygon, tolerance float64) ([]geom.Polygon, error) {
	if math.IsNaN(tolerance) || tolerance < 0 {
		return nil, configErrorf("simplify", "tolerance must be a non-negative number but is %g", tolerance)
	}
	if tolerance == 0 {
		return copyPolygons(polys), nil
	}
	out := make([]geom.Polygon, 0, len(polys))
	for _, p := range polys {
		var op geom.Polygon
		for i, r := range p {
			sr := simplifyRing(closeRing(r), tolerance)
			if len(sr) < minRingPoints {
				if i == 0 {
					break
				}
				continue
			}
			op = append(op, orientRing(sr, i == 0))
		}
		if len(op) > 0 {
			out = append(out, op)
		}
	}
	return out, nil
}

// simplifyRing simplifies closed ring r. The ring is split into two
// chains at its first point and the first of its points that is farthest
// from it, and each chain is simplified separately.
func simplifyRing(r geom.Path, tolerance float64) geom.Path {
	n := len(r)
	if n < minRingPoints {
		return nil
	}
	k, dmax := 0, 0.
	for i := 1; i < n-1; i++ {
		if d := dist(r[0], r[i]); d > dmax {
			k, dmax = i, d
		}
	}
	if k == 0 {
		return nil
	}
	keep := make([]bool, n)
	keep[0], keep[k], keep[n-1] = true, true, true
	douglasPeucker(r, 0, k, tolerance, keep)
	douglasPeucker(r, k, n-1, tolerance, keep)

	o := make(geom.Path, 0, n)
	for i, p := range r {
		if keep[i] {
			o = append(o, p)
		}
	}
	return o
}

// douglasPeucker marks the points of r between first and last that must
// be kept.
func douglasPeucker(r geom.Path, first, last int, tolerance float64, keep []bool) {
	type span struct{ first, last int }
	stack := []span{{first, last}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		idx, dmax := -1, 0.
		for i := s.first + 1; i < s.last; i++ {
			if d := segmentDist(r[i], r[s.first], r[s.last]); d > dmax {
				idx, dmax = i, d
			}
		}
		if idx >= 0 && dmax > tolerance {
			keep[idx] = true
			stack = append(stack, span{s.first, idx}, span{idx, s.last})
		}
	}
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// segmentDist returns the distance from p to line segment a–b.
func segmentDist(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return dist(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return dist(p, geom.Point{X: a.X + t*dx, Y: a.Y + t*dy})
}
