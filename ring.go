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
	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// minRingPoints is the number of points in the smallest valid ring:
// three distinct points plus the closing point.
const minRingPoints = 4

// signedArea returns the signed area of ring r, which is positive when r
// is counter-clockwise. r may be open or closed.
func signedArea(r geom.Path) float64 {
	if len(r) < 3 {
		return 0
	}
	var a float64
	for i := range r {
		j := (i + 1) % len(r)
		a += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return a / 2
}

func isClosed(r geom.Path) bool {
	return len(r) > 0 && r[0] == r[len(r)-1]
}

// closeRing returns a copy of r with the first point repeated at the end
// if it isn't already.
func closeRing(r geom.Path) geom.Path {
	o := make(geom.Path, len(r), len(r)+1)
	copy(o, r)
	if len(o) > 0 && !isClosed(o) {
		o = append(o, o[0])
	}
	return o
}

// reverseRing reverses the direction of closed ring r, keeping the same
// starting point.
func reverseRing(r geom.Path) geom.Path {
	o := make(geom.Path, len(r))
	if len(r) == 0 {
		return o
	}
	o[0] = r[0]
	for i := 1; i < len(r); i++ {
		o[i] = r[len(r)-1-i]
	}
	return o
}

// orientRing returns a closed copy of r wound counter-clockwise if ccw is
// true and clockwise otherwise.
func orientRing(r geom.Path, ccw bool) geom.Path {
	o := closeRing(r)
	if a := signedArea(o); (a > 0) != ccw && a != 0 {
		return reverseRing(o)
	}
	return o
}

// orientPolygon returns a copy of p with the exterior ring wound
// counter-clockwise and the holes wound clockwise.
func orientPolygon(p geom.Polygon) geom.Polygon {
	o := make(geom.Polygon, len(p))
	for i, r := range p {
		o[i] = orientRing(r, i == 0)
	}
	return o
}

// dedupeRing returns a copy of r with runs of repeated consecutive points
// collapsed into a single point.
func dedupeRing(r geom.Path) geom.Path {
	o := make(geom.Path, 0, len(r))
	for i, p := range r {
		if i > 0 && p == o[len(o)-1] {
			continue
		}
		o = append(o, p)
	}
	return o
}

// roundPoint rounds the coordinates of p to the given number of
// decimal places.
func roundPoint(p geom.Point, precision int) geom.Point {
	return geom.Point{X: floats.Round(p.X, precision), Y: floats.Round(p.Y, precision)}
}

// roundPolygons returns copies of polys with every coordinate rounded to
// precision decimal places. Rounded rings are deduplicated and re-wound,
// and rings that collapse below four points are dropped along with
// polygons whose exterior collapses.
func roundPolygons(polys []geom.Polygon, precision int) []geom.Polygon {
	out := make([]geom.Polygon, 0, len(polys))
	for _, p := range polys {
		var op geom.Polygon
		for i, r := range p {
			rr := make(geom.Path, len(r))
			for j, pt := range r {
				rr[j] = roundPoint(pt, precision)
			}
			rr = orientRing(dedupeRing(rr), i == 0)
			if len(rr) < minRingPoints {
				if i == 0 {
					break
				}
				continue
			}
			op = append(op, rr)
		}
		if len(op) > 0 {
			out = append(out, op)
		}
	}
	return out
}

func countVertices(polys []geom.Polygon) int {
	n := 0
	for _, p := range polys {
		for _, r := range p {
			n += len(r)
		}
	}
	return n
}
