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
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
)

// A Transformer maps points from one spatial reference to another.
// Spatial references are given as identifiers such as "EPSG:4326", PROJ.4
// strings, or WKT. Implementations must be safe for concurrent use and
// must return an error rather than a non-finite coordinate for points that
// cannot be represented in the destination.
type Transformer interface {
	Transform(pts []geom.Point, src, dst string) ([]geom.Point, error)
}

// canonicalCRS normalizes a spatial reference identifier so that
// equivalent spellings compare equal.
func canonicalCRS(crs string) string {
	c := strings.TrimSpace(crs)
	u := strings.ToUpper(c)
	switch {
	case u == "WGS84" || u == "WGS 84" || u == "CRS84" || u == "OGC:CRS84":
		return "EPSG:4326"
	case strings.HasPrefix(u, "EPSG:"):
		return "EPSG:" + strings.TrimLeft(strings.TrimSpace(u[len("EPSG:"):]), "0")
	}
	return strings.Join(strings.Fields(c), " ")
}

// SameCRS reports whether a and b identify the same spatial reference.
// Only the identifiers are compared; two different definitions of an
// equivalent projection are reported as different.
func SameCRS(a, b string) bool {
	return canonicalCRS(a) == canonicalCRS(b)
}

// Reproject returns copies of polys with every vertex transformed from src
// to dst using t. Transformed coordinates are rounded to precision decimal
// places, consecutive duplicates are removed, and ring winding is restored
// to counter-clockwise exteriors and clockwise holes. Rings that collapse
// below four points are dropped, along with polygons whose exterior ring
// collapses. If src and dst are the same, polys are returned unchanged.
//
// Geometries crossing the antimeridian or covering a pole are not split
// and may be invalid in geographic destinations.
func Reproject(polys []geom.Polygon, src, dst string, t Transformer, precision int) ([]geom.Polygon, error) {
	if err := checkPrecision(precision); err != nil {
		return nil, err
	}
	if SameCRS(src, dst) {
		return copyPolygons(polys), nil
	}
	if strings.TrimSpace(src) == "" {
		return nil, configErrorf("source-crs", "the source spatial reference is not known")
	}
	if t == nil {
		return nil, configErrorf("transformer", "no coordinate transformer was provided")
	}
	out := make([]geom.Polygon, 0, len(polys))
	for _, p := range polys {
		var op geom.Polygon
		for i, r := range p {
			if len(r) == 0 {
				continue
			}
			tr, err := t.Transform(r, src, dst)
			if err != nil {
				if IsProjectionError(err) || IsConfigurationError(err) {
					return nil, err
				}
				return nil, &ProjectionError{Point: r[0], Source: src, Destination: dst, Err: err}
			}
			if len(tr) != len(r) {
				return nil, fmt.Errorf("footprint: transformer returned %d points for %d inputs", len(tr), len(r))
			}
			rr := make(geom.Path, len(tr))
			for j, pt := range tr {
				if math.IsNaN(pt.X) || math.IsNaN(pt.Y) || math.IsInf(pt.X, 0) || math.IsInf(pt.Y, 0) {
					return nil, &ProjectionError{Point: r[j], Source: src, Destination: dst,
						Err: errNonFinite}
				}
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
	return out, nil
}

func copyPolygons(polys []geom.Polygon) []geom.Polygon {
	out := make([]geom.Polygon, len(polys))
	for i, p := range polys {
		out[i] = make(geom.Polygon, len(p))
		for j, r := range p {
			out[i][j] = append(geom.Path(nil), r...)
		}
	}
	return out
}
