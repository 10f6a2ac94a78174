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

// Package footprint derives the footprint of a raster: the polygon
// boundary, in a geographic or projected spatial reference, of the cells
// that hold valid data. The boundary is traced from a validity mask,
// optionally densified, reprojected, simplified, and reduced to its
// exterior or convex hull.
package footprint

import (
	"github.com/ctessum/geom"
)

// Kind is the geometry type of a Footprint.
type Kind int

const (
	// Empty is the kind of a footprint with no polygons.
	Empty Kind = iota
	Polygon
	MultiPolygon
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Polygon:
		return "Polygon"
	default:
		return "MultiPolygon"
	}
}

// Footprint is the boundary of the valid data in a raster.
type Footprint struct {
	// CRS is the spatial reference of the coordinates.
	CRS string

	// Polygons holds the footprint polygons. The first ring of each
	// polygon is its counter-clockwise exterior and the rest are
	// clockwise holes. All rings are closed.
	Polygons []geom.Polygon
}

// Assemble creates a footprint from polys, closing every ring and
// winding exterior rings counter-clockwise and holes clockwise. Rings with
// fewer than four points are removed; polygons without a valid exterior
// are removed.
func Assemble(crs string, polys []geom.Polygon) *Footprint {
	f := &Footprint{CRS: crs}
	for _, p := range polys {
		var op geom.Polygon
		for i, r := range p {
			rr := orientRing(r, i == 0)
			if len(rr) < minRingPoints {
				if i == 0 {
					break
				}
				continue
			}
			op = append(op, rr)
		}
		if len(op) > 0 {
			f.Polygons = append(f.Polygons, op)
		}
	}
	return f
}

// Kind returns the geometry type of f.
func (f *Footprint) Kind() Kind {
	switch len(f.Polygons) {
	case 0:
		return Empty
	case 1:
		return Polygon
	default:
		return MultiPolygon
	}
}

// Len returns the number of polygons in f.
func (f *Footprint) Len() int { return len(f.Polygons) }

// Geometry returns f as a geom.Polygon or geom.MultiPolygon, or nil if f
// is empty.
func (f *Footprint) Geometry() geom.Geom {
	switch f.Kind() {
	case Empty:
		return nil
	case Polygon:
		return f.Polygons[0]
	default:
		return geom.MultiPolygon(f.Polygons)
	}
}

// Vertices returns the total number of points in all rings of f,
// including closing points.
func (f *Footprint) Vertices() int { return countVertices(f.Polygons) }
