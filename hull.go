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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

type exteriorItem struct {
	geom.Polygon
	index int
}

// RemoveHoles returns the exterior rings of polys without their holes.
// Polygons that were islands inside a removed hole are inside another
// exterior ring once the hole is gone, so they are dropped as well.
func RemoveHoles(polys []geom.Polygon) []geom.Polygon {
	items := make([]*exteriorItem, 0, len(polys))
	tree := rtree.NewTree(25, 50)
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		item := &exteriorItem{
			Polygon: geom.Polygon{append(geom.Path(nil), p[0]...)},
			index:   len(items),
		}
		items = append(items, item)
		tree.Insert(item)
	}

	out := make([]geom.Polygon, 0, len(items))
	for _, item := range items {
		if !nested(item, tree) {
			out = append(out, item.Polygon)
		}
	}
	return out
}

// nested reports whether item is inside another of the exterior rings in
// tree. Vertices on another ring's edge, as happens where rings meet at a
// corner, don't count.
func nested(item *exteriorItem, tree *rtree.Rtree) bool {
	for _, cI := range tree.SearchIntersect(item.Bounds()) {
		c := cI.(*exteriorItem)
		if c.index == item.index {
			continue
		}
		for _, pt := range item.Polygon[0] {
			w := pt.Within(c.Polygon)
			if w == geom.OnEdge {
				continue
			}
			if w == geom.Inside {
				return true
			}
			break
		}
	}
	return false
}

// ConvexHull returns a single polygon without holes whose exterior ring is
// the convex hull of the exterior ring vertices of polys. The ring is
// counter-clockwise, starts at the vertex with the lowest x (and then y)
// coordinate, and has no collinear vertices. Empty input, or input whose
// vertices are all on one line, results in no polygons.
func ConvexHull(polys []geom.Polygon) []geom.Polygon {
	var pts []geom.Point
	for _, p := range polys {
		if len(p) > 0 {
			pts = append(pts, p[0]...)
		}
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	pts = dedupeRing(pts)
	if len(pts) < 3 {
		return nil
	}

	hull := make(geom.Path, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	if len(hull) < minRingPoints {
		return nil
	}
	return []geom.Polygon{{hull}}
}

// cross returns the z component of the cross product of o→a and o→b,
// which is positive when o, a, b turn counter-clockwise.
func cross(o, a, b geom.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
