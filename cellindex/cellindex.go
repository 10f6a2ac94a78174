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

// Package cellindex indexes footprints by the H3 cells that cover them,
// for use as keys in spatial catalogs.
package cellindex

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/footprint"
	h3 "github.com/uber/h3-go/v4"
)

// MaxResolution is the finest H3 resolution.
const MaxResolution = 15

func checkResolution(res int) error {
	if res < 0 || res > MaxResolution {
		return &footprint.ConfigurationError{
			Option: "h3-resolution",
			Reason: fmt.Sprintf("resolution %d is outside of [0, %d]", res, MaxResolution),
		}
	}
	return nil
}

// Cover returns the H3 cells at resolution res whose centers lie within
// fp, sorted and without duplicates. fp must be in geographic WGS84
// coordinates. An empty footprint has no cells.
func Cover(fp *footprint.Footprint, res int) ([]h3.Cell, error) {
	if err := checkResolution(res); err != nil {
		return nil, err
	}
	if fp.Kind() == footprint.Empty {
		return nil, nil
	}
	if !footprint.SameCRS(fp.CRS, footprint.DefaultCRS) {
		return nil, &footprint.ConfigurationError{
			Option: "destination-crs",
			Reason: fmt.Sprintf("H3 cells require %s coordinates, not %q", footprint.DefaultCRS, fp.CRS),
		}
	}

	seen := make(map[h3.Cell]struct{})
	var o []h3.Cell
	for i, p := range fp.Polygons {
		cells, err := h3.PolygonToCells(geoPolygon(p), res)
		if err != nil {
			return nil, fmt.Errorf("cellindex: polygon %d: %v", i, err)
		}
		for _, c := range cells {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				o = append(o, c)
			}
		}
	}
	sort.Slice(o, func(i, j int) bool { return o[i] < o[j] })
	return o, nil
}

// Cells returns the string form of the cells returned by Cover.
func Cells(fp *footprint.Footprint, res int) ([]string, error) {
	cells, err := Cover(fp, res)
	if err != nil {
		return nil, err
	}
	o := make([]string, len(cells))
	for i, c := range cells {
		o[i] = c.String()
	}
	return o, nil
}

// Compact returns the cells covering fp at resolution res, with every
// complete set of children replaced by its parent.
func Compact(fp *footprint.Footprint, res int) ([]string, error) {
	cells, err := Cover(fp, res)
	if err != nil || len(cells) == 0 {
		return nil, err
	}
	compact, err := h3.CompactCells(cells)
	if err != nil {
		return nil, fmt.Errorf("cellindex: compacting cells: %v", err)
	}
	sort.Slice(compact, func(i, j int) bool { return compact[i] < compact[j] })
	o := make([]string, len(compact))
	for i, c := range compact {
		o[i] = c.String()
	}
	return o, nil
}

func geoPolygon(p geom.Polygon) h3.GeoPolygon {
	o := h3.GeoPolygon{GeoLoop: geoLoop(p[0])}
	for _, r := range p[1:] {
		o.Holes = append(o.Holes, geoLoop(r))
	}
	return o
}

// geoLoop converts a closed ring in (longitude, latitude) order into an
// open H3 loop.
func geoLoop(r geom.Path) h3.GeoLoop {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		r = r[:len(r)-1]
	}
	o := make(h3.GeoLoop, len(r))
	for i, pt := range r {
		o[i] = h3.LatLng{Lat: pt.Y, Lng: pt.X}
	}
	return o
}
