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
	"encoding/json"
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
)

func ringCoordinates(r geom.Path) [][]float64 {
	o := make([][]float64, len(r))
	for i, p := range r {
		o[i] = []float64{p.X, p.Y}
	}
	return o
}

func polygonCoordinates(p geom.Polygon) [][][]float64 {
	o := make([][][]float64, len(p))
	for i, r := range p {
		o[i] = ringCoordinates(r)
	}
	return o
}

// GeoJSON returns f as a GeoJSON Polygon or MultiPolygon geometry, or nil
// if f is empty.
func (f *Footprint) GeoJSON() *geojson.Geometry {
	switch f.Kind() {
	case Empty:
		return nil
	case Polygon:
		return &geojson.Geometry{Type: "Polygon", Coordinates: polygonCoordinates(f.Polygons[0])}
	default:
		c := make([][][][]float64, len(f.Polygons))
		for i, p := range f.Polygons {
			c[i] = polygonCoordinates(p)
		}
		return &geojson.Geometry{Type: "MultiPolygon", Coordinates: c}
	}
}

// MarshalJSON implements json.Marshaler. An empty footprint is encoded
// as null.
func (f *Footprint) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.GeoJSON())
}

type geoJSONObject struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates"`
	Geometry    *geoJSONObject    `json:"geometry"`
	Features    []json.RawMessage `json:"features"`
}

// DecodeGeoJSON decodes the polygons in a GeoJSON Polygon or MultiPolygon
// geometry. The geometry may be wrapped in a Feature or in a
// FeatureCollection, in which case the polygons of all features are
// returned. A null geometry decodes to no polygons.
func DecodeGeoJSON(b []byte) ([]geom.Polygon, error) {
	var o *geoJSONObject
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, fmt.Errorf("footprint: decoding GeoJSON: %v", err)
	}
	return decodeObject(o)
}

func decodeObject(o *geoJSONObject) ([]geom.Polygon, error) {
	if o == nil {
		return nil, nil
	}
	switch o.Type {
	case "Feature":
		return decodeObject(o.Geometry)
	case "FeatureCollection":
		var polys []geom.Polygon
		for _, fb := range o.Features {
			p, err := DecodeGeoJSON(fb)
			if err != nil {
				return nil, err
			}
			polys = append(polys, p...)
		}
		return polys, nil
	case "Polygon":
		var c [][][]float64
		if err := json.Unmarshal(o.Coordinates, &c); err != nil {
			return nil, fmt.Errorf("footprint: decoding GeoJSON Polygon: %v", err)
		}
		p, err := decodePolygon(c)
		if err != nil {
			return nil, fmt.Errorf("footprint: decoding GeoJSON Polygon: %v", err)
		}
		return []geom.Polygon{p}, nil
	case "MultiPolygon":
		var c [][][][]float64
		if err := json.Unmarshal(o.Coordinates, &c); err != nil {
			return nil, fmt.Errorf("footprint: decoding GeoJSON MultiPolygon: %v", err)
		}
		polys := make([]geom.Polygon, len(c))
		for i, pc := range c {
			var err error
			if polys[i], err = decodePolygon(pc); err != nil {
				return nil, fmt.Errorf("footprint: decoding GeoJSON MultiPolygon: %v", err)
			}
		}
		return polys, nil
	default:
		return nil, fmt.Errorf("footprint: unsupported GeoJSON type '%s'; only Polygon and MultiPolygon are supported", o.Type)
	}
}

// decodePolygon converts polygon coordinates. Positions beyond the
// second, such as elevation, are ignored.
func decodePolygon(c [][][]float64) (geom.Polygon, error) {
	p := make(geom.Polygon, len(c))
	for i, rc := range c {
		r := make(geom.Path, len(rc))
		for j, xy := range rc {
			if len(xy) < 2 {
				return nil, fmt.Errorf("position with %d values", len(xy))
			}
			r[j] = geom.Point{X: xy[0], Y: xy[1]}
		}
		p[i] = r
	}
	return p, nil
}
