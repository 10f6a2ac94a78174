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
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/footprint"
	"github.com/spf13/cast"
)

// Attribute names used to find the georeferencing of a NetCDF variable.
// GeoTransform and spatial_ref follow the GDAL convention, crs_wkt the CF
// convention.
const (
	gridMappingAttr  = "grid_mapping"
	geoTransformAttr = "GeoTransform"
	spatialRefAttr   = "spatial_ref"
	crsWKTAttr       = "crs_wkt"
	fillValueAttr    = "_FillValue"
	missingValueAttr = "missing_value"
)

// ReadNetCDF reads raster bands from a NetCDF file. Each named variable
// must have either two dimensions (rows, columns) or three (bands, rows,
// columns), and all must share the same rows and columns. If no variables
// are named, every variable with two or three dimensions is read.
//
// The transform is taken from a GDAL GeoTransform attribute on the
// variable's grid mapping variable or on the file, or else from the
// variable's coordinate variables, which are assumed to hold evenly-spaced
// cell centers. Without any of these, the identity transform is used.
func ReadNetCDF(r cdf.ReaderWriterAt, variables ...string) (*Array, error) {
	f, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("rastersrc: opening NetCDF file: %v", err)
	}
	if len(variables) == 0 {
		variables = rasterVariables(f.Header)
		if len(variables) == 0 {
			return nil, fmt.Errorf("rastersrc: NetCDF file has no raster variables")
		}
	}

	var a *Array
	for _, v := range variables {
		bands, nodata, rows, cols, err := readVariable(f, v)
		if err != nil {
			return nil, err
		}
		if a == nil {
			transform, err := netCDFTransform(f, v)
			if err != nil {
				return nil, err
			}
			a, err = NewArray(rows, cols, transform, netCDFCRS(f.Header, v), bands...)
			if err != nil {
				return nil, err
			}
			a.NodataValues = a.NodataValues[:0]
		} else {
			if rows != a.Rows || cols != a.Cols {
				return nil, fmt.Errorf("rastersrc: NetCDF variable %s has shape %dx%d; want %dx%d", v, rows, cols, a.Rows, a.Cols)
			}
			a.Bands = append(a.Bands, bands...)
		}
		for range bands {
			a.NodataValues = append(a.NodataValues, nodata)
		}
	}
	return a, nil
}

// ReadNetCDFFile reads raster bands from the NetCDF file at path.
func ReadNetCDFFile(path string, variables ...string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rastersrc: %v", err)
	}
	defer f.Close()
	return ReadNetCDF(f, variables...)
}

// rasterVariables returns the variables in h that have two or three
// dimensions.
func rasterVariables(h *cdf.Header) []string {
	var o []string
	for _, v := range h.Variables() {
		if n := len(h.Dimensions(v)); n == 2 || n == 3 {
			o = append(o, v)
		}
	}
	return o
}

func readVariable(f *cdf.File, v string) (bands [][]float64, nodata *float64, rows, cols int, err error) {
	dims := f.Header.Lengths(v)
	nb := 1
	switch len(dims) {
	case 2:
		rows, cols = dims[0], dims[1]
	case 3:
		nb, rows, cols = dims[0], dims[1], dims[2]
	default:
		return nil, nil, 0, 0, fmt.Errorf("rastersrc: NetCDF variable %s has %d dimensions; want 2 or 3", v, len(dims))
	}
	if nb == 0 || rows == 0 || cols == 0 {
		return nil, nil, 0, 0, fmt.Errorf("rastersrc: NetCDF variable %s is empty", v)
	}

	r := f.Reader(v, nil, nil)
	buf := r.Zero(-1)
	if _, err = r.Read(buf); err != nil {
		return nil, nil, 0, 0, fmt.Errorf("rastersrc: reading NetCDF variable %s: %v", v, err)
	}
	data, err := toFloat64s(buf)
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("rastersrc: NetCDF variable %s: %v", v, err)
	}
	n := rows * cols
	if len(data) != nb*n {
		return nil, nil, 0, 0, fmt.Errorf("rastersrc: NetCDF variable %s has %d values; want %d", v, len(data), nb*n)
	}
	bands = make([][]float64, nb)
	for i := range bands {
		bands[i] = data[i*n : (i+1)*n]
	}

	for _, attr := range []string{fillValueAttr, missingValueAttr} {
		if val := f.Header.GetAttribute(v, attr); val != nil {
			vals, err := toFloat64s(val)
			if err != nil || len(vals) == 0 {
				return nil, nil, 0, 0, fmt.Errorf("rastersrc: NetCDF variable %s has an invalid %s", v, attr)
			}
			nodata = &vals[0]
			break
		}
	}
	return bands, nodata, rows, cols, nil
}

// netCDFTransform returns the transform of variable v.
func netCDFTransform(f *cdf.File, v string) (footprint.Affine, error) {
	if gt := attribute(f.Header, v, geoTransformAttr); gt != nil {
		return parseGeoTransform(gt)
	}

	dims := f.Header.Dimensions(v)
	ydim, xdim := dims[len(dims)-2], dims[len(dims)-1]
	x, err := coordinate(f, xdim)
	if err != nil {
		return footprint.Affine{}, err
	}
	y, err := coordinate(f, ydim)
	if err != nil {
		return footprint.Affine{}, err
	}
	if x == nil || y == nil {
		return footprint.Identity(), nil
	}
	dx, dy := spacing(x), spacing(y)
	if dx == 0 || dy == 0 {
		return footprint.Affine{}, fmt.Errorf("rastersrc: NetCDF coordinate variables for %s have zero spacing", v)
	}
	return footprint.Affine{A: dx, C: x[0] - dx/2, E: dy, F: y[0] - dy/2}, nil
}

// spacing returns the distance between the first two values of c. A
// single cell is given unit spacing.
func spacing(c []float64) float64 {
	if len(c) < 2 {
		return 1
	}
	return c[1] - c[0]
}

// coordinate returns the coordinate variable for dimension dim, or nil if
// there isn't one.
func coordinate(f *cdf.File, dim string) ([]float64, error) {
	found := false
	for _, v := range f.Header.Variables() {
		if v == dim {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}
	if d := f.Header.Dimensions(dim); len(d) != 1 || d[0] != dim {
		return nil, nil
	}
	r := f.Reader(dim, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("rastersrc: reading NetCDF coordinate %s: %v", dim, err)
	}
	c, err := toFloat64s(buf)
	if err != nil {
		return nil, fmt.Errorf("rastersrc: NetCDF coordinate %s: %v", dim, err)
	}
	return c, nil
}

// netCDFCRS returns the spatial reference of variable v, or an empty
// string if it has none.
func netCDFCRS(h *cdf.Header, v string) string {
	for _, name := range []string{spatialRefAttr, crsWKTAttr} {
		if s, ok := attribute(h, v, name).(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// attribute looks for attribute name on the grid mapping variable of v
// and then on the file itself.
func attribute(h *cdf.Header, v, name string) interface{} {
	if gm, ok := h.GetAttribute(v, gridMappingAttr).(string); ok && gm != "" {
		if val := h.GetAttribute(strings.TrimSpace(gm), name); val != nil {
			return val
		}
	}
	return h.GetAttribute("", name)
}

// parseGeoTransform converts a GDAL GeoTransform attribute, stored either
// as a space-separated string or as a numeric array, into an Affine.
func parseGeoTransform(val interface{}) (footprint.Affine, error) {
	var gt []float64
	if s, ok := val.(string); ok {
		for _, f := range strings.Fields(s) {
			v, err := cast.ToFloat64E(f)
			if err != nil {
				return footprint.Affine{}, fmt.Errorf("rastersrc: invalid GeoTransform %q: %v", s, err)
			}
			gt = append(gt, v)
		}
	} else {
		var err error
		if gt, err = toFloat64s(val); err != nil {
			return footprint.Affine{}, fmt.Errorf("rastersrc: invalid GeoTransform: %v", err)
		}
	}
	if len(gt) != 6 {
		return footprint.Affine{}, fmt.Errorf("rastersrc: GeoTransform has %d coefficients; want 6", len(gt))
	}
	var a [6]float64
	copy(a[:], gt)
	return footprint.FromGDAL(a), nil
}

// toFloat64s converts a NetCDF numeric array to float64.
func toFloat64s(data interface{}) ([]float64, error) {
	switch d := data.(type) {
	case []float64:
		return d, nil
	case []float32:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("unsupported data type %T", data)
	}
}
