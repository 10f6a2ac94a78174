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

	"github.com/ctessum/geom"
)

// Affine maps grid cell corner coordinates (col, row) to coordinates in
// the grid's spatial reference:
//
//	x = A*col + B*row + C
//	y = D*col + E*row + F
//
// The coefficient order matches the rasterio/affine convention. Use FromGDAL
// to convert a GDAL GeoTransform.
type Affine struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform, where grid corner (col, row)
// maps to (x=col, y=row).
func Identity() Affine {
	return Affine{A: 1, E: 1}
}

// FromGDAL converts a GDAL GeoTransform, which is ordered
// (c, a, b, f, d, e), into an Affine.
func FromGDAL(gt [6]float64) Affine {
	return Affine{A: gt[1], B: gt[2], C: gt[0], D: gt[4], E: gt[5], F: gt[3]}
}

// Apply returns the location of grid corner (col, row).
func (a Affine) Apply(col, row float64) geom.Point {
	return geom.Point{
		X: a.A*col + a.B*row + a.C,
		Y: a.D*col + a.E*row + a.F,
	}
}

// Determinant returns the determinant of the linear part of a. A negative
// value means the transform reverses ring orientation.
func (a Affine) Determinant() float64 {
	return a.A*a.E - a.B*a.D
}

// Grid holds one band of raster samples.
type Grid struct {
	Rows, Cols int

	// Data holds the samples in row-major order.
	Data []float64

	Transform Affine
	CRS       string
}

// NewGrid creates a new grid, checking that the data matches the
// specified shape. The data slice is copied.
func NewGrid(rows, cols int, data []float64, transform Affine, crs string) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("footprint: invalid grid shape %d×%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("footprint: grid data length %d doesn't match shape %d×%d",
			len(data), rows, cols)
	}
	d := make([]float64, len(data))
	copy(d, data)
	return &Grid{Rows: rows, Cols: cols, Data: d, Transform: transform, CRS: crs}, nil
}

// At returns the sample at the given row and column.
func (g *Grid) At(row, col int) float64 {
	return g.Data[row*g.Cols+col]
}
