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

// A Source provides raster data and metadata. Band indices are 1-based.
type Source interface {
	// Shape returns the number of rows and columns in each band.
	Shape() (rows, cols int)

	// Transform returns the affine transform from grid corners to
	// coordinates in the spatial reference returned by CRS.
	Transform() Affine

	// CRS returns the spatial reference of the raster, or an empty string
	// if it is not known.
	CRS() string

	// Count returns the number of bands.
	Count() int

	// Band returns the samples of band i in row-major order.
	Band(i int) ([]float64, error)

	// Nodata returns the nodata value of band i and whether it has one.
	Nodata(i int) (float64, bool)
}

// A Masker is a Source that also carries its own validity mask, which is
// used for bands that have no nodata value.
type Masker interface {
	// Mask returns the dataset mask in row-major order, where 0 marks
	// invalid cells and 255 marks valid cells.
	Mask() ([]uint8, error)
}
