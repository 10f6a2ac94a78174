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

// Package rastersrc provides raster sources for footprint extraction:
// in-memory arrays, ESRI ASCII grids, and NetCDF files, read from the local
// filesystem, over HTTP, or from blob storage.
package rastersrc

import (
	"fmt"

	"github.com/spatialmodel/footprint"
)

// Array is an in-memory raster. It implements footprint.Source.
type Array struct {
	Rows, Cols int

	// Bands holds the samples of each band in row-major order.
	Bands [][]float64

	// NodataValues holds the nodata value of each band, or nil for
	// bands without one.
	NodataValues []*float64

	Affine footprint.Affine
	SRS    string
}

// NewArray creates a raster with the given shape, transform and
// spatial reference from one or more bands of row-major samples.
func NewArray(rows, cols int, transform footprint.Affine, crs string, bands ...[]float64) (*Array, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("rastersrc: invalid raster shape %dx%d", rows, cols)
	}
	if len(bands) == 0 {
		return nil, fmt.Errorf("rastersrc: raster has no bands")
	}
	for i, b := range bands {
		if len(b) != rows*cols {
			return nil, fmt.Errorf("rastersrc: band %d has %d samples; want %d", i+1, len(b), rows*cols)
		}
	}
	return &Array{
		Rows:         rows,
		Cols:         cols,
		Bands:        bands,
		NodataValues: make([]*float64, len(bands)),
		Affine:       transform,
		SRS:          crs,
	}, nil
}

// SetNodata sets the nodata value of band i (1-based).
func (a *Array) SetNodata(i int, v float64) error {
	if i < 1 || i > len(a.Bands) {
		return fmt.Errorf("rastersrc: band %d out of range [1, %d]", i, len(a.Bands))
	}
	for len(a.NodataValues) < len(a.Bands) {
		a.NodataValues = append(a.NodataValues, nil)
	}
	a.NodataValues[i-1] = &v
	return nil
}

var _ footprint.Source = (*Array)(nil)

// Shape implements footprint.Source.
func (a *Array) Shape() (rows, cols int) { return a.Rows, a.Cols }

// Transform implements footprint.Source.
func (a *Array) Transform() footprint.Affine { return a.Affine }

// CRS implements footprint.Source.
func (a *Array) CRS() string { return a.SRS }

// Count implements footprint.Source.
func (a *Array) Count() int { return len(a.Bands) }

// Band implements footprint.Source.
func (a *Array) Band(i int) ([]float64, error) {
	if i < 1 || i > len(a.Bands) {
		return nil, fmt.Errorf("rastersrc: band %d out of range [1, %d]", i, len(a.Bands))
	}
	return a.Bands[i-1], nil
}

// Nodata implements footprint.Source.
func (a *Array) Nodata(i int) (float64, bool) {
	if i < 1 || i > len(a.NodataValues) || a.NodataValues[i-1] == nil {
		return 0, false
	}
	return *a.NodataValues[i-1], true
}

// masked adds a dataset mask to a source.
type masked struct {
	footprint.Source
	mask []uint8
}

func (m *masked) Mask() ([]uint8, error) { return m.mask, nil }

// WithMask returns a source that behaves like src but also carries the
// given dataset mask, where 0 marks invalid cells. The mask is used for
// bands that have no nodata value.
func WithMask(src footprint.Source, mask []uint8) (footprint.Source, error) {
	rows, cols := src.Shape()
	if len(mask) != rows*cols {
		return nil, fmt.Errorf("rastersrc: mask has %d cells; want %d", len(mask), rows*cols)
	}
	return &masked{Source: src, mask: mask}, nil
}
