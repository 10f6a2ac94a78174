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
)

// Nodata is the excluded value for one band. If Defined is false the band
// has no nodata value. A NaN Value matches NaN samples.
type Nodata struct {
	Value   float64
	Defined bool
}

// NodataValue returns a defined Nodata holding v.
func NodataValue(v float64) Nodata {
	return Nodata{Value: v, Defined: true}
}

func (n Nodata) matches(v float64) bool {
	if math.IsNaN(n.Value) {
		return math.IsNaN(v)
	}
	return v == n.Value
}

// ValidityMask records which grid cells hold valid data.
// It is not modified after it is created.
type ValidityMask struct {
	Rows, Cols int
	valid      []bool
}

// At returns whether the cell at (row, col) is valid. Cells outside of the
// mask are invalid.
func (m *ValidityMask) At(row, col int) bool {
	if row < 0 || col < 0 || row >= m.Rows || col >= m.Cols {
		return false
	}
	return m.valid[row*m.Cols+col]
}

// Count returns the number of valid cells.
func (m *ValidityMask) Count() int {
	n := 0
	for _, v := range m.valid {
		if v {
			n++
		}
	}
	return n
}

// All returns whether every cell is valid.
func (m *ValidityMask) All() bool { return m.Count() == len(m.valid) }

// None returns whether no cell is valid.
func (m *ValidityMask) None() bool { return m.Count() == 0 }

// Bytes returns the mask as 0 (invalid) and 255 (valid) values in row-major
// order.
func (m *ValidityMask) Bytes() []uint8 {
	o := make([]uint8, len(m.valid))
	for i, v := range m.valid {
		if v {
			o[i] = 255
		}
	}
	return o
}

func checkShape(rows, cols, n int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("footprint: invalid mask shape %d×%d", rows, cols)
	}
	if n != rows*cols {
		return fmt.Errorf("footprint: mask length %d doesn't match shape %d×%d", n, rows, cols)
	}
	return nil
}

// MaskFromBools creates a mask from a precomputed row-major validity array.
// The values are used as-is.
func MaskFromBools(rows, cols int, valid []bool) (*ValidityMask, error) {
	if err := checkShape(rows, cols, len(valid)); err != nil {
		return nil, err
	}
	v := make([]bool, len(valid))
	copy(v, valid)
	return &ValidityMask{Rows: rows, Cols: cols, valid: v}, nil
}

// MaskFromBytes creates a mask from a precomputed row-major mask array where
// 0 marks nodata cells and any other value (conventionally 255) marks
// valid cells.
func MaskFromBytes(rows, cols int, mask []uint8) (*ValidityMask, error) {
	if err := checkShape(rows, cols, len(mask)); err != nil {
		return nil, err
	}
	v := make([]bool, len(mask))
	for i, b := range mask {
		v[i] = b != 0
	}
	return &ValidityMask{Rows: rows, Cols: cols, valid: v}, nil
}

// FullMask returns a mask where every cell is valid.
func FullMask(rows, cols int) *ValidityMask {
	v := make([]bool, rows*cols)
	for i := range v {
		v[i] = true
	}
	return &ValidityMask{Rows: rows, Cols: cols, valid: v}
}

// BuildMask combines the given bands into a single mask. A cell is valid
// only if it is valid in every band, where a band sample is valid if it
// doesn't match that band's nodata value. Every band must have a defined
// nodata value; callers that already know which cells are valid should use
// MaskFromBools or MaskFromBytes instead.
func BuildMask(grids []*Grid, nodata []Nodata) (*ValidityMask, error) {
	if len(grids) == 0 {
		return nil, configErrorf("bands", "no bands selected")
	}
	if len(nodata) != len(grids) {
		return nil, configErrorf("nodata", "%d nodata values given for %d bands",
			len(nodata), len(grids))
	}
	rows, cols := grids[0].Rows, grids[0].Cols
	for i, g := range grids {
		if g.Rows != rows || g.Cols != cols {
			return nil, configErrorf("bands", "band %d has shape %d×%d but band 1 has shape %d×%d",
				i+1, g.Rows, g.Cols, rows, cols)
		}
		if !nodata[i].Defined {
			return nil, configErrorf("nodata", "band %d has no nodata value and no mask was provided", i+1)
		}
	}
	valid := make([]bool, rows*cols)
	for i := range valid {
		valid[i] = true
	}
	for b, g := range grids {
		nd := nodata[b]
		for i, v := range g.Data {
			if valid[i] && nd.matches(v) {
				valid[i] = false
			}
		}
	}
	return &ValidityMask{Rows: rows, Cols: cols, valid: valid}, nil
}
