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
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/spatialmodel/footprint"
	"github.com/spf13/cast"
)

// asciiHeader holds the header of an ESRI ASCII grid.
type asciiHeader struct {
	ncols, nrows   int
	xll, yll       float64
	center         bool
	dx, dy         float64
	nodata         float64
	hasNodata      bool
	haveX, haveY   bool
	haveCellSize   bool
	haveDX, haveDY bool
}

func (h *asciiHeader) set(key, value string) error {
	var err error
	switch key {
	case "ncols":
		h.ncols, err = cast.ToIntE(value)
	case "nrows":
		h.nrows, err = cast.ToIntE(value)
	case "xllcorner", "xllcenter":
		h.xll, err = cast.ToFloat64E(value)
		h.center = h.center || key == "xllcenter"
		h.haveX = true
	case "yllcorner", "yllcenter":
		h.yll, err = cast.ToFloat64E(value)
		h.center = h.center || key == "yllcenter"
		h.haveY = true
	case "cellsize":
		h.dx, err = cast.ToFloat64E(value)
		h.dy = h.dx
		h.haveCellSize = true
	case "dx":
		h.dx, err = cast.ToFloat64E(value)
		h.haveDX = true
	case "dy":
		h.dy, err = cast.ToFloat64E(value)
		h.haveDY = true
	case "nodata_value":
		h.nodata, err = cast.ToFloat64E(value)
		h.hasNodata = true
	default:
		return fmt.Errorf("rastersrc: unknown ASCII grid header field %q", key)
	}
	if err != nil {
		return fmt.Errorf("rastersrc: ASCII grid header field %s: %v", key, err)
	}
	return nil
}

func (h *asciiHeader) check() error {
	switch {
	case h.ncols <= 0 || h.nrows <= 0:
		return fmt.Errorf("rastersrc: invalid ASCII grid shape %dx%d", h.nrows, h.ncols)
	case !h.haveX || !h.haveY:
		return fmt.Errorf("rastersrc: ASCII grid is missing its lower-left corner")
	case !h.haveCellSize && !(h.haveDX && h.haveDY):
		return fmt.Errorf("rastersrc: ASCII grid is missing its cell size")
	case h.dx <= 0 || h.dy <= 0:
		return fmt.Errorf("rastersrc: invalid ASCII grid cell size (%g, %g)", h.dx, h.dy)
	}
	return nil
}

// transform returns the affine transform of a north-up grid whose first
// row is the northernmost.
func (h *asciiHeader) transform() footprint.Affine {
	x0, y0 := h.xll, h.yll
	if h.center {
		x0 -= h.dx / 2
		y0 -= h.dy / 2
	}
	return footprint.Affine{
		A: h.dx,
		C: x0,
		E: -h.dy,
		F: y0 + float64(h.nrows)*h.dy,
	}
}

// ReadASCIIGrid reads a single-band raster in ESRI ASCII grid format.
// crs is the spatial reference of the grid, which the format does not
// carry.
func ReadASCIIGrid(r io.Reader, crs string) (*Array, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	s.Split(bufio.ScanWords)

	var h asciiHeader
	var first string
	for s.Scan() {
		tok := s.Text()
		if _, err := cast.ToFloat64E(tok); err == nil {
			first = tok
			break
		}
		key := strings.ToLower(tok)
		if !s.Scan() {
			return nil, fmt.Errorf("rastersrc: ASCII grid header field %s has no value", key)
		}
		if err := h.set(key, s.Text()); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("rastersrc: reading ASCII grid: %v", err)
	}
	if err := h.check(); err != nil {
		return nil, err
	}

	n := h.nrows * h.ncols
	data := make([]float64, 0, n)
	tok := first
	for tok != "" {
		if len(data) == n {
			return nil, fmt.Errorf("rastersrc: ASCII grid has more than %d values", n)
		}
		v, err := cast.ToFloat64E(tok)
		if err != nil {
			return nil, fmt.Errorf("rastersrc: ASCII grid value %d: %v", len(data)+1, err)
		}
		data = append(data, v)
		tok = ""
		if s.Scan() {
			tok = s.Text()
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("rastersrc: reading ASCII grid: %v", err)
	}
	if len(data) != n {
		return nil, fmt.Errorf("rastersrc: ASCII grid has %d values; want %d", len(data), n)
	}

	a, err := NewArray(h.nrows, h.ncols, h.transform(), crs, data)
	if err != nil {
		return nil, err
	}
	if h.hasNodata {
		if err := a.SetNodata(1, h.nodata); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// ReadASCIIGridFile reads the ESRI ASCII grid at path. The spatial
// reference is read from a ".prj" file next to it, if one exists.
func ReadASCIIGridFile(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rastersrc: %v", err)
	}
	defer f.Close()
	crs, err := readPrj(path)
	if err != nil {
		return nil, err
	}
	return ReadASCIIGrid(f, crs)
}

// readPrj returns the contents of the projection file that accompanies
// path, or an empty string if there isn't one.
func readPrj(path string) (string, error) {
	for _, prj := range sidecars(path)[1:] {
		b, err := ioutil.ReadFile(prj)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return "", fmt.Errorf("rastersrc: reading projection: %v", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return "", nil
}
