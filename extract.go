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
	"github.com/ctessum/geom"
)

// Boundary edge directions in grid space, where x is the column index and
// y is the row index. The order matters: turning left adds one.
const (
	dirE = iota
	dirN
	dirW
	dirS
)

var (
	dirDX = [4]int{1, 0, -1, 0}
	dirDY = [4]int{0, 1, 0, -1}
)

// WholeGrid returns a polygon covering every cell of a rows×cols grid,
// regardless of which cells hold valid data. The ring starts at grid
// corner (0, 0).
func WholeGrid(rows, cols int, transform Affine) geom.Polygon {
	r := geom.Path{
		transform.Apply(0, 0),
		transform.Apply(float64(cols), 0),
		transform.Apply(float64(cols), float64(rows)),
		transform.Apply(0, float64(rows)),
	}
	return geom.Polygon{orientRing(r, true)}
}

// Extract traces the valid cells in mask into polygons whose coordinates
// are mapped through transform. Each 4-connected region of valid cells
// becomes one polygon, and each 4-connected region of invalid cells
// enclosed by it becomes a hole. Rings only have vertices where the
// boundary changes direction. Exterior rings are counter-clockwise and
// holes clockwise; each ring starts at its grid corner with the lowest
// row and then the lowest column.
//
// A mask with no valid cells results in no polygons, and a mask where all
// cells are valid results in the same polygon as WholeGrid.
func Extract(mask *ValidityMask, transform Affine) []geom.Polygon {
	if mask.None() {
		return nil
	}
	if mask.All() {
		return []geom.Polygon{WholeGrid(mask.Rows, mask.Cols, transform)}
	}
	t := newTracer(mask)
	exteriors, holes := t.trace()

	out := make([]geom.Polygon, len(exteriors))
	for i, e := range exteriors {
		p := geom.Polygon{orientRing(t.toCRS(e.path, transform), true)}
		for _, h := range holes[e.label] {
			p = append(p, orientRing(t.toCRS(h, transform), false))
		}
		out[i] = p
	}
	return out
}

type tracedRing struct {
	label int32
	path  [][2]int
}

type tracer struct {
	mask   *ValidityMask
	labels []int32 // component label of each cell, 0 for invalid cells
	out    []uint8 // outgoing edge directions at each vertex, as bit flags
	orig   []uint8
}

func newTracer(mask *ValidityMask) *tracer {
	t := &tracer{
		mask:   mask,
		labels: make([]int32, mask.Rows*mask.Cols),
		out:    make([]uint8, (mask.Rows+1)*(mask.Cols+1)),
	}
	t.label()
	t.edges()
	t.orig = make([]uint8, len(t.out))
	copy(t.orig, t.out)
	return t
}

// label assigns a component number to each valid cell using a
// breadth-first flood fill over 4-connected neighbors.
func (t *tracer) label() {
	cols := t.mask.Cols
	var next int32
	var queue []int
	for start := range t.labels {
		if t.labels[start] != 0 || !t.mask.valid[start] {
			continue
		}
		next++
		t.labels[start] = next
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			r, c := i/cols, i%cols
			for d := 0; d < 4; d++ {
				rr, cc := r+dirDY[d], c+dirDX[d]
				if !t.mask.At(rr, cc) {
					continue
				}
				j := rr*cols + cc
				if t.labels[j] == 0 {
					t.labels[j] = next
					queue = append(queue, j)
				}
			}
		}
	}
}

func (t *tracer) vertex(x, y int) int { return y*(t.mask.Cols+1) + x }

// edges records a directed edge along every side shared by a valid cell
// and an invalid cell (or the edge of the grid). Edges keep the valid
// cell on their left.
func (t *tracer) edges() {
	for r := 0; r < t.mask.Rows; r++ {
		for c := 0; c < t.mask.Cols; c++ {
			if !t.mask.At(r, c) {
				continue
			}
			if !t.mask.At(r-1, c) {
				t.out[t.vertex(c, r)] |= 1 << dirE
			}
			if !t.mask.At(r, c+1) {
				t.out[t.vertex(c+1, r)] |= 1 << dirN
			}
			if !t.mask.At(r+1, c) {
				t.out[t.vertex(c+1, r+1)] |= 1 << dirW
			}
			if !t.mask.At(r, c-1) {
				t.out[t.vertex(c, r+1)] |= 1 << dirS
			}
		}
	}
}

// cellLabel returns the label of the cell at (col x, row y), or 0 if it
// is outside of the grid.
func (t *tracer) cellLabel(x, y int) int32 {
	if !t.mask.At(y, x) {
		return 0
	}
	return t.labels[y*t.mask.Cols+x]
}

// leftCell returns the label of the valid cell to the left of the edge
// leaving vertex (x, y) in direction d.
func (t *tracer) leftCell(x, y, d int) int32 {
	switch d {
	case dirE:
		return t.cellLabel(x, y)
	case dirN:
		return t.cellLabel(x-1, y)
	case dirW:
		return t.cellLabel(x-1, y-1)
	default:
		return t.cellLabel(x, y-1)
	}
}

// turn chooses the outgoing direction at vertex (x, y) for a boundary
// arriving in direction d. At a saddle vertex, where two valid cells touch
// only at their corners, the boundary turns left to stay with the current
// cell if the two cells belong to different regions, and turns right to
// stay with the enclosed invalid cell if they belong to the same region.
func (t *tracer) turn(x, y, d int) int {
	bits := t.orig[t.vertex(x, y)]
	if bits&(bits-1) == 0 {
		for nd := 0; nd < 4; nd++ {
			if bits&(1<<uint(nd)) != 0 {
				return nd
			}
		}
	}
	var a, b int32
	if t.mask.At(y, x) {
		a, b = t.cellLabel(x, y), t.cellLabel(x-1, y-1)
	} else {
		a, b = t.cellLabel(x-1, y), t.cellLabel(x, y-1)
	}
	if a == b {
		return (d + 3) % 4
	}
	return (d + 1) % 4
}

// trace follows the recorded edges into closed rings. Vertices are scanned
// from the lowest row and column, so each ring starts at its lowest corner.
func (t *tracer) trace() (exteriors []tracedRing, holes map[int32][][][2]int) {
	holes = make(map[int32][][][2]int)
	cols := t.mask.Cols
	for v := range t.out {
		for t.out[v] != 0 {
			x0, y0 := v%(cols+1), v/(cols+1)
			d0 := 0
			for t.out[v]&(1<<uint(d0)) == 0 {
				d0++
			}
			ring := tracedRing{label: t.leftCell(x0, y0, d0), path: [][2]int{{x0, y0}}}
			x, y, d := x0, y0, d0
			for {
				t.out[t.vertex(x, y)] &^= 1 << uint(d)
				x, y = x+dirDX[d], y+dirDY[d]
				nd := t.turn(x, y, d)
				if t.out[t.vertex(x, y)]&(1<<uint(nd)) == 0 {
					break // Back at the start.
				}
				if nd != d {
					ring.path = append(ring.path, [2]int{x, y})
				}
				d = nd
			}
			ring.path = append(ring.path, [2]int{x0, y0})
			if gridArea(ring.path) > 0 {
				exteriors = append(exteriors, ring)
			} else {
				holes[ring.label] = append(holes[ring.label], ring.path)
			}
		}
	}
	return exteriors, holes
}

// gridArea returns the signed area of a ring of grid vertices.
func gridArea(r [][2]int) int {
	a := 0
	for i := 0; i < len(r)-1; i++ {
		a += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return a
}

func (t *tracer) toCRS(r [][2]int, transform Affine) geom.Path {
	o := make(geom.Path, len(r))
	for i, v := range r {
		o[i] = transform.Apply(float64(v[0]), float64(v[1]))
	}
	return o
}
