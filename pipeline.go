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
	"github.com/sirupsen/logrus"
)

func logStage(log logrus.FieldLogger, stage string, polys []geom.Polygon) {
	log.WithFields(logrus.Fields{
		"stage":    stage,
		"polygons": len(polys),
		"vertices": countVertices(polys),
	}).Debug("footprint stage complete")
}

// FromMask creates the footprint of the valid cells in mask, where
// transform maps grid corners to coordinates in spatial reference srcCRS.
// If cfg is nil, DefaultConfig is used. A mask without valid cells results
// in an empty footprint.
func FromMask(mask *ValidityMask, transform Affine, srcCRS string, cfg *Config) (*Footprint, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.log()
	dst := cfg.destination()
	if cfg.SourceCRS != "" {
		srcCRS = cfg.SourceCRS
	}

	var polys []geom.Polygon
	if cfg.WholeGrid {
		polys = []geom.Polygon{WholeGrid(mask.Rows, mask.Cols, transform)}
	} else {
		polys = Extract(mask, transform)
	}
	logStage(log, "extract", polys)
	if len(polys) == 0 {
		return &Footprint{CRS: dst}, nil
	}

	switch {
	case cfg.ConvexHull:
		polys = ConvexHull(polys)
		logStage(log, "convex hull", polys)
	case !cfg.Holes:
		polys = RemoveHoles(polys)
		logStage(log, "remove holes", polys)
	}

	var err error
	precision := cfg.precision()
	if cfg.Densify.Mode != DensifyNone {
		if polys, err = DensifyPolygons(polys, cfg.Densify, precision); err != nil {
			return nil, err
		}
		logStage(log, "densify", polys)
	}

	if SameCRS(srcCRS, dst) {
		polys = roundPolygons(polys, precision)
	} else {
		if polys, err = Reproject(polys, srcCRS, dst, cfg.transformer(), precision); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"from": srcCRS,
			"to":   dst,
		}).Debug("footprint reprojected")
		logStage(log, "reproject", polys)
	}

	if cfg.SimplifyTolerance > 0 {
		if polys, err = SimplifyPolygons(polys, cfg.SimplifyTolerance); err != nil {
			return nil, err
		}
		logStage(log, "simplify", polys)
	}

	f := Assemble(dst, polys)
	log.WithFields(logrus.Fields{
		"kind":     f.Kind(),
		"polygons": f.Len(),
		"vertices": f.Vertices(),
		"crs":      f.CRS,
	}).Debug("footprint created")
	return f, nil
}

// FromData creates the footprint of one or more bands of raster data.
// A cell is valid if it doesn't match the nodata value of any band. If
// cfg.Nodata is set it is used for every band instead of nodata. The
// transform and spatial reference of the first grid are used.
func FromData(grids []*Grid, nodata []Nodata, cfg *Config) (*Footprint, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(grids) == 0 {
		return nil, configErrorf("bands", "no bands selected")
	}
	var mask *ValidityMask
	if cfg.WholeGrid {
		mask = FullMask(grids[0].Rows, grids[0].Cols)
	} else {
		if cfg.Nodata != nil {
			nodata = make([]Nodata, len(grids))
			for i := range nodata {
				nodata[i] = NodataValue(*cfg.Nodata)
			}
		}
		var err error
		if mask, err = BuildMask(grids, nodata); err != nil {
			return nil, err
		}
	}
	return FromMask(mask, grids[0].Transform, grids[0].CRS, cfg)
}

// FromSource creates the footprint of the bands of src selected by
// cfg.Bands. The nodata value of each band is cfg.Nodata if set, or else
// the band's own nodata value. If any selected band has no nodata value,
// the source's own mask is used instead if it is a Masker.
func FromSource(src Source, cfg *Config) (*Footprint, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rows, cols := src.Shape()
	bands := cfg.bands()
	for _, b := range bands {
		if b > src.Count() {
			return nil, configErrorf("bands", "band %d requested but the raster has %d bands", b, src.Count())
		}
	}
	if cfg.WholeGrid {
		return FromMask(FullMask(rows, cols), src.Transform(), src.CRS(), cfg)
	}

	nodata := make([]Nodata, len(bands))
	useMask := false
	for i, b := range bands {
		switch v, ok := src.Nodata(b); {
		case cfg.Nodata != nil:
			nodata[i] = NodataValue(*cfg.Nodata)
		case ok:
			nodata[i] = NodataValue(v)
		default:
			useMask = true
		}
	}

	var mask *ValidityMask
	if useMask {
		m, ok := src.(Masker)
		if !ok {
			return nil, configErrorf("nodata", "the selected bands have no nodata value and the raster has no mask")
		}
		b, err := m.Mask()
		if err != nil {
			return nil, fmt.Errorf("footprint: reading raster mask: %v", err)
		}
		if mask, err = MaskFromBytes(rows, cols, b); err != nil {
			return nil, err
		}
		cfg.log().Debug("footprint using raster mask")
	} else {
		grids := make([]*Grid, len(bands))
		for i, b := range bands {
			data, err := src.Band(b)
			if err != nil {
				return nil, fmt.Errorf("footprint: reading band %d: %v", b, err)
			}
			if grids[i], err = NewGrid(rows, cols, data, src.Transform(), src.CRS()); err != nil {
				return nil, err
			}
		}
		var err error
		if mask, err = BuildMask(grids, nodata); err != nil {
			return nil, err
		}
	}
	return FromMask(mask, src.Transform(), src.CRS(), cfg)
}
