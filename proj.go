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
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of source/destination pairs kept by the
// default transformer.
const DefaultCacheSize = 64

// epsgDefs holds PROJ.4 definitions for the EPSG codes that are commonly
// used for raster data and catalogs. UTM zones are generated.
var epsgDefs = map[int]string{
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	4269: "+proj=longlat +datum=NAD83 +no_defs",
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
	5070: "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs",
}

// ProjDefinition returns a definition of crs that can be parsed by
// github.com/ctessum/geom/proj. EPSG codes are looked up in a built-in
// table; PROJ.4 and WKT definitions are returned as-is.
func ProjDefinition(crs string) (string, error) {
	c := canonicalCRS(crs)
	if c == "" {
		return "", fmt.Errorf("footprint: empty spatial reference")
	}
	if !strings.HasPrefix(c, "EPSG:") {
		return c, nil
	}
	code, err := strconv.Atoi(c[len("EPSG:"):])
	if err != nil {
		return "", fmt.Errorf("footprint: invalid EPSG code in '%s'", crs)
	}
	if def, ok := epsgDefs[code]; ok {
		return def, nil
	}
	switch {
	case code > 32600 && code <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", code-32600), nil
	case code > 32700 && code <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", code-32700), nil
	}
	return "", fmt.Errorf("footprint: unsupported EPSG code %d; use a PROJ.4 or WKT definition instead", code)
}

// ProjTransformer is a Transformer backed by github.com/ctessum/geom/proj.
// Spatial references are parsed once per source/destination pair and kept
// in a least-recently-used cache. It is safe for concurrent use.
type ProjTransformer struct {
	cache *lru.Cache[string, srPair]

	// The proj package shares parsed definitions between callers.
	mu sync.Mutex
}

type srPair struct {
	src, dst *proj.SR
}

// NewProjTransformer returns a transformer that caches up to size
// source/destination pairs.
func NewProjTransformer(size int) (*ProjTransformer, error) {
	c, err := lru.New[string, srPair](size)
	if err != nil {
		return nil, fmt.Errorf("footprint: creating spatial reference cache: %v", err)
	}
	return &ProjTransformer{cache: c}, nil
}

var (
	defaultTransformer     *ProjTransformer
	defaultTransformerOnce sync.Once
)

// DefaultTransformer returns the process-wide ProjTransformer, creating it
// the first time it is called.
func DefaultTransformer() *ProjTransformer {
	defaultTransformerOnce.Do(func() {
		t, err := NewProjTransformer(DefaultCacheSize)
		if err != nil {
			panic(err) // Only happens for a non-positive size.
		}
		defaultTransformer = t
	})
	return defaultTransformer
}

// pair returns the parsed spatial references of src and dst, parsing
// them if necessary. p.mu must be held.
func (p *ProjTransformer) pair(src, dst string) (srPair, error) {
	key := canonicalCRS(src) + "\x00" + canonicalCRS(dst)
	if sp, ok := p.cache.Get(key); ok {
		return sp, nil
	}
	srcSR, err := parseSR(src)
	if err != nil {
		return srPair{}, &ConfigurationError{Option: "source-crs", Reason: err.Error()}
	}
	dstSR, err := parseSR(dst)
	if err != nil {
		return srPair{}, &ConfigurationError{Option: "destination-crs", Reason: err.Error()}
	}
	sp := srPair{src: srcSR, dst: dstSR}
	p.cache.Add(key, sp)
	return sp, nil
}

func parseSR(crs string) (*proj.SR, error) {
	def, err := ProjDefinition(crs)
	if err != nil {
		return nil, err
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("footprint: parsing spatial reference '%s': %v", crs, err)
	}
	return sr, nil
}

// maxLongitude bounds the longitudes accepted in geographic coordinates.
// Rings just across the antimeridian are allowed.
const maxLongitude = 360

func isGeographic(sr *proj.SR) bool {
	switch sr.Name {
	case "longlat", "latlong", "lonlat", "latlon":
		return true
	}
	return false
}

// checkGeographic returns an error if pt isn't a valid longitude and
// latitude in degrees.
func checkGeographic(pt geom.Point) error {
	if math.Abs(pt.Y) > 90 {
		return fmt.Errorf("latitude %g is outside of [-90, 90]", pt.Y)
	}
	if math.Abs(pt.X) > maxLongitude {
		return fmt.Errorf("longitude %g is outside of [-%d, %d]", pt.X, maxLongitude, maxLongitude)
	}
	return nil
}

// Transform implements Transformer. Points in geographic spatial
// references, before or after transforming, must have valid longitudes
// and latitudes.
func (p *ProjTransformer) Transform(pts []geom.Point, src, dst string) ([]geom.Point, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, err := p.pair(src, dst)
	if err != nil {
		return nil, err
	}
	srcGeo, dstGeo := isGeographic(sp.src), isGeographic(sp.dst)
	out := make([]geom.Point, len(pts))
	for i, pt := range pts {
		if srcGeo {
			if err := checkGeographic(pt); err != nil {
				return nil, &ProjectionError{Point: pt, Source: src, Destination: dst, Err: err}
			}
		}
		// Transforms that shift datums only apply the shift to the first
		// point they see, so each point gets its own.
		t, err := sp.src.NewTransform(sp.dst)
		if err != nil {
			return nil, &ConfigurationError{Option: "destination-crs",
				Reason: fmt.Sprintf("creating transform from '%s': %v", src, err)}
		}
		x, y, err := t(pt.X, pt.Y)
		if err != nil {
			return nil, &ProjectionError{Point: pt, Source: src, Destination: dst, Err: err}
		}
		o := geom.Point{X: x, Y: y}
		if dstGeo {
			if err := checkGeographic(o); err != nil {
				return nil, &ProjectionError{Point: pt, Source: src, Destination: dst, Err: err}
			}
		}
		out[i] = o
	}
	return out, nil
}
