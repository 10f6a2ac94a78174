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

package footprintutil

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/footprint"
	"github.com/spatialmodel/footprint/rastersrc"
	"github.com/spf13/cast"
)

// PipelineConfig creates a footprint configuration from a viper
// configuration.
func PipelineConfig(cfg *viper.Viper) (*footprint.Config, error) {
	c := footprint.DefaultConfig()

	bands, err := toIntSliceE(cfg.Get("bands"))
	if err != nil {
		return nil, &footprint.ConfigurationError{Option: "bands", Reason: err.Error()}
	}
	if len(bands) > 0 {
		c.Bands = bands
	}

	if s := strings.TrimSpace(cfg.GetString("nodata")); s != "" {
		v, err := cast.ToFloat64E(s)
		if err != nil {
			return nil, &footprint.ConfigurationError{Option: "nodata", Reason: err.Error()}
		}
		c.Nodata = &v
	}

	if c.Densify, err = densify(cfg); err != nil {
		return nil, err
	}
	if p := cfg.GetInt("precision"); p != 0 {
		c.Precision = p
	}
	if crs := os.ExpandEnv(cfg.GetString("destination-crs")); crs != "" {
		c.DestinationCRS = crs
	}
	c.SourceCRS = os.ExpandEnv(cfg.GetString("source-crs"))
	c.SimplifyTolerance = cfg.GetFloat64("simplify")
	c.Holes = cfg.GetBool("holes")
	c.WholeGrid = cfg.GetBool("with-nodata")
	c.ConvexHull = cfg.GetBool("convex-hull")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// densify returns the densification options. Only one of densify-factor
// and densify-distance may be set.
func densify(cfg *viper.Viper) (footprint.Densify, error) {
	factor := cfg.GetInt("densify-factor")
	distance := cfg.GetFloat64("densify-distance")
	switch {
	case factor != 0 && distance != 0:
		return footprint.Densify{}, &footprint.ConfigurationError{
			Option: "densify",
			Reason: "densify-factor and densify-distance can't both be set",
		}
	case factor != 0:
		return footprint.Densify{Mode: footprint.DensifyFactor, Factor: factor}, nil
	case distance != 0:
		return footprint.Densify{Mode: footprint.DensifyDistance, Distance: distance}, nil
	default:
		return footprint.Densify{}, nil
	}
}

// toIntSliceE converts a list of integers from a configuration file,
// an environment variable ("1,2"), or a command-line flag ("[1,2]").
func toIntSliceE(s interface{}) ([]int, error) {
	switch v := s.(type) {
	case nil:
		return nil, nil
	case []int:
		return v, nil
	case []interface{}:
		o := make([]int, len(v))
		for i, val := range v {
			var err error
			if o[i], err = cast.ToIntE(val); err != nil {
				return nil, err
			}
		}
		return o, nil
	case string:
		v = strings.Trim(strings.TrimSpace(v), "[]")
		if v == "" {
			return nil, nil
		}
		fields := strings.Split(v, ",")
		o := make([]int, len(fields))
		for i, f := range fields {
			var err error
			if o[i], err = cast.ToIntE(strings.TrimSpace(f)); err != nil {
				return nil, err
			}
		}
		return o, nil
	default:
		return cast.ToIntSliceE(s)
	}
}

// inputCRS returns the spatial reference of a GeoJSON input.
func inputCRS() string {
	if crs := os.ExpandEnv(Cfg.GetString("source-crs")); crs != "" {
		return crs
	}
	return footprint.DefaultCRS
}

// readFootprint reads the polygons of a GeoJSON geometry, feature, or
// feature collection from a local file, a URL, or blob storage. It
// also returns the spatial reference of the coordinates.
func readFootprint(ctx context.Context, href string) ([]geom.Polygon, string, error) {
	f := rastersrc.NewFetcher("")
	f.Log = newLogger()
	path, err := f.Fetch(ctx, expand(href))
	if err != nil {
		return nil, "", err
	}
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("footprintutil: reading footprint: %v", err)
	}
	polys, err := footprint.DecodeGeoJSON(b)
	if err != nil {
		return nil, "", fmt.Errorf("footprintutil: decoding %s: %v", href, err)
	}
	return polys, inputCRS(), nil
}

// newLogger returns a logger that writes to standard error, at the debug
// level if verbose is set.
func newLogger() *logrus.Logger {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano}
	if Cfg.GetBool("verbose") {
		log.Level = logrus.DebugLevel
	}
	return log
}

func expand(path string) string { return os.ExpandEnv(path) }
