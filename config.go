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
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultPrecision is the default number of decimal places coordinates
	// are rounded to, which is about 1 cm in degrees.
	DefaultPrecision = 7

	// DefaultCRS is the default destination spatial reference.
	DefaultCRS = "EPSG:4326"
)

// Config holds the options for creating a footprint.
type Config struct {
	// Bands are the 1-based indices of the bands used to build the
	// validity mask. The default is the first band.
	Bands []int

	// Nodata, if set, overrides the nodata value of every band.
	Nodata *float64

	// Densify specifies how ring edges are densified before reprojection.
	Densify Densify

	// Precision is the number of decimal places that footprint
	// coordinates are rounded to. Zero selects DefaultPrecision.
	Precision int

	// DestinationCRS is the spatial reference of the footprint.
	// The default is DefaultCRS.
	DestinationCRS string

	// SourceCRS, if set, overrides the spatial reference of the raster.
	SourceCRS string

	// SimplifyTolerance is the Douglas-Peucker tolerance, in units of
	// DestinationCRS. Zero disables simplification.
	SimplifyTolerance float64

	// Holes specifies whether holes are kept in the footprint.
	Holes bool

	// WholeGrid specifies that the footprint covers the entire raster
	// including nodata cells.
	WholeGrid bool

	// ConvexHull specifies that the footprint is replaced by its convex
	// hull. It can't be combined with Holes.
	ConvexHull bool

	// Transformer transforms coordinates between spatial references.
	// The default is DefaultTransformer().
	Transformer Transformer

	// Log receives progress messages. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger
}

// DefaultConfig returns a configuration holding the default options.
func DefaultConfig() *Config {
	return &Config{
		Bands:          []int{1},
		Precision:      DefaultPrecision,
		DestinationCRS: DefaultCRS,
	}
}

// Validate checks that the options are valid and consistent.
func (c *Config) Validate() error {
	for _, b := range c.Bands {
		if b < 1 {
			return configErrorf("bands", "band indices start at 1 but %d was given", b)
		}
	}
	if err := c.Densify.Validate(); err != nil {
		return err
	}
	if err := checkPrecision(c.Precision); err != nil {
		return err
	}
	if math.IsNaN(c.SimplifyTolerance) || c.SimplifyTolerance < 0 {
		return configErrorf("simplify", "tolerance must be a non-negative number but is %g", c.SimplifyTolerance)
	}
	if c.ConvexHull && c.Holes {
		return configErrorf("convex-hull", "a convex hull can't have holes")
	}
	return nil
}

func (c *Config) bands() []int {
	if len(c.Bands) == 0 {
		return []int{1}
	}
	return c.Bands
}

func (c *Config) precision() int {
	if c.Precision == 0 {
		return DefaultPrecision
	}
	return c.Precision
}

func (c *Config) destination() string {
	if c.DestinationCRS == "" {
		return DefaultCRS
	}
	return c.DestinationCRS
}

func (c *Config) transformer() Transformer {
	if c.Transformer == nil {
		return DefaultTransformer()
	}
	return c.Transformer
}

func (c *Config) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}
