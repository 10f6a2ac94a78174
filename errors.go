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
	"errors"
	"fmt"

	"github.com/ctessum/geom"
)

// ConfigurationError is returned when an option is invalid or when
// two options contradict each other.
type ConfigurationError struct {
	// Option is the name of the offending option.
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("footprint: invalid configuration option '%s': %s", e.Option, e.Reason)
}

func configErrorf(option, format string, a ...interface{}) error {
	return &ConfigurationError{Option: option, Reason: fmt.Sprintf(format, a...)}
}

// ProjectionError is returned when a coordinate transform rejects a point
// or cannot represent it in the destination spatial reference.
type ProjectionError struct {
	Point               geom.Point
	Source, Destination string
	Err                 error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("footprint: projecting point (%g, %g) from '%s' to '%s': %v",
		e.Point.X, e.Point.Y, e.Source, e.Destination, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }

var errNonFinite = errors.New("transformed coordinate is not finite")

// IsConfigurationError reports whether err is or wraps a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsProjectionError reports whether err is or wraps a *ProjectionError.
func IsProjectionError(err error) bool {
	var pe *ProjectionError
	return errors.As(err, &pe)
}
