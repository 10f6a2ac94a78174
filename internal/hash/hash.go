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

// Package hash creates keys that identify objects and are safe to use as
// file names.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Key returns a 32-character hexadecimal key for the given objects. Equal
// objects have equal keys.
func Key(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		// gob can't encode some values, such as NaN floats inside maps
		// or nil pointers, so those are printed instead.
		if err := gob.NewEncoder(h).Encode(o); err != nil {
			printer.Fprintf(h, "%#v", o)
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
