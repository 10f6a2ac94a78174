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

// Command footprint creates polygon footprints of the valid data in
// rasters.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spatialmodel/footprint/footprintutil"
)

func main() {
	var commands int
	for _, arg := range os.Args { // Count the number of supplied commands.
		if !strings.HasPrefix(arg, "-") {
			commands++
		}
	}
	if commands == 1 { // If no subcommand was supplied, start the GUI server.
		footprintutil.StartWebServer()
	}

	if err := footprintutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
