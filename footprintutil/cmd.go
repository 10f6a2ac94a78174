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

// Package footprintutil provides the command-line interface for creating
// and processing raster footprints.
package footprintutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/footprint"
	"github.com/spatialmodel/footprint/cellindex"
	"github.com/spatialmodel/footprint/rastersrc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the version of the command-line tool.
const Version = "1.0.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

var options []option

// define creates the flag for o in its first flag set.
func (o option) define() *pflag.Flag {
	set := o.flagsets[0]
	switch v := o.defaultVal.(type) {
	case string:
		set.StringP(o.name, o.shorthand, v, o.usage)
	case bool:
		set.BoolP(o.name, o.shorthand, v, o.usage)
	case int:
		set.IntP(o.name, o.shorthand, v, o.usage)
	case []int:
		set.IntSliceP(o.name, o.shorthand, v, o.usage)
	case float64:
		set.Float64P(o.name, o.shorthand, v, o.usage)
	default:
		panic(fmt.Sprintf("footprintutil: option %s has unsupported type %T", o.name, v))
	}
	return set.Lookup(o.name)
}

// flagSets returns the local flag sets of cmds.
func flagSets(cmds ...*cobra.Command) []*pflag.FlagSet {
	sets := make([]*pflag.FlagSet, len(cmds))
	for i, c := range cmds {
		sets[i] = c.Flags()
	}
	return sets
}

// on assigns the flag sets of cmds to every option in opts.
func on(opts []option, cmds ...*cobra.Command) []option {
	for i := range opts {
		opts[i].flagsets = flagSets(cmds...)
	}
	return opts
}

// globalOptions apply to every command.
func globalOptions() []option {
	persistent := []*pflag.FlagSet{Root.PersistentFlags()}
	return []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   persistent,
		},
		{
			name: "verbose",
			usage: `
              verbose specifies whether to log the progress of each
              processing stage.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   persistent,
		},
		{
			name: "output",
			usage: `
              output is the path the result is written to. It can be a
              local file, whose directory will be created if necessary, or
              a blob storage location (gs://, s3://, or file://). The result
              is written to standard output if output is empty. It can
              include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   persistent,
		},
	}
}

// pipelineOptions control the geometry stages, which create shares
// with the commands that run a single stage.
func pipelineOptions() []option {
	return []option{
		{
			name: "precision",
			usage: `
              precision is the number of decimal places that footprint
              coordinates are rounded to. Zero selects the default of 7.`,
			defaultVal: footprint.DefaultPrecision,
			flagsets:   flagSets(createCmd, densifyCmd, reprojectCmd),
		},
		{
			name: "source-crs",
			usage: `
              source-crs overrides the spatial reference of the input. It
              can be an EPSG code (e.g. EPSG:32633), a PROJ.4 string, or WKT.
              GeoJSON inputs default to EPSG:4326.`,
			defaultVal: "",
			flagsets:   flagSets(createCmd, densifyCmd, reprojectCmd, simplifyCmd, cellsCmd),
		},
		{
			name: "destination-crs",
			usage: `
              destination-crs is the spatial reference of the output.`,
			defaultVal: footprint.DefaultCRS,
			flagsets:   flagSets(createCmd, reprojectCmd),
		},
		{
			name: "densify-factor",
			usage: `
              densify-factor splits every ring edge into this many equal
              segments before reprojection. It can't be combined with
              densify-distance. Zero disables densification.`,
			defaultVal: 0,
			flagsets:   flagSets(createCmd, densifyCmd),
		},
		{
			name: "densify-distance",
			usage: `
              densify-distance splits every ring edge into segments no longer
              than this distance, in units of the input spatial reference,
              before reprojection. Zero disables densification.`,
			defaultVal: 0.0,
			flagsets:   flagSets(createCmd, densifyCmd),
		},
		{
			name: "simplify",
			usage: `
              simplify is the Douglas-Peucker tolerance, in units of the
              output spatial reference. Zero disables simplification.`,
			defaultVal: 0.0,
			flagsets:   flagSets(createCmd, simplifyCmd),
		},
	}
}

// rasterOptions select the valid cells of a raster.
func rasterOptions() []option {
	return on([]option{
		{
			name: "bands",
			usage: `
              bands are the 1-based indices of the raster bands used to find
              valid cells. A cell is valid if it is valid in every band.`,
			defaultVal: []int{1},
		},
		{
			name: "nodata",
			usage: `
              nodata overrides the nodata value of every band. It can be
              "nan". If empty, the nodata values of the raster are used.`,
			defaultVal: "",
		},
		{
			name: "holes",
			usage: `
              holes specifies whether holes are kept in the footprint.`,
			defaultVal: false,
		},
		{
			name: "with-nodata",
			usage: `
              with-nodata specifies that the footprint covers the whole
              raster including nodata cells.`,
			defaultVal: false,
		},
		{
			name: "convex-hull",
			usage: `
              convex-hull specifies that the footprint is replaced by its
              convex hull. It can't be combined with holes.`,
			defaultVal: false,
		},
	}, createCmd)
}

// cellOptions control the H3 cover of a footprint.
func cellOptions() []option {
	return on([]option{
		{
			name: "h3-resolution",
			usage: `
              h3-resolution is the resolution (0-15) of the H3 cells that
              cover the footprint.`,
			defaultVal: 7,
		},
		{
			name: "compact",
			usage: `
              compact specifies whether complete sets of H3 child cells
              are replaced by their parents.`,
			defaultVal: false,
		},
	}, cellsCmd)
}

func init() {
	for _, group := range [][]option{globalOptions(), pipelineOptions(), rasterOptions(), cellOptions()} {
		options = append(options, group...)
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("FOOTPRINT")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	Cfg.AutomaticEnv()

	for _, o := range options {
		f := o.define()
		for _, set := range o.flagsets[1:] {
			set.AddFlag(f)
		}
		Cfg.BindPFlag(o.name, f)
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(createCmd)
	Root.AddCommand(densifyCmd)
	Root.AddCommand(reprojectCmd)
	Root.AddCommand(simplifyCmd)
	Root.AddCommand(cellsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("footprintutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "footprint",
	Short: "Create footprints of raster data.",
	Long: `footprint creates polygon footprints of the valid data in rasters, for use
in spatial indexes and metadata catalogs, and processes existing footprints.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'FOOTPRINT_var' where 'var' is the
name of the variable to be set, with dashes replaced by underscores.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of footprint.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "footprint v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

var createCmd = &cobra.Command{
	Use:   "create raster",
	Short: "Create the footprint of a raster.",
	Long: `create writes the GeoJSON footprint of the valid data in a raster. The raster
can be an ESRI ASCII grid (.asc) or a NetCDF file (.nc), stored locally, on a web
server, or in blob storage. Cells are valid if they don't match the nodata value of
any selected band.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log := newLogger()
		cfg, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		cfg.Log = log
		f := rastersrc.NewFetcher("")
		f.Log = log
		src, err := f.Open(ctx, expand(args[0]))
		if err != nil {
			return err
		}
		fp, err := footprint.FromSource(src, cfg)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"raster":   args[0],
			"kind":     fp.Kind(),
			"vertices": fp.Vertices(),
		}).Info("footprint created")
		return writeOutput(ctx, cmd, fp)
	},
	DisableAutoGenTag: true,
}

var densifyCmd = &cobra.Command{
	Use:   "densify geojson",
	Short: "Add vertices to the edges of a footprint.",
	Long: `densify adds evenly-spaced vertices to every edge of a GeoJSON Polygon or
MultiPolygon, according to densify-factor or densify-distance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		polys, crs, err := readFootprint(ctx, args[0])
		if err != nil {
			return err
		}
		if polys, err = footprint.DensifyPolygons(polys, cfg.Densify, cfg.Precision); err != nil {
			return err
		}
		return writeOutput(ctx, cmd, footprint.Assemble(crs, polys))
	},
	DisableAutoGenTag: true,
}

var reprojectCmd = &cobra.Command{
	Use:   "reproject geojson",
	Short: "Transform a footprint to another spatial reference.",
	Long: `reproject transforms the coordinates of a GeoJSON Polygon or MultiPolygon from
source-crs to destination-crs, then rounds them to precision decimal places.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		polys, crs, err := readFootprint(ctx, args[0])
		if err != nil {
			return err
		}
		dst := cfg.DestinationCRS
		if polys, err = footprint.Reproject(polys, crs, dst, footprint.DefaultTransformer(), cfg.Precision); err != nil {
			return err
		}
		return writeOutput(ctx, cmd, footprint.Assemble(dst, polys))
	},
	DisableAutoGenTag: true,
}

var simplifyCmd = &cobra.Command{
	Use:   "simplify geojson",
	Short: "Remove vertices from a footprint.",
	Long: `simplify removes vertices from a GeoJSON Polygon or MultiPolygon using the
Douglas-Peucker algorithm with the given tolerance.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := PipelineConfig(Cfg)
		if err != nil {
			return err
		}
		polys, crs, err := readFootprint(ctx, args[0])
		if err != nil {
			return err
		}
		if polys, err = footprint.SimplifyPolygons(polys, cfg.SimplifyTolerance); err != nil {
			return err
		}
		return writeOutput(ctx, cmd, footprint.Assemble(crs, polys))
	},
	DisableAutoGenTag: true,
}

var cellsCmd = &cobra.Command{
	Use:   "cells geojson",
	Short: "List the H3 cells covering a footprint.",
	Long: `cells writes a JSON array of the H3 cells at h3-resolution whose centers are
within a GeoJSON Polygon or MultiPolygon in geographic coordinates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		polys, crs, err := readFootprint(ctx, args[0])
		if err != nil {
			return err
		}
		fp := footprint.Assemble(crs, polys)
		res := Cfg.GetInt("h3-resolution")
		var cells []string
		if Cfg.GetBool("compact") {
			cells, err = cellindex.Compact(fp, res)
		} else {
			cells, err = cellindex.Cells(fp, res)
		}
		if err != nil {
			return err
		}
		if cells == nil {
			cells = []string{}
		}
		return writeOutput(ctx, cmd, cells)
	},
	DisableAutoGenTag: true,
}

// commands returns every command in the tree.
func commands() []*cobra.Command {
	return []*cobra.Command{Root, versionCmd, createCmd, densifyCmd, reprojectCmd, simplifyCmd, cellsCmd}
}
