/*
Copyright © 2026 the stmpy authors.
This file is part of stmpy.

stmpy is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

stmpy is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with stmpy.  If not, see <http://www.gnu.org/licenses/>.
*/

package stmpyutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/stmpy"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to stmpy.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on debug-level logging.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file that log messages are written to
              in addition to standard output. It can include environment
              variables. If it is empty, messages only go to standard output.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "CoordSpace",
			usage: `
              CoordSpace is the coordinate space of the map: "r" for real
              space or "k" for reciprocal space. If it is empty, real space
              is assumed and a notice is logged.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{nvl2matCmd.Flags(), fftCmd.Flags(), infoCmd.Flags()},
		},
		{
			name: "Compress",
			usage: `
              Compress specifies whether MAT-file variables are stored
              zlib-compressed.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{nvl2matCmd.Flags(), fftCmd.Flags()},
		},
		{
			name: "StructVar",
			usage: `
              StructVar specifies whether the record is saved as a single
              structure variable, named after the source file, instead of
              one variable per field.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{nvl2matCmd.Flags(), fftCmd.Flags()},
		},
		{
			name: "Var",
			usage: `
              Var is the name of the structure variable that holds the
              record in a MAT-file. If it is empty, the record fields are
              read from the top-level variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{mat2nvlCmd.Flags(), plotCmd.Flags()},
		},
		{
			name: "FFT.ZeroCenter",
			usage: `
              FFT.ZeroCenter specifies whether the zero frequency term of
              each layer is set to zero before taking the magnitude.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{fftCmd.Flags()},
		},
		{
			name: "FFT.Symmetrize",
			usage: `
              FFT.Symmetrize is the order of the rotational symmetrization
              applied to each layer of the transform. Zero turns it off.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{fftCmd.Flags()},
		},
		{
			name: "Plot.Layer",
			usage: `
              Plot.Layer is the index along the energy axis of the layer
              to plot.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.Saturate",
			usage: `
              Plot.Saturate is the percentage of the color scale clipped at
              each end, between 0 and 100.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("STMPY")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(nvl2matCmd)
	Root.AddCommand(mat2nvlCmd)
	Root.AddCommand(loadmatCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(fftCmd)
	Root.AddCommand(plotCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("stmpy: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "stmpy",
	Short: "Tools for scanning tunneling spectroscopy maps.",
	Long: `stmpy converts spectroscopic maps between the NVL instrument format
and MAT-files, and provides quick analysis tools for them.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'STMPY_var' where 'var' is the
name of the variable to be set. File paths are allowed to contain environment
variables.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of stmpy.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("stmpy v%s\n", stmpy.Version)
	},
	DisableAutoGenTag: true,
}

var nvl2matCmd = &cobra.Command{
	Use:   "nvl2mat SOURCE TARGET",
	Short: "Convert an NVL file to a MAT-file.",
	Long: `nvl2mat reads the spectroscopic map and metadata in the NVL file SOURCE
and saves them in the MAT-file TARGET. Record tables in the metadata are
replaced by a placeholder and missing values by "No value"; each
replacement is logged. The map is stored with its energy axis last.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := conversionOptions()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		return NVL2MAT(log, os.ExpandEnv(args[0]), os.ExpandEnv(args[1]), opts)
	},
	DisableAutoGenTag: true,
}

var mat2nvlCmd = &cobra.Command{
	Use:   "mat2nvl MAT NVL",
	Short: "Convert a MAT-file back to an NVL file.",
	Long: `mat2nvl reads a record saved by nvl2mat from the MAT-file MAT and
writes it to the NVL file NVL, moving the energy axis of the map back to
the front. Fields it does not recognise are logged and dropped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		return MAT2NVL(log, os.ExpandEnv(args[0]), os.ExpandEnv(args[1]), Cfg.GetString("Var"))
	},
	DisableAutoGenTag: true,
}

var loadmatCmd = &cobra.Command{
	Use:   "loadmat FILE",
	Short: "List the variables in a MAT-file.",
	Long: `loadmat imports the variables in the MAT-file FILE and prints the name,
class and size of each, along with the fields of structure variables.
Variables whose names start with "__" are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		return LoadMAT(cmd.OutOrStdout(), log, os.ExpandEnv(args[0]))
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info SOURCE",
	Short: "Print the metadata of an NVL file.",
	Long: `info prints the metadata groups of the NVL file SOURCE in TOML format,
as they would be saved by nvl2mat.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := conversionOptions()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		return Info(cmd.OutOrStdout(), log, os.ExpandEnv(args[0]), opts)
	},
	DisableAutoGenTag: true,
}

var fftCmd = &cobra.Command{
	Use:   "fft SOURCE TARGET",
	Short: "Save the Fourier transform of a map.",
	Long: `fft reads the map in the NVL file SOURCE, replaces each energy layer by
the magnitude of its 2-D Fourier transform with the zero frequency at the
center, and saves the result in the MAT-file TARGET with its coordinate
space set to reciprocal space.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := conversionOptions()
		if err != nil {
			return err
		}
		sym, err := cast.ToIntE(Cfg.Get("FFT.Symmetrize"))
		if err != nil {
			return fmt.Errorf("stmpy: invalid FFT.Symmetrize: %v", err)
		}
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		return FFT(log, os.ExpandEnv(args[0]), os.ExpandEnv(args[1]), opts,
			Cfg.GetBool("FFT.ZeroCenter"), sym)
	},
	DisableAutoGenTag: true,
}

var plotCmd = &cobra.Command{
	Use:   "plot SOURCE OUTPUT",
	Short: "Plot one energy layer of a map.",
	Long: `plot draws a heat map of one energy layer of the map in SOURCE, which
can be an NVL file or a MAT-file written by nvl2mat, and saves it to
OUTPUT. The image format is chosen by the extension of OUTPUT: .png, .jpg
or .tif.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		layer, err := cast.ToIntE(Cfg.Get("Plot.Layer"))
		if err != nil {
			return fmt.Errorf("stmpy: invalid Plot.Layer: %v", err)
		}
		sat, err := cast.ToFloat64E(Cfg.Get("Plot.Saturate"))
		if err != nil {
			return fmt.Errorf("stmpy: invalid Plot.Saturate: %v", err)
		}
		log, closeLog, err := newLogger(cmd)
		if err != nil {
			return err
		}
		defer closeLog()
		return Plot(log, os.ExpandEnv(args[0]), os.ExpandEnv(args[1]), Cfg.GetString("Var"), layer, sat)
	},
	DisableAutoGenTag: true,
}
