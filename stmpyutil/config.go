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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/stmpy"
	"github.com/spf13/cobra"
)

// conversionOptions collects the options of a source to target
// conversion from the configuration.
func conversionOptions() (stmpy.Options, error) {
	c, err := stmpy.ParseCoordSpace(os.ExpandEnv(Cfg.GetString("CoordSpace")))
	if err != nil {
		return stmpy.Options{}, fmt.Errorf("stmpy: invalid CoordSpace configuration: %w", err)
	}
	return stmpy.Options{
		CoordSpace: c,
		Compress:   Cfg.GetBool("Compress"),
		StructVar:  Cfg.GetBool("StructVar"),
	}, nil
}

// newLogger returns a logger that writes to the output of cmd and, if the
// LogFile option is set, to that file. The returned function closes the
// log file.
func newLogger(cmd *cobra.Command) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	log.SetLevel(logrus.InfoLevel)
	if Cfg.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}
	log.SetOutput(cmd.OutOrStdout())

	logFile := os.ExpandEnv(Cfg.GetString("LogFile"))
	if logFile == "" {
		return log, func() {}, nil
	}
	if _, err := os.Stat(filepath.Dir(logFile)); err != nil {
		return nil, nil, fmt.Errorf("stmpy: the LogFile directory doesn't exist: %v", err)
	}
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("stmpy: problem creating log file: %v", err)
	}
	log.SetOutput(io.MultiWriter(cmd.OutOrStdout(), f))
	return log, func() { f.Close() }, nil
}
