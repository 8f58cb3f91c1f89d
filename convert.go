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

package stmpy

import (
	"os"

	"github.com/spatialmodel/stmpy/nvl"
)

// Convert reads the source record at sourcePath and saves it as a
// MAT-file at targetPath. Conditions that do not stop the conversion are
// returned as diagnostics. If the conversion fails, for example with
// ErrMissingFilename, no file is written.
func Convert(sourcePath, targetPath string, opts Options) (*Record, Diagnostics, error) {
	src, err := nvl.Open(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	r, d, err := NewRecord(src, opts)
	if err != nil {
		return nil, d, err
	}
	sd, err := SaveMAT(targetPath, r, SaveOptions{Compress: opts.Compress, StructVar: opts.StructVar})
	d = append(d, sd...)
	if err != nil {
		return nil, d, err
	}
	return r, d, nil
}

// ConvertBack reads the record saved in the MAT-file at matPath and
// writes it as a source record at nvlPath. varName selects a structure
// variable holding the record; if it is empty the record fields are the
// top-level variables.
func ConvertBack(matPath, nvlPath, varName string) (*Record, Diagnostics, error) {
	t, d, err := ReadTarget(matPath, varName)
	if err != nil {
		return nil, d, err
	}
	r, rd, err := FromTarget(t)
	d = append(d, rd...)
	if err != nil {
		return nil, d, err
	}
	src := r.NVL()
	err = writeAtomic(nvlPath, func(f *os.File) error {
		return nvl.Write(f, src)
	})
	if err != nil {
		return nil, d, err
	}
	return r, d, nil
}
