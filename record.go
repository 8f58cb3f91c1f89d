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

// Package stmpy converts scanning tunneling microscopy measurements
// between the source-side record of package nvl and MAT-files.
//
// A conversion passes through a Record, the format-neutral form of one
// measurement. NewRecord builds a Record from a source file; Target
// projects it onto the flat set of MAT-file variables written by SaveMAT;
// FromTarget rebuilds a Record from variables read back with ReadTarget.
// Conditions that do not stop a conversion are returned as Diagnostics
// rather than printed.
package stmpy

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/stmpy/meta"
	"github.com/spatialmodel/stmpy/nvl"
)

var (
	// ErrMissingFilename is returned when the info metadata of a source
	// record has no FILENAME entry, so that the record cannot be named.
	ErrMissingFilename = errors.New("stmpy: missing FILENAME in info")
	// ErrFieldKind is returned when a reserved target field holds a value
	// of the wrong kind.
	ErrFieldKind = errors.New("stmpy: unexpected field kind")
	// ErrMissingMap is returned when target fields have no map.
	ErrMissingMap = errors.New("stmpy: no map field")
	// ErrRank is returned for a map of fewer than two dimensions.
	ErrRank = errors.New("stmpy: map must have at least two dimensions")
	// ErrCoordSpace is returned for an unknown coordinate space.
	ErrCoordSpace = errors.New("stmpy: invalid coordinate space")
)

// Operation log entries.
const (
	OpNVL2MAT = "nvl2mat"
	OpMAT2NVL = "mat2nvl"
)

// Conversion is the name of the source to target conversion, as it
// appears in metadata placeholders.
const Conversion = "NVL to MAT"

// CoordSpace labels the spatial axes of a map as real or reciprocal space.
// The zero value means the space was not specified.
type CoordSpace byte

// Coordinate spaces.
const (
	RealSpace       CoordSpace = 'r'
	ReciprocalSpace CoordSpace = 'k'
)

func (c CoordSpace) String() string {
	if c == 0 {
		return ""
	}
	return string(rune(c))
}

// ParseCoordSpace parses "r" (or "real") and "k" (or "reciprocal"). The
// empty string gives the zero CoordSpace.
func ParseCoordSpace(s string) (CoordSpace, error) {
	switch s {
	case "":
		return 0, nil
	case "r", "real":
		return RealSpace, nil
	case "k", "reciprocal":
		return ReciprocalSpace, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrCoordSpace, s)
}

// Record is one measurement in format-neutral form.
type Record struct {
	// Map is the spectroscopic map, energy axis first.
	Map *sparse.DenseArray
	// En is the energy axis.
	En []float64
	// Ave is the spatially averaged spectrum.
	Ave []float64
	// Info and Header hold metadata. After NewRecord neither contains
	// missing values or record tables.
	Info, Header *meta.Fields

	CoordType CoordSpace
	// Name is taken from the FILENAME metadata entry; Var is the name of
	// the variable the record is saved under.
	Name, Var string

	// Ops is the operation log, oldest first.
	Ops []string

	// Extra holds target fields that are carried through unchanged.
	Extra *TargetDict
}

// AddOp appends op to the operation log.
func (r *Record) AddOp(op string) {
	r.Ops = append(r.Ops, op)
}

// NVL returns r in source-side form.
func (r *Record) NVL() *nvl.File {
	f := &nvl.File{
		En:              append([]float64{}, r.En...),
		AverageSpectrum: append([]float64{}, r.Ave...),
		Info:            r.Info.Copy(),
		Header:          r.Header.Copy(),
	}
	if r.Map != nil {
		f.Data = copyDense(r.Map)
	}
	return f
}

// copyDense returns a deep copy of a. sparse's own Copy shares the shape.
func copyDense(a *sparse.DenseArray) *sparse.DenseArray {
	o := sparse.ZerosDense(append([]int{}, a.Shape...)...)
	copy(o.Elements, a.Elements)
	return o
}
