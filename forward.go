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
	"fmt"

	"github.com/spatialmodel/stmpy/matfile"
	"github.com/spatialmodel/stmpy/meta"
	"github.com/spatialmodel/stmpy/nvl"
)

// Options control a source to target conversion.
type Options struct {
	// CoordSpace labels the map. When it is zero, real space is assumed
	// and an AssumedCoordSpace diagnostic is returned.
	CoordSpace CoordSpace
	// Compress stores each MAT-file variable zlib-compressed.
	Compress bool
	// StructVar saves the record as a single structure variable named by
	// the record's Var field instead of one variable per field.
	StructVar bool
}

// NewRecord builds a Record from a source file. The arrays are copied,
// the metadata groups are coerced so that they hold only strings,
// numbers, arrays and nested maps, and OpNVL2MAT is appended to the
// operation log. The record is named by the FILENAME entry of src.Info;
// if there is none, the error is ErrMissingFilename.
func NewRecord(src *nvl.File, opts Options) (*Record, Diagnostics, error) {
	fn, ok := src.Info.Get("FILENAME")
	if !ok || fn.Kind() == meta.Missing {
		return nil, nil, ErrMissingFilename
	}
	if src.Data == nil {
		return nil, nil, ErrMissingMap
	}
	if len(src.Data.Shape) < 2 {
		return nil, nil, fmt.Errorf("%w: shape %v", ErrRank, src.Data.Shape)
	}
	switch opts.CoordSpace {
	case 0, RealSpace, ReciprocalSpace:
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrCoordSpace, opts.CoordSpace.String())
	}

	var d Diagnostics
	r := &Record{
		Map: copyDense(src.Data),
		En:  append([]float64{}, src.En...),
		Ave: append([]float64{}, src.AverageSpectrum...),
	}
	r.Info = coerce(src.Info, FieldInfo, &d)
	r.Header = coerce(src.Header, FieldHeader, &d)

	r.CoordType = opts.CoordSpace
	if r.CoordType == 0 {
		r.CoordType = RealSpace
		d.add(AssumedCoordSpace, FieldCoordType,
			"assumed the map is in real space; set the coordinate space to k if it is in reciprocal space")
	}
	r.Name = fn.String()
	r.Var = r.Name
	r.AddOp(OpNVL2MAT)
	return r, d, nil
}

func coerce(f *meta.Fields, group string, d *Diagnostics) *meta.Fields {
	o, repl := meta.Coerce(f, Conversion)
	for _, x := range repl {
		key := group + "." + x.Key
		switch x.Was {
		case meta.Table:
			d.add(RecarrayDeleted, key, "deleted because of record array type")
		case meta.Missing:
			d.add(MissingValue, key, "replaced missing value with %q", x.With)
		}
	}
	return o
}

// Target returns the MAT-file form of r: the operation log as a cell
// array, the map with its first (energy) axis moved to the back, the
// energy axis under the key "e", the metadata groups as structures and
// the string fields as character rows. Extra fields follow.
func (r *Record) Target() (*TargetDict, error) {
	if r.Map == nil {
		return nil, ErrMissingMap
	}
	m, err := ToEnergyLast(r.Map)
	if err != nil {
		return nil, err
	}
	t := NewTargetDict()

	ops := make([]meta.Value, len(r.Ops))
	for i, op := range r.Ops {
		ops[i] = meta.StringValue(op)
	}
	cell, err := FormatCell(ops)
	if err != nil {
		return nil, err
	}
	t.Set(FieldOps, cell)
	t.Set(FieldMap, matfile.NewDouble(m.Shape, m.Elements))
	t.Set(FieldEnergy, matfile.RowVector(r.En))
	t.Set(FieldAve, matfile.RowVector(r.Ave))
	for _, g := range []struct {
		key string
		f   *meta.Fields
	}{{FieldInfo, r.Info}, {FieldHeader, r.Header}} {
		s, err := FormatStruct(g.f)
		if err != nil {
			return nil, fmt.Errorf("stmpy: formatting %s: %w", g.key, err)
		}
		t.Set(g.key, s)
	}
	if r.CoordType != 0 {
		t.Set(FieldCoordType, matfile.NewChar(r.CoordType.String()))
	}
	t.Set(FieldName, matfile.NewChar(r.Name))
	t.Set(FieldVar, matfile.NewChar(r.Var))

	for _, k := range r.Extra.Keys() {
		if isReserved(k) {
			continue
		}
		v, _ := r.Extra.Get(k)
		if v != nil {
			v = v.Copy()
		}
		t.Set(k, v)
	}
	return t, nil
}
