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
)

// FormatStruct returns a 1×1 structure whose fields are the keys of f, in
// order, each holding a copy of the corresponding value. Nested maps
// become nested structures. f must not contain missing values or record
// tables; see meta.Coerce.
func FormatStruct(f *meta.Fields) (*matfile.Struct, error) {
	keys := f.Keys()
	values := make([]matfile.Value, len(keys))
	for i, k := range keys {
		v, _ := f.Get(k)
		mv, err := toMAT(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		values[i] = mv
	}
	return matfile.NewStruct(keys, values)
}

// FormatCell returns a 1×N cell array whose i-th cell holds a copy of
// the i-th value.
func FormatCell(values []meta.Value) (*matfile.Cell, error) {
	cells := make([]matfile.Value, len(values))
	for i, v := range values {
		mv, err := toMAT(v)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells[i] = mv
	}
	return matfile.NewCell(cells), nil
}

// toMAT converts a metadata value: strings to character rows, numbers to
// 1×1 arrays, arrays to row vectors and maps to structures.
func toMAT(v meta.Value) (matfile.Value, error) {
	switch v.Kind() {
	case meta.String:
		return matfile.NewChar(v.Str()), nil
	case meta.Number:
		return matfile.Scalar(v.Num()), nil
	case meta.Array:
		return matfile.RowVector(v.Floats()), nil
	case meta.Map:
		return FormatStruct(v.Fields())
	}
	return nil, fmt.Errorf("%w: %v value cannot be stored", ErrFieldKind, v.Kind())
}

// fromMAT converts a value read from a structure field back to metadata.
// ok is false when v has no exact metadata equivalent: complex arrays
// keep their real part, and other values become their description.
func fromMAT(v matfile.Value) (mv meta.Value, ok bool) {
	switch x := v.(type) {
	case *matfile.Char:
		return meta.StringValue(x.String()), true
	case *matfile.Numeric:
		ok = x.Imag == nil
		if len(x.Real) == 1 {
			return meta.NumberValue(x.Real[0]), ok
		}
		return meta.ArrayValue(x.Real), ok
	case *matfile.Struct:
		if len(x.Elems) == 0 {
			break
		}
		f := meta.NewFields()
		ok = true
		for j, name := range x.Fields {
			fv, fok := fromMAT(x.Elems[0][j])
			ok = ok && fok
			f.Set(name, fv)
		}
		return meta.MapValue(f), ok
	}
	if v == nil {
		return meta.StringValue(""), false
	}
	return meta.StringValue(matfile.Describe(v)), false
}
