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

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/stmpy/matfile"
	"github.com/spatialmodel/stmpy/meta"
)

// FieldKind is the shape of a target field as seen by FromTarget.
type FieldKind int

// Field kinds.
const (
	RawArray FieldKind = iota
	StringField
	StructLike
	CellLike
)

func (k FieldKind) String() string {
	switch k {
	case StringField:
		return "string"
	case StructLike:
		return "struct"
	case CellLike:
		return "cell"
	}
	return "raw"
}

// Classify returns the kind of a target field value.
func Classify(v matfile.Value) FieldKind {
	switch v.(type) {
	case *matfile.Char:
		return StringField
	case *matfile.Struct:
		return StructLike
	case *matfile.Cell:
		return CellLike
	}
	return RawArray
}

// FromTarget rebuilds a Record from target fields. Each field is
// dispatched on its kind and key, in this order:
//
//   - strings set name, var and coord_type;
//   - the info and header structures become metadata groups;
//   - the ops cell array becomes the operation log;
//   - "e" becomes the energy axis;
//   - map and ave are copied as arrays.
//
// Fields that are not recognised are kept in Extra. The stored map is
// then rotated once so that its last axis comes first (see
// ToEnergyFirst), and OpMAT2NVL is appended to the operation log.
func FromTarget(t *TargetDict) (*Record, Diagnostics, error) {
	var d Diagnostics
	r := &Record{Info: meta.NewFields(), Header: meta.NewFields(), Extra: NewTargetDict()}
	var stored *sparse.DenseArray
	for _, key := range t.Keys() {
		v, _ := t.Get(key)
		kind := Classify(v)
		if n, ok := v.(*matfile.Numeric); ok && n.Imag != nil && (key == FieldMap || key == FieldEnergy || key == FieldAve) {
			d.add(UnsupportedValue, key, "imaginary part of complex %s dropped", matfile.Describe(n))
		}
		var err error
		switch {
		case kind == StringField:
			err = r.setString(key, v.(*matfile.Char).String())
		case key == FieldInfo || key == FieldHeader:
			var f *meta.Fields
			if f, err = unpackGroup(key, v, &d); err == nil {
				if key == FieldInfo {
					r.Info = f
				} else {
					r.Header = f
				}
			}
		case key == FieldOps:
			r.Ops, err = unpackOps(v)
		case key == FieldEnergy:
			r.En, err = vector(key, v)
		case key == FieldMap:
			n, ok := v.(*matfile.Numeric)
			if !ok {
				err = fmt.Errorf("%w: %s is %s", ErrFieldKind, key, describe(v))
				break
			}
			stored = sparse.ZerosDense(n.Dims()...)
			copy(stored.Elements, n.Real)
		case key == FieldAve:
			r.Ave, err = vector(key, v)
		default:
			if v != nil {
				v = v.Copy()
			}
			r.Extra.Set(key, v)
		}
		if err != nil {
			return nil, nil, err
		}
	}
	if stored == nil {
		return nil, nil, ErrMissingMap
	}
	m, err := ToEnergyFirst(stored)
	if err != nil {
		return nil, nil, err
	}
	r.Map = m
	r.AddOp(OpMAT2NVL)
	return r, d, nil
}

func (r *Record) setString(key, s string) error {
	switch key {
	case FieldName:
		r.Name = s
	case FieldVar:
		r.Var = s
	case FieldCoordType:
		c, err := ParseCoordSpace(s)
		if err != nil {
			return err
		}
		r.CoordType = c
	default:
		if isReserved(key) {
			return fmt.Errorf("%w: %s is a string", ErrFieldKind, key)
		}
		r.Extra.Set(key, matfile.NewChar(s))
	}
	return nil
}

func unpackGroup(key string, v matfile.Value, d *Diagnostics) (*meta.Fields, error) {
	s, ok := v.(*matfile.Struct)
	if !ok || len(s.Elems) == 0 {
		return nil, fmt.Errorf("%w: %s is %s, want a structure", ErrFieldKind, key, describe(v))
	}
	f := meta.NewFields()
	for j, name := range s.Fields {
		fv, ok := fromMAT(s.Elems[0][j])
		if !ok {
			d.add(UnsupportedValue, key+"."+name, "no exact metadata equivalent; read as %q", fv.String())
		}
		f.Set(name, fv)
	}
	return f, nil
}

func unpackOps(v matfile.Value) ([]string, error) {
	c, ok := v.(*matfile.Cell)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want a cell array", ErrFieldKind, FieldOps, describe(v))
	}
	ops := make([]string, len(c.Elems))
	for i, e := range c.Elems {
		s, ok := e.(*matfile.Char)
		if !ok {
			return nil, fmt.Errorf("%w: %s{%d} is %s, want a string", ErrFieldKind, FieldOps, i+1, describe(e))
		}
		ops[i] = s.String()
	}
	return ops, nil
}

func vector(key string, v matfile.Value) ([]float64, error) {
	n, ok := v.(*matfile.Numeric)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s, want a numeric array", ErrFieldKind, key, describe(v))
	}
	return append([]float64{}, n.Real...), nil
}

func describe(v matfile.Value) string {
	if v == nil {
		return "empty"
	}
	return matfile.Describe(v)
}
