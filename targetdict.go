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
	"github.com/spatialmodel/stmpy/matfile"
)

// Target field names.
const (
	FieldOps       = "ops"
	FieldMap       = "map"
	FieldEnergy    = "e"
	FieldAve       = "ave"
	FieldInfo      = "info"
	FieldHeader    = "header"
	FieldCoordType = "coord_type"
	FieldName      = "name"
	FieldVar       = "var"
)

// reserved lists the target fields that Record interprets, in the order
// Target writes them.
var reserved = []string{
	FieldOps, FieldMap, FieldEnergy, FieldAve, FieldInfo, FieldHeader,
	FieldCoordType, FieldName, FieldVar,
}

func isReserved(key string) bool {
	for _, r := range reserved {
		if r == key {
			return true
		}
	}
	return false
}

// TargetDict is the flat, ordered set of MAT-file values that a Record
// is saved as.
type TargetDict struct {
	keys []string
	vals map[string]matfile.Value
}

// NewTargetDict returns an empty TargetDict.
func NewTargetDict() *TargetDict {
	return &TargetDict{vals: make(map[string]matfile.Value)}
}

// Set stores v under key. A key that is already present keeps its position.
func (t *TargetDict) Set(key string, v matfile.Value) {
	if t.vals == nil {
		t.vals = make(map[string]matfile.Value)
	}
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = v
}

// Get returns the value stored under key.
func (t *TargetDict) Get(key string) (matfile.Value, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.vals[key]
	return v, ok
}

// Keys returns the keys in order.
func (t *TargetDict) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string{}, t.keys...)
}

// Len returns the number of entries.
func (t *TargetDict) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Copy returns a deep copy of t.
func (t *TargetDict) Copy() *TargetDict {
	o := NewTargetDict()
	for _, k := range t.Keys() {
		v := t.vals[k]
		if v != nil {
			v = v.Copy()
		}
		o.Set(k, v)
	}
	return o
}

// Vars returns the entries of t as MAT-file variables.
func (t *TargetDict) Vars() []matfile.Var {
	vars := make([]matfile.Var, 0, t.Len())
	for _, k := range t.Keys() {
		vars = append(vars, matfile.Var{Name: k, Value: t.vals[k]})
	}
	return vars
}

// Struct returns t as a 1×1 structure whose fields are the entries of t.
func (t *TargetDict) Struct() (*matfile.Struct, error) {
	values := make([]matfile.Value, 0, t.Len())
	for _, k := range t.Keys() {
		values = append(values, t.vals[k])
	}
	return matfile.NewStruct(t.Keys(), values)
}

// targetFromStruct returns the fields of the first element of s.
func targetFromStruct(s *matfile.Struct) *TargetDict {
	t := NewTargetDict()
	for j, f := range s.Fields {
		t.Set(f, s.Elems[0][j])
	}
	return t
}
