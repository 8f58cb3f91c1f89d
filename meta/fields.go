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

package meta

import (
	"strings"
)

// Fields is a mapping from field name to Value that remembers the order
// in which names were first set.
type Fields struct {
	keys []string
	vals map[string]Value
}

// NewFields returns an empty Fields.
func NewFields() *Fields {
	return &Fields{vals: make(map[string]Value)}
}

// Set stores v under key. A key that is already present keeps its position.
func (f *Fields) Set(key string, v Value) {
	if f.vals == nil {
		f.vals = make(map[string]Value)
	}
	if _, ok := f.vals[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.vals[key] = v
}

// Get returns the value stored under key.
func (f *Fields) Get(key string) (Value, bool) {
	if f == nil {
		return Value{}, false
	}
	v, ok := f.vals[key]
	return v, ok
}

// Delete removes key.
func (f *Fields) Delete(key string) {
	if _, ok := f.vals[key]; !ok {
		return
	}
	delete(f.vals, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the field names in order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string{}, f.keys...)
}

// Len returns the number of fields.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Copy returns a deep copy of f.
func (f *Fields) Copy() *Fields {
	o := NewFields()
	if f == nil {
		return o
	}
	for _, k := range f.keys {
		o.Set(k, f.vals[k].Copy())
	}
	return o
}

// Equal reports whether f and o hold equal values under the same names
// in the same order.
func (f *Fields) Equal(o *Fields) bool {
	if f.Len() != o.Len() {
		return false
	}
	for i, k := range f.Keys() {
		if o.keys[i] != k {
			return false
		}
		if !f.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

// Canonical reports whether f, including any nested fields, is free of
// missing values and record tables.
func (f *Fields) Canonical() bool {
	for _, k := range f.Keys() {
		v := f.vals[k]
		switch v.kind {
		case Missing, Table:
			return false
		case Map:
			if !v.m.Canonical() {
				return false
			}
		}
	}
	return true
}

func (f *Fields) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range f.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(f.vals[k].String())
	}
	b.WriteString("}")
	return b.String()
}
