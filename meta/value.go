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

// Package meta holds the metadata attached to a scanning tunneling
// microscopy measurement. Every metadata value belongs to a closed set of
// kinds that is decided once, when the value is read from its source,
// and carried unchanged through every later conversion.
package meta

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the kind of a metadata value.
type Kind int

const (
	// Missing marks a field the acquisition system left empty.
	Missing Kind = iota
	// String is a text value.
	String
	// Number is a real scalar.
	Number
	// Array is a one-dimensional vector of reals.
	Array
	// Map is a nested, ordered set of named values.
	Map
	// Table is a nested heterogeneous record array (named columns of rows).
	Table
)

func (k Kind) String() string {
	switch k {
	case Missing:
		return "missing"
	case String:
		return "string"
	case Number:
		return "number"
	case Array:
		return "array"
	case Map:
		return "map"
	case Table:
		return "table"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a single metadata value. The zero Value is a missing value.
type Value struct {
	kind  Kind
	str   string
	num   float64
	arr   []float64
	m     *Fields
	table *RecordTable
}

// RecordTable is a record array: rows of values under named columns.
type RecordTable struct {
	Columns []string
	Rows    [][]float64
}

// MissingValue returns a missing value.
func MissingValue() Value { return Value{kind: Missing} }

// StringValue returns a text value.
func StringValue(s string) Value { return Value{kind: String, str: s} }

// NumberValue returns a scalar value.
func NumberValue(f float64) Value { return Value{kind: Number, num: f} }

// ArrayValue returns a vector value holding a copy of a.
func ArrayValue(a []float64) Value {
	return Value{kind: Array, arr: append([]float64{}, a...)}
}

// MapValue returns a nested value holding a copy of m.
func MapValue(m *Fields) Value {
	if m == nil {
		m = NewFields()
	}
	return Value{kind: Map, m: m.Copy()}
}

// TableValue returns a record-array value with the given columns and rows.
func TableValue(columns []string, rows [][]float64) Value {
	t := &RecordTable{Columns: append([]string{}, columns...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, append([]float64{}, r...))
	}
	return Value{kind: Table, table: t}
}

// Kind returns the kind of v.
func (v Value) Kind() Kind { return v.kind }

// Str returns the text of a String value.
func (v Value) Str() string { return v.str }

// Num returns the scalar of a Number value.
func (v Value) Num() float64 { return v.num }

// Floats returns the vector of an Array value. It must not be modified.
func (v Value) Floats() []float64 { return v.arr }

// Fields returns the nested fields of a Map value.
func (v Value) Fields() *Fields { return v.m }

// Table returns the record array of a Table value.
func (v Value) Table() *RecordTable { return v.table }

// Copy returns a deep copy of v.
func (v Value) Copy() Value {
	switch v.kind {
	case Array:
		return ArrayValue(v.arr)
	case Map:
		return MapValue(v.m)
	case Table:
		return TableValue(v.table.Columns, v.table.Rows)
	default:
		return v
	}
}

// Equal reports whether v and o hold the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Missing:
		return true
	case String:
		return v.str == o.str
	case Number:
		return v.num == o.num
	case Array:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if v.arr[i] != o.arr[i] {
				return false
			}
		}
		return true
	case Map:
		return v.m.Equal(o.m)
	case Table:
		if strings.Join(v.table.Columns, "\x00") != strings.Join(o.table.Columns, "\x00") ||
			len(v.table.Rows) != len(o.table.Rows) {
			return false
		}
		for i := range v.table.Rows {
			if !ArrayValue(v.table.Rows[i]).Equal(ArrayValue(o.table.Rows[i])) {
				return false
			}
		}
		return true
	}
	return false
}

// String returns the display form of v.
func (v Value) String() string {
	switch v.kind {
	case Missing:
		return "<missing>"
	case String:
		return v.str
	case Number:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case Array:
		s := make([]string, len(v.arr))
		for i, f := range v.arr {
			s[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "[" + strings.Join(s, " ") + "]"
	case Map:
		return v.m.String()
	case Table:
		return fmt.Sprintf("<table %d×%d %v>", len(v.table.Rows), len(v.table.Columns), v.table.Columns)
	}
	return "<invalid>"
}
