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

import "fmt"

// NoValue replaces missing values during coercion.
const NoValue = "No value"

// Replacement records a field whose value was replaced during coercion.
type Replacement struct {
	// Key is the field name; fields of nested maps are joined with dots.
	Key string
	// Was is the kind of the value that was replaced.
	Was Kind
	// With is the placeholder text stored in its place.
	With string
}

// TablePlaceholder returns the text that replaces a record table during
// the named conversion.
func TablePlaceholder(conversion string) string {
	return fmt.Sprintf("Recarray deleted in %s conversion", conversion)
}

// Coerce returns a copy of f with the same keys, in the same order, in
// which every missing value is replaced by NoValue and every record table
// by TablePlaceholder(conversion). Nested maps are coerced recursively.
// Coerce never fails; the replacements it made are returned in order.
func Coerce(f *Fields, conversion string) (*Fields, []Replacement) {
	var r []Replacement
	return coerce(f, conversion, "", &r), r
}

func coerce(f *Fields, conversion, prefix string, r *[]Replacement) *Fields {
	o := NewFields()
	for _, k := range f.Keys() {
		v, _ := f.Get(k)
		switch v.Kind() {
		case Missing:
			*r = append(*r, Replacement{Key: prefix + k, Was: Missing, With: NoValue})
			o.Set(k, StringValue(NoValue))
		case Table:
			p := TablePlaceholder(conversion)
			*r = append(*r, Replacement{Key: prefix + k, Was: Table, With: p})
			o.Set(k, StringValue(p))
		case Map:
			o.Set(k, Value{kind: Map, m: coerce(v.Fields(), conversion, prefix+k+".", r)})
		default:
			o.Set(k, v.Copy())
		}
	}
	return o
}
