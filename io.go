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
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spatialmodel/stmpy/matfile"
)

// Loaded is a variable imported by LoadMAT.
type Loaded struct {
	Name string
	// Raw is the value as stored.
	Raw matfile.Value
	// Fields holds the fields of the first element of a structure
	// variable, or nil if the variable was not unpacked.
	Fields *TargetDict
}

// LoadMAT imports the variables of the MAT-file at path, in file order.
// Variables whose names start with "__" are skipped with a
// ReservedSkipped diagnostic. A structure variable with at least one
// element is unpacked into Fields; a structure without elements is kept
// raw with an UnpackFallback diagnostic.
func LoadMAT(path string) ([]Loaded, Diagnostics, error) {
	vars, err := matfile.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var d Diagnostics
	var out []Loaded
	for _, v := range vars {
		if matfile.IsReserved(v.Name) {
			d.add(ReservedSkipped, v.Name, "skipped reserved variable")
			continue
		}
		l := Loaded{Name: v.Name, Raw: v.Value}
		if s, ok := v.Value.(*matfile.Struct); ok {
			if unpackable(s) {
				l.Fields = targetFromStruct(s)
			} else {
				d.add(UnpackFallback, v.Name, "structure %s has no elements to unpack; kept as stored", matfile.Describe(s))
			}
		}
		out = append(out, l)
	}
	return out, d, nil
}

// unpackable reports whether the fields of the first element of s can be
// read.
func unpackable(s *matfile.Struct) bool {
	if len(s.Elems) == 0 || len(s.Elems[0]) != len(s.Fields) {
		return false
	}
	for _, f := range s.Fields {
		if f == "" {
			return false
		}
	}
	return true
}

// ReadTarget reads the target fields of a record from the MAT-file at
// path. If name is empty, every imported top-level variable is a field;
// otherwise the fields are those of the structure variable name.
func ReadTarget(path, name string) (*TargetDict, Diagnostics, error) {
	loaded, d, err := LoadMAT(path)
	if err != nil {
		return nil, d, err
	}
	t := NewTargetDict()
	if name == "" {
		for _, l := range loaded {
			t.Set(l.Name, l.Raw)
		}
		return t, d, nil
	}
	for _, l := range loaded {
		if l.Name != name {
			continue
		}
		if l.Fields == nil {
			return nil, d, fmt.Errorf("%w: variable %s is %s, want a structure", ErrFieldKind, name, describe(l.Raw))
		}
		return l.Fields, d, nil
	}
	return nil, d, fmt.Errorf("stmpy: %s has no variable %q", path, name)
}

// SaveOptions control how SaveMAT writes a record.
type SaveOptions struct {
	Compress  bool
	StructVar bool
}

// DefaultVar names the structure variable of a record that has no Var.
const DefaultVar = "stm"

// VarName returns s as a valid MATLAB variable name: characters other
// than letters, digits and underscores become underscores, a leading
// non-letter gets a "v" prefix, and the result is at most 63 bytes long.
func VarName(s string) string {
	if s == "" {
		return DefaultVar
	}
	b := []byte(s)
	for i, c := range b {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			b[i] = '_'
		}
	}
	if !(b[0] >= 'a' && b[0] <= 'z' || b[0] >= 'A' && b[0] <= 'Z') {
		b = append([]byte("v"), b...)
	}
	if len(b) > 63 {
		b = b[:63]
	}
	return string(b)
}

// SaveMAT writes r to a MAT-file at path, either as one variable per
// target field or, with StructVar, as one structure variable. The file
// appears only once it is complete.
func SaveMAT(path string, r *Record, opts SaveOptions) (Diagnostics, error) {
	t, err := r.Target()
	if err != nil {
		return nil, err
	}
	vars := t.Vars()
	if opts.StructVar {
		s, err := t.Struct()
		if err != nil {
			return nil, err
		}
		vars = []matfile.Var{{Name: VarName(r.Var), Value: s}}
	}
	err = writeAtomic(path, func(f *os.File) error {
		w := bufio.NewWriter(f)
		if err := matfile.Write(w, vars, matfile.WriteOptions{Compress: opts.Compress}); err != nil {
			return err
		}
		return w.Flush()
	})
	if err != nil {
		return nil, err
	}
	var d Diagnostics
	d.add(AxisPermutation, FieldMap,
		"map is stored as [x, y, energy]; move the last axis to the front for energy-first order, e.g. permute(A.map, [3,1,2]) in MATLAB")
	return d, nil
}

// writeAtomic calls write on a temporary file in the directory of path
// and renames it to path if write succeeds. Otherwise the temporary file
// is removed and path is left untouched.
func writeAtomic(path string, write func(*os.File) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("stmpy: %v", err)
	}
	tmp := f.Name()
	if err := f.Chmod(0644); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("stmpy: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stmpy: %v", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("stmpy: %v", err)
	}
	return nil
}
