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

package matfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Var is a named variable of a MAT-file.
type Var struct {
	Name   string
	Value  Value
	Global bool
}

// Names of the reserved variables that ReadFile reports before the
// stored ones. They describe the file rather than hold user data.
const (
	HeaderVar  = "__header__"
	VersionVar = "__version__"
	GlobalsVar = "__globals__"
)

// ReadFile reads every variable of the MAT-file at path. The result
// starts with the reserved variables HeaderVar (the descriptive text),
// VersionVar (the format version as a string such as "1.0") and
// GlobalsVar (a cell array of the names of global variables), followed
// by the stored variables in file order.
func ReadFile(path string) ([]Var, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("matfile: %v", err)
	}
	defer f.Close()
	d, err := NewDecoder(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var stored []Var
	var globals []Value
	for {
		v, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if v.Global {
			globals = append(globals, NewChar(v.Name))
		}
		stored = append(stored, v)
	}
	vars := []Var{
		{Name: HeaderVar, Value: NewChar(d.Description)},
		{Name: VersionVar, Value: NewChar(fmt.Sprintf("%d.%d", d.Version>>8, d.Version&0xff))},
		{Name: GlobalsVar, Value: NewCell(globals)},
	}
	return append(vars, stored...), nil
}

// WriteOptions control how WriteFile stores variables.
type WriteOptions struct {
	// Compress stores each variable as a zlib-compressed element.
	Compress bool
	// Description replaces the default header text.
	Description string
}

// WriteFile writes vars to a new MAT-file at path, replacing any existing
// file. Reserved variable names (those starting with "__") are not written.
func WriteFile(path string, vars []Var, opts WriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("matfile: %v", err)
	}
	w := bufio.NewWriter(f)
	if err := Write(w, vars, opts); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("matfile: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("matfile: %v", err)
	}
	return nil
}

// Write writes a complete MAT-file holding vars to w.
func Write(w io.Writer, vars []Var, opts WriteOptions) error {
	e := NewEncoder(w)
	e.Compress = opts.Compress
	e.Description = opts.Description
	if err := e.WriteHeader(); err != nil {
		return fmt.Errorf("matfile: %v", err)
	}
	for _, v := range vars {
		if IsReserved(v.Name) {
			continue
		}
		var err error
		if v.Global {
			err = e.EncodeGlobal(v.Name, v.Value)
		} else {
			err = e.Encode(v.Name, v.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// IsReserved reports whether name uses the reserved "__" prefix.
func IsReserved(name string) bool {
	return len(name) >= 2 && name[:2] == "__"
}
