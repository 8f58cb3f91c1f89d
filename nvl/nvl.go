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

// Package nvl reads and writes the source-side measurement record: a
// spectroscopic map with its energy axis, averaged spectrum and two
// metadata groups.
//
// Records are stored in NetCDF classic files. The map is the variable
// "data" with dimensions (energy, x, y), the energy axis is "en" and the
// averaged spectrum is "averageSpectrum". Each metadata group ("info" and
// "header") is a scalar variable whose attributes hold the entries in
// order:
//
//	CHAR              string
//	DOUBLE, FLOAT...  number (one element) or array
//	empty BYTE        missing value
//	empty INT         reference to the variable <group>.<key>
//
// A referenced variable is either a nested group, laid out the same way,
// or a record table: a two-dimensional DOUBLE variable with a "columns"
// attribute listing the comma-separated column names.
package nvl

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/stmpy/meta"
)

// ErrLayout is returned for a container or record that does not have the
// required layout.
var ErrLayout = errors.New("nvl: invalid layout")

// Variable names.
const (
	DataVar            = "data"
	EnergyVar          = "en"
	AverageSpectrumVar = "averageSpectrum"
	InfoVar            = "info"
	HeaderVar          = "header"
	columnsAttr        = "columns"
)

// File is a source-side measurement record.
type File struct {
	// Data is the map, energy axis first.
	Data *sparse.DenseArray
	// En is the energy axis; its length equals the first dimension of Data.
	En []float64
	// AverageSpectrum is the spatially averaged spectrum.
	AverageSpectrum []float64
	// Info and Header are the metadata groups.
	Info, Header *meta.Fields
}

// Open reads the record stored at path.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("nvl: %v", err)
	}
	defer f.Close()
	r, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Read reads a record from rw.
func Read(rw cdf.ReaderWriterAt) (*File, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("nvl: opening container: %v", err)
	}
	if !hasVar(f.Header, DataVar) {
		return nil, fmt.Errorf("%w: no %s variable", ErrLayout, DataVar)
	}
	o := new(File)
	shape := append([]int{}, f.Header.Lengths(DataVar)...)
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: %s is a scalar", ErrLayout, DataVar)
	}
	d, err := readFloats(f, DataVar)
	if err != nil {
		return nil, err
	}
	o.Data = sparse.ZerosDense(shape...)
	copy(o.Data.Elements, d)

	if hasVar(f.Header, EnergyVar) {
		if o.En, err = readFloats(f, EnergyVar); err != nil {
			return nil, err
		}
		if len(o.En) != shape[0] {
			return nil, fmt.Errorf("%w: %d energies for %d map layers", ErrLayout, len(o.En), shape[0])
		}
	}
	if hasVar(f.Header, AverageSpectrumVar) {
		if o.AverageSpectrum, err = readFloats(f, AverageSpectrumVar); err != nil {
			return nil, err
		}
	}
	if o.Info, err = readGroup(f, InfoVar); err != nil {
		return nil, err
	}
	if o.Header, err = readGroup(f, HeaderVar); err != nil {
		return nil, err
	}
	return o, nil
}

func hasVar(h *cdf.Header, name string) bool {
	for _, v := range h.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readFloats reads the whole of variable v as float64.
func readFloats(f *cdf.File, v string) ([]float64, error) {
	n := 1
	for _, l := range f.Header.Lengths(v) {
		n *= l
	}
	if n == 0 {
		return []float64{}, nil
	}
	buf := f.Header.ZeroValue(v, n)
	r := f.Reader(v, nil, nil)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("nvl: reading %s: %v", v, err)
	}
	return toFloats(buf)
}

func toFloats(val interface{}) ([]float64, error) {
	switch x := val.(type) {
	case []float64:
		return append([]float64{}, x...), nil
	case []float32:
		o := make([]float64, len(x))
		for i, v := range x {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(x))
		for i, v := range x {
			o[i] = float64(v)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(x))
		for i, v := range x {
			o[i] = float64(v)
		}
		return o, nil
	case []uint8:
		o := make([]float64, len(x))
		for i, v := range x {
			o[i] = float64(v)
		}
		return o, nil
	}
	return nil, fmt.Errorf("%w: unsupported data type %T", ErrLayout, val)
}

// readGroup reads the metadata group carried by variable name. A missing
// group is empty.
func readGroup(f *cdf.File, name string) (*meta.Fields, error) {
	g := meta.NewFields()
	if !hasVar(f.Header, name) {
		return g, nil
	}
	for _, a := range f.Header.Attributes(name) {
		val := f.Header.GetAttribute(name, a)
		switch x := val.(type) {
		case string:
			g.Set(a, meta.StringValue(x))
		case []uint8:
			if len(x) == 0 {
				g.Set(a, meta.MissingValue())
				continue
			}
			fl, _ := toFloats(x)
			g.Set(a, number(fl))
		case []int32:
			if len(x) > 0 {
				fl, _ := toFloats(x)
				g.Set(a, number(fl))
				continue
			}
			v, err := readReference(f, name+"."+a)
			if err != nil {
				return nil, err
			}
			g.Set(a, v)
		default:
			fl, err := toFloats(x)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, a, err)
			}
			g.Set(a, number(fl))
		}
	}
	return g, nil
}

func number(f []float64) meta.Value {
	if len(f) == 1 {
		return meta.NumberValue(f[0])
	}
	return meta.ArrayValue(f)
}

func readReference(f *cdf.File, name string) (meta.Value, error) {
	if !hasVar(f.Header, name) {
		return meta.Value{}, fmt.Errorf("%w: reference to missing variable %s", ErrLayout, name)
	}
	// Group carriers are INT variables; tables are DOUBLE.
	if _, ok := f.Header.ZeroValue(name, 0).([]float64); !ok {
		g, err := readGroup(f, name)
		if err != nil {
			return meta.Value{}, err
		}
		return meta.MapValue(g), nil
	}
	cols, _ := f.Header.GetAttribute(name, columnsAttr).(string)
	var columns []string
	if cols != "" {
		columns = strings.Split(cols, ",")
	}
	l := f.Header.Lengths(name)
	if len(l) != 2 {
		return meta.TableValue(columns, nil), nil
	}
	d, err := readFloats(f, name)
	if err != nil {
		return meta.Value{}, err
	}
	rows := make([][]float64, l[0])
	for i := range rows {
		rows[i] = d[i*l[1] : (i+1)*l[1]]
	}
	return meta.TableValue(columns, rows), nil
}
