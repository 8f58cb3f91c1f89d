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

package nvl

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/spatialmodel/stmpy/meta"
)

// ncVar is a variable planned for the output container.
type ncVar struct {
	name  string
	dims  []string
	zero  interface{}
	attrs []ncAttr
	data  []float64
}

type ncAttr struct {
	name string
	val  interface{}
}

// layout collects the dimensions and variables of a container before the
// header is defined.
type layout struct {
	dims    []string
	lengths []int
	vars    []*ncVar
}

func (l *layout) dim(name string, n int) error {
	if n <= 0 {
		// A zero length would make the dimension unlimited.
		return fmt.Errorf("%w: dimension %s has length %d", ErrLayout, name, n)
	}
	l.dims = append(l.dims, name)
	l.lengths = append(l.lengths, n)
	return nil
}

// group plans the carrier variable for a metadata group and the
// variables it references.
func (l *layout) group(name string, f *meta.Fields) error {
	v := &ncVar{name: name, zero: []int32{0}}
	l.vars = append(l.vars, v)
	for _, k := range f.Keys() {
		val, _ := f.Get(k)
		switch val.Kind() {
		case meta.String:
			v.attrs = append(v.attrs, ncAttr{k, val.Str()})
		case meta.Number:
			v.attrs = append(v.attrs, ncAttr{k, []float64{val.Num()}})
		case meta.Array:
			v.attrs = append(v.attrs, ncAttr{k, append([]float64{}, val.Floats()...)})
		case meta.Missing:
			v.attrs = append(v.attrs, ncAttr{k, []uint8{}})
		case meta.Map:
			v.attrs = append(v.attrs, ncAttr{k, []int32{}})
			if err := l.group(name+"."+k, val.Fields()); err != nil {
				return err
			}
		case meta.Table:
			v.attrs = append(v.attrs, ncAttr{k, []int32{}})
			if err := l.table(name+"."+k, val.Table()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (l *layout) table(name string, t *meta.RecordTable) error {
	for _, c := range t.Columns {
		if strings.Contains(c, ",") {
			return fmt.Errorf("%w: table %s column %q contains a comma", ErrLayout, name, c)
		}
	}
	attrs := []ncAttr{{columnsAttr, strings.Join(t.Columns, ",")}}
	nrows := len(t.Rows)
	ncols := len(t.Columns)
	if nrows == 0 || ncols == 0 {
		l.vars = append(l.vars, &ncVar{name: name, zero: []float64{0}, attrs: attrs})
		return nil
	}
	rows, cols := name+".rows", name+".cols"
	if err := l.dim(rows, nrows); err != nil {
		return err
	}
	if err := l.dim(cols, ncols); err != nil {
		return err
	}
	data := make([]float64, 0, nrows*ncols)
	for i, r := range t.Rows {
		if len(r) != ncols {
			return fmt.Errorf("%w: table %s row %d has %d values for %d columns", ErrLayout, name, i, len(r), ncols)
		}
		data = append(data, r...)
	}
	l.vars = append(l.vars, &ncVar{name: name, dims: []string{rows, cols}, zero: []float64{0}, attrs: attrs, data: data})
	return nil
}

// Create writes r to a new file at path.
func Create(path string, r *File) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("nvl: %v", err)
	}
	if err := Write(f, r); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("nvl: %v", err)
	}
	return nil
}

// Write writes r to rw as a NetCDF classic container.
func Write(rw cdf.ReaderWriterAt, r *File) error {
	if r.Data == nil || len(r.Data.Shape) == 0 {
		return fmt.Errorf("%w: no map data", ErrLayout)
	}
	shape := r.Data.Shape
	if len(r.En) != 0 && len(r.En) != shape[0] {
		return fmt.Errorf("%w: %d energies for %d map layers", ErrLayout, len(r.En), shape[0])
	}

	l := new(layout)
	dataDims := make([]string, len(shape))
	for i, n := range shape {
		dataDims[i] = axisName(i)
		if err := l.dim(dataDims[i], n); err != nil {
			return err
		}
	}
	// Carrier variables hold no data; they go first so that the data
	// section ends with the last written variable.
	if err := l.group(InfoVar, r.Info); err != nil {
		return err
	}
	if err := l.group(HeaderVar, r.Header); err != nil {
		return err
	}
	if len(r.En) > 0 {
		l.vars = append(l.vars, &ncVar{name: EnergyVar, dims: dataDims[:1], zero: []float64{0},
			attrs: []ncAttr{{"description", "energy axis"}}, data: r.En})
	}
	l.vars = append(l.vars, &ncVar{name: DataVar, dims: dataDims, zero: []float64{0},
		attrs: []ncAttr{{"description", "spectroscopic map"}}, data: r.Data.Elements})
	if len(r.AverageSpectrum) > 0 {
		if err := l.dim("spectrum", len(r.AverageSpectrum)); err != nil {
			return err
		}
		l.vars = append(l.vars, &ncVar{name: AverageSpectrumVar, dims: []string{"spectrum"}, zero: []float64{0},
			attrs: []ncAttr{{"description", "spatially averaged spectrum"}}, data: r.AverageSpectrum})
	}

	h := cdf.NewHeader(l.dims, l.lengths)
	for _, v := range l.vars {
		h.AddVariable(v.name, v.dims, v.zero)
		for _, a := range v.attrs {
			h.AddAttribute(v.name, a.name, a.val)
		}
	}
	h.Define()
	for _, err := range h.Check() {
		return fmt.Errorf("nvl: defining container: %v", err)
	}
	f, err := cdf.Create(rw, h)
	if err != nil {
		return fmt.Errorf("nvl: creating container: %v", err)
	}
	for _, v := range l.vars {
		if v.data == nil {
			continue
		}
		w := f.Writer(v.name, nil, nil)
		if _, err := w.Write(v.data); err != nil {
			return fmt.Errorf("nvl: writing %s: %v", v.name, err)
		}
	}
	return nil
}

func axisName(i int) string {
	switch i {
	case 0:
		return "energy"
	case 1:
		return "x"
	case 2:
		return "y"
	}
	return fmt.Sprintf("axis%d", i)
}
