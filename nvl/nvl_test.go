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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/stmpy/meta"
)

func testFile() *File {
	d := sparse.ZerosDense(3, 2, 4)
	for i := range d.Elements {
		d.Elements[i] = float64(i) * 0.5
	}
	sub := meta.NewFields()
	sub.Set("gain", meta.NumberValue(9))
	sub.Set("unit", meta.StringValue("V"))

	info := meta.NewFields()
	info.Set("FILENAME", meta.StringValue("scan_001.nvl"))
	info.Set("BIAS", meta.MissingValue())
	info.Set("SETPOINT", meta.NumberValue(1e-10))
	info.Set("COMMENT", meta.StringValue(""))
	info.Set("LOCKIN", meta.MapValue(sub))
	info.Set("SWEEP", meta.TableValue([]string{"t", "v"}, [][]float64{{0, -1}, {1, 1}, {2, 3}}))
	info.Set("EMPTY", meta.TableValue([]string{"a"}, nil))
	info.Set("OFFSETS", meta.ArrayValue([]float64{1, 2, 3}))

	header := meta.NewFields()
	header.Set("instrument", meta.StringValue("STM-1"))

	return &File{
		Data:            d,
		En:              []float64{-0.1, 0, 0.1},
		AverageSpectrum: []float64{1, 2, 3},
		Info:            info,
		Header:          header,
	}
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.nvl")
	want := testFile()
	if err := Create(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Data.Shape, want.Data.Shape) {
		t.Errorf("shape = %v, want %v", got.Data.Shape, want.Data.Shape)
	}
	if !reflect.DeepEqual(got.Data.Elements, want.Data.Elements) {
		t.Errorf("data = %v, want %v", got.Data.Elements, want.Data.Elements)
	}
	if !reflect.DeepEqual(got.En, want.En) {
		t.Errorf("en = %v, want %v", got.En, want.En)
	}
	if !reflect.DeepEqual(got.AverageSpectrum, want.AverageSpectrum) {
		t.Errorf("averageSpectrum = %v, want %v", got.AverageSpectrum, want.AverageSpectrum)
	}
	if !got.Info.Equal(want.Info) {
		t.Errorf("info = %v, want %v", got.Info, want.Info)
	}
	if !got.Header.Equal(want.Header) {
		t.Errorf("header = %v, want %v", got.Header, want.Header)
	}
}

func TestWriteInvalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]*File{
		"no data":      {},
		"energy count": {Data: sparse.ZerosDense(2, 2, 2), En: []float64{1}},
		"empty axis":   {Data: sparse.ZerosDense(2, 0, 2)},
		"comma column": {Data: sparse.ZerosDense(1, 1, 1), Info: func() *meta.Fields {
			f := meta.NewFields()
			f.Set("T", meta.TableValue([]string{"a,b"}, [][]float64{{1}}))
			return f
		}()},
	}
	for name, f := range tests {
		t.Run(name, func(t *testing.T) {
			err := Create(filepath.Join(dir, name+".nvl"), f)
			if !errors.Is(err, ErrLayout) {
				t.Errorf("err = %v, want ErrLayout", err)
			}
		})
	}
}

func TestReadNotContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.nvl")
	if err := os.WriteFile(path, []byte("not a container"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected an error")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.nvl")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
