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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/stmpy/matfile"
	"github.com/spatialmodel/stmpy/meta"
	"github.com/spatialmodel/stmpy/nvl"
)

// testSource returns a 3-layer, 2×4 map whose elements are all distinct.
func testSource() *nvl.File {
	d := sparse.ZerosDense(3, 2, 4)
	for i := range d.Elements {
		d.Elements[i] = float64(i + 1)
	}
	lockin := meta.NewFields()
	lockin.Set("amplitude", meta.NumberValue(0.005))
	lockin.Set("mode", meta.StringValue("internal"))

	info := meta.NewFields()
	info.Set("FILENAME", meta.StringValue("scan_001.nvl"))
	info.Set("BIAS", meta.MissingValue())
	info.Set("SETPOINT", meta.NumberValue(1e-10))
	info.Set("SWEEP", meta.TableValue([]string{"t", "v"}, [][]float64{{0, 1}}))
	info.Set("OFFSETS", meta.ArrayValue([]float64{1, 2, 3}))
	info.Set("LOCKIN", meta.MapValue(lockin))

	header := meta.NewFields()
	header.Set("instrument", meta.StringValue("STM-1"))
	header.Set("temperature", meta.NumberValue(4.2))

	return &nvl.File{
		Data:            d,
		En:              []float64{-0.1, 0, 0.1},
		AverageSpectrum: []float64{5, 6, 7},
		Info:            info,
		Header:          header,
	}
}

func TestNewRecord(t *testing.T) {
	src := testSource()
	r, d, err := NewRecord(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Name != "scan_001.nvl" || r.Var != r.Name {
		t.Errorf("name = %q, var = %q", r.Name, r.Var)
	}
	if r.CoordType != RealSpace {
		t.Errorf("coord type = %v", r.CoordType)
	}
	if !reflect.DeepEqual(r.Ops, []string{OpNVL2MAT}) {
		t.Errorf("ops = %v", r.Ops)
	}
	if !r.Info.Canonical() || !r.Header.Canonical() {
		t.Errorf("metadata not canonical: %v %v", r.Info, r.Header)
	}
	if v, _ := r.Info.Get("SWEEP"); v.Str() != "Recarray deleted in NVL to MAT conversion" {
		t.Errorf("SWEEP = %v", v)
	}
	if v, _ := r.Info.Get("BIAS"); v.Str() != meta.NoValue {
		t.Errorf("BIAS = %v", v)
	}
	if !reflect.DeepEqual(r.Info.Keys(), src.Info.Keys()) {
		t.Errorf("info keys = %v, want %v", r.Info.Keys(), src.Info.Keys())
	}

	want := Diagnostics{
		{Kind: MissingValue, Key: "info.BIAS", Message: `replaced missing value with "No value"`},
		{Kind: RecarrayDeleted, Key: "info.SWEEP", Message: "deleted because of record array type"},
		{Kind: AssumedCoordSpace, Key: FieldCoordType,
			Message: "assumed the map is in real space; set the coordinate space to k if it is in reciprocal space"},
	}
	if diff := pretty.Diff(d, want); len(diff) != 0 {
		t.Errorf("diagnostics: %v", diff)
	}

	// The record does not share memory with the source.
	src.Data.Elements[0] = -1
	src.En[0] = -1
	if r.Map.Elements[0] == -1 || r.En[0] == -1 {
		t.Error("record aliases the source arrays")
	}
}

func TestNewRecordCoordSpace(t *testing.T) {
	r, d, err := NewRecord(testSource(), Options{CoordSpace: ReciprocalSpace})
	if err != nil {
		t.Fatal(err)
	}
	if r.CoordType != ReciprocalSpace || d.Has(AssumedCoordSpace) {
		t.Errorf("coord type = %v, diagnostics = %v", r.CoordType, d)
	}
	if _, _, err := NewRecord(testSource(), Options{CoordSpace: 'x'}); !errors.Is(err, ErrCoordSpace) {
		t.Errorf("err = %v, want ErrCoordSpace", err)
	}
}

func TestMissingFilename(t *testing.T) {
	for name, fn := range map[string]func(*meta.Fields){
		"absent":  func(f *meta.Fields) { f.Delete("FILENAME") },
		"missing": func(f *meta.Fields) { f.Set("FILENAME", meta.MissingValue()) },
	} {
		t.Run(name, func(t *testing.T) {
			src := testSource()
			fn(src.Info)
			if _, _, err := NewRecord(src, Options{}); !errors.Is(err, ErrMissingFilename) {
				t.Errorf("err = %v, want ErrMissingFilename", err)
			}

			dir := t.TempDir()
			in := filepath.Join(dir, "in.nvl")
			out := filepath.Join(dir, "out.mat")
			if err := nvl.Create(in, src); err != nil {
				t.Fatal(err)
			}
			if _, _, err := Convert(in, out, Options{}); !errors.Is(err, ErrMissingFilename) {
				t.Errorf("Convert err = %v, want ErrMissingFilename", err)
			}
			if _, err := os.Stat(out); !os.IsNotExist(err) {
				t.Errorf("output file exists after failed conversion: %v", err)
			}
		})
	}
}

func TestOpsLog(t *testing.T) {
	r, _, err := NewRecord(testSource(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	before := len(r.Ops)
	r.AddOp("quickFT")
	if len(r.Ops) != before+1 || r.Ops[len(r.Ops)-1] != "quickFT" {
		t.Errorf("ops = %v", r.Ops)
	}
}

func TestTargetLayout(t *testing.T) {
	r, _, err := NewRecord(testSource(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	td, err := r.Target()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"ops", "map", "e", "ave", "info", "header", "coord_type", "name", "var"}
	if !reflect.DeepEqual(td.Keys(), want) {
		t.Fatalf("keys = %v, want %v", td.Keys(), want)
	}
	kinds := map[string]FieldKind{
		"ops": CellLike, "map": RawArray, "e": RawArray, "ave": RawArray,
		"info": StructLike, "header": StructLike,
		"coord_type": StringField, "name": StringField, "var": StringField,
	}
	for k, kind := range kinds {
		v, _ := td.Get(k)
		if got := Classify(v); got != kind {
			t.Errorf("%s: kind %v, want %v", k, got, kind)
		}
	}
	m, _ := td.Get("map")
	if d := m.Dims(); !reflect.DeepEqual(d, []int{2, 4, 3}) {
		t.Errorf("map dims = %v, want [2 4 3]", d)
	}
	info, _ := td.Get("info")
	if f := info.(*matfile.Struct).Fields; !reflect.DeepEqual(f, r.Info.Keys()) {
		t.Errorf("info fields = %v", f)
	}
}

func TestRoundTrip(t *testing.T) {
	src := testSource()
	r, _, err := NewRecord(src, Options{})
	if err != nil {
		t.Fatal(err)
	}
	td, err := r.Target()
	if err != nil {
		t.Fatal(err)
	}
	back, _, err := FromTarget(td)
	if err != nil {
		t.Fatal(err)
	}
	checkRoundTrip(t, r, back)
}

func checkRoundTrip(t *testing.T, r, back *Record) {
	t.Helper()
	if !reflect.DeepEqual(back.Map.Shape, r.Map.Shape) {
		t.Errorf("shape = %v, want %v", back.Map.Shape, r.Map.Shape)
	}
	if !reflect.DeepEqual(back.Map.Elements, r.Map.Elements) {
		t.Errorf("map = %v, want %v", back.Map.Elements, r.Map.Elements)
	}
	if !reflect.DeepEqual(back.En, r.En) || !reflect.DeepEqual(back.Ave, r.Ave) {
		t.Errorf("en = %v, ave = %v", back.En, back.Ave)
	}
	if !back.Info.Equal(r.Info) {
		t.Errorf("info = %v, want %v", back.Info, r.Info)
	}
	if !back.Header.Equal(r.Header) {
		t.Errorf("header = %v, want %v", back.Header, r.Header)
	}
	if back.Name != r.Name || back.Var != r.Var || back.CoordType != r.CoordType {
		t.Errorf("name %q var %q coord %v", back.Name, back.Var, back.CoordType)
	}
	if want := append(append([]string{}, r.Ops...), OpMAT2NVL); !reflect.DeepEqual(back.Ops, want) {
		t.Errorf("ops = %v, want %v", back.Ops, want)
	}
	if back.Extra.Len() != 0 {
		t.Errorf("extra = %v", back.Extra.Keys())
	}
}

func TestConvertFiles(t *testing.T) {
	for _, opts := range []Options{{}, {Compress: true}, {StructVar: true, CoordSpace: ReciprocalSpace}} {
		dir := t.TempDir()
		in := filepath.Join(dir, "scan.nvl")
		out := filepath.Join(dir, "scan.mat")
		again := filepath.Join(dir, "again.nvl")
		if err := nvl.Create(in, testSource()); err != nil {
			t.Fatal(err)
		}
		r, d, err := Convert(in, out, opts)
		if err != nil {
			t.Fatal(err)
		}
		if !d.Has(AxisPermutation) {
			t.Errorf("%+v: no axis permutation notice in %v", opts, d)
		}
		varName := ""
		if opts.StructVar {
			varName = VarName(r.Var)
		}
		back, _, err := ConvertBack(out, again, varName)
		if err != nil {
			t.Fatal(err)
		}
		checkRoundTrip(t, r, back)

		f, err := nvl.Open(again)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(f.Data.Elements, r.Map.Elements) {
			t.Errorf("%+v: written map = %v", opts, f.Data.Elements)
		}
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.mat")
	err := writeAtomic(path, func(f *os.File) error {
		_, err := f.WriteString("first")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", fi.Mode().Perm())
	}

	failed := errors.New("write failed")
	if err := writeAtomic(path, func(*os.File) error { return failed }); !errors.Is(err, failed) {
		t.Errorf("err = %v, want %v", err, failed)
	}
	if b, _ := os.ReadFile(path); string(b) != "first" {
		t.Errorf("contents = %q after a failed write", b)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 1 {
		t.Errorf("%d files in directory, want 1", len(entries))
	}

	if err := writeAtomic(filepath.Join(dir, "missing", "out.mat"), func(*os.File) error { return nil }); err == nil {
		t.Error("write into a missing directory succeeded")
	}
}

func TestAxisPermutation(t *testing.T) {
	const I, J, E = 2, 3, 4
	stored := make([]float64, I*J*E)
	for i := range stored {
		stored[i] = float64(i)
	}
	td := NewTargetDict()
	td.Set("map", matfile.NewDouble([]int{I, J, E}, stored))
	r, _, err := FromTarget(td)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.Map.Shape, []int{E, I, J}) {
		t.Fatalf("shape = %v, want [%d %d %d]", r.Map.Shape, E, I, J)
	}
	for e := 0; e < E; e++ {
		for i := 0; i < I; i++ {
			for j := 0; j < J; j++ {
				if got, want := r.Map.Get(e, i, j), stored[(i*J+j)*E+e]; got != want {
					t.Errorf("(%d,%d,%d) = %v, want %v", e, i, j, got, want)
				}
			}
		}
	}
}

func TestPermuteRanks(t *testing.T) {
	a := sparse.ZerosDense(2, 3)
	for i := range a.Elements {
		a.Elements[i] = float64(i)
	}
	b, err := ToEnergyFirst(a)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(b.Shape, []int{3, 2}) || !reflect.DeepEqual(b.Elements, []float64{0, 3, 1, 4, 2, 5}) {
		t.Errorf("2-D: %v %v", b.Shape, b.Elements)
	}

	c := sparse.ZerosDense(2, 3, 4, 5)
	for i := range c.Elements {
		c.Elements[i] = float64(i)
	}
	last, err := ToEnergyLast(c)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(last.Shape, []int{3, 4, 5, 2}) {
		t.Errorf("4-D shape = %v", last.Shape)
	}
	if got, want := last.Get(1, 2, 3, 1), c.Get(1, 1, 2, 3); got != want {
		t.Errorf("4-D element = %v, want %v", got, want)
	}
	first, err := ToEnergyFirst(last)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Elements, c.Elements) || !reflect.DeepEqual(first.Shape, c.Shape) {
		t.Error("4-D rotation is not inverted")
	}

	if _, err := ToEnergyFirst(sparse.ZerosDense(4)); !errors.Is(err, ErrRank) {
		t.Errorf("1-D: err = %v, want ErrRank", err)
	}
}

func TestFromTargetErrors(t *testing.T) {
	mapVal := matfile.NewDouble([]int{1, 1, 1}, []float64{1})
	tests := map[string]struct {
		fields []matfile.Var
		err    error
	}{
		"no map":       {[]matfile.Var{{Name: "e", Value: matfile.RowVector([]float64{1})}}, ErrMissingMap},
		"info string":  {[]matfile.Var{{Name: "map", Value: mapVal}, {Name: "info", Value: matfile.NewChar("x")}}, ErrFieldKind},
		"info numeric": {[]matfile.Var{{Name: "map", Value: mapVal}, {Name: "info", Value: matfile.Scalar(1)}}, ErrFieldKind},
		"ops numeric":  {[]matfile.Var{{Name: "map", Value: mapVal}, {Name: "ops", Value: matfile.Scalar(1)}}, ErrFieldKind},
		"bad coord":    {[]matfile.Var{{Name: "map", Value: mapVal}, {Name: "coord_type", Value: matfile.NewChar("q")}}, ErrCoordSpace},
		"flat map":     {[]matfile.Var{{Name: "map", Value: &matfile.Numeric{ArrayClass: matfile.DoubleClass, Shape: []int{1, 1}, Real: []float64{1}}}}, nil},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			td := NewTargetDict()
			for _, v := range tc.fields {
				td.Set(v.Name, v.Value)
			}
			_, _, err := FromTarget(td)
			if tc.err == nil {
				if err != nil {
					t.Errorf("err = %v", err)
				}
				return
			}
			if !errors.Is(err, tc.err) {
				t.Errorf("err = %v, want %v", err, tc.err)
			}
		})
	}
}

func TestExtraFields(t *testing.T) {
	r, _, err := NewRecord(testSource(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	td, err := r.Target()
	if err != nil {
		t.Fatal(err)
	}
	td.Set("comment", matfile.NewChar("by hand"))
	td.Set("mask", matfile.NewDouble([]int{2, 2}, []float64{1, 0, 0, 1}))
	back, _, err := FromTarget(td)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back.Extra.Keys(), []string{"comment", "mask"}) {
		t.Fatalf("extra = %v", back.Extra.Keys())
	}
	td2, err := back.Target()
	if err != nil {
		t.Fatal(err)
	}
	if got := td2.Keys(); got[len(got)-2] != "comment" || got[len(got)-1] != "mask" {
		t.Errorf("extra fields not written last: %v", got)
	}
}

func TestComplexValues(t *testing.T) {
	r, _, err := NewRecord(testSource(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	td, err := r.Target()
	if err != nil {
		t.Fatal(err)
	}
	v, _ := td.Get(FieldMap)
	m := v.(*matfile.Numeric)
	m.Imag = make([]float64, len(m.Real))
	info, err := matfile.NewStruct([]string{"FILENAME", "GAIN"}, []matfile.Value{
		matfile.NewChar("scan_001.nvl"),
		&matfile.Numeric{Shape: []int{1, 2}, Real: []float64{1, 2}, Imag: []float64{0.5, 0}},
	})
	if err != nil {
		t.Fatal(err)
	}
	td.Set(FieldInfo, info)

	back, d, err := FromTarget(td)
	if err != nil {
		t.Fatal(err)
	}
	var keys []string
	for _, x := range d {
		if x.Kind == UnsupportedValue {
			keys = append(keys, x.Key)
		}
	}
	if want := []string{FieldMap, "info.GAIN"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("unsupported-value keys = %v, want %v", keys, want)
	}
	if !reflect.DeepEqual(back.Map.Elements, r.Map.Elements) {
		t.Errorf("map = %v", back.Map.Elements)
	}
	if g, _ := back.Info.Get("GAIN"); !g.Equal(meta.ArrayValue([]float64{1, 2})) {
		t.Errorf("GAIN = %v", g)
	}
}

func TestFormatOrder(t *testing.T) {
	f := meta.NewFields()
	for _, k := range []string{"zeta", "alpha", "mid", "beta"} {
		f.Set(k, meta.StringValue(k))
	}
	s, err := FormatStruct(f)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(s.Fields, f.Keys()) || !reflect.DeepEqual(s.Dims(), []int{1, 1}) {
		t.Errorf("struct fields = %v, dims = %v", s.Fields, s.Dims())
	}

	seq := []meta.Value{meta.StringValue("c"), meta.NumberValue(2), meta.StringValue("a")}
	c, err := FormatCell(seq)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c.Dims(), []int{1, 3}) {
		t.Errorf("cell dims = %v", c.Dims())
	}
	if c.Elems[0].(*matfile.Char).String() != "c" || c.Elems[2].(*matfile.Char).String() != "a" ||
		c.Elems[1].(*matfile.Numeric).Real[0] != 2 {
		t.Errorf("cell order: %# v", pretty.Formatter(c.Elems))
	}

	bad := meta.NewFields()
	bad.Set("x", meta.MissingValue())
	if _, err := FormatStruct(bad); !errors.Is(err, ErrFieldKind) {
		t.Errorf("missing value: err = %v, want ErrFieldKind", err)
	}
}

func TestLoadMAT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.mat")
	s, _ := matfile.NewStruct([]string{"a", "b"}, []matfile.Value{matfile.Scalar(1), matfile.NewChar("two")})
	empty := &matfile.Struct{Shape: []int{0, 0}, Fields: []string{"a"}}
	vars := []matfile.Var{
		{Name: "temperature", Value: matfile.RowVector([]float64{1, 2, 3})},
		{Name: "s", Value: s},
		{Name: "none", Value: empty},
	}
	if err := matfile.WriteFile(path, vars, matfile.WriteOptions{}); err != nil {
		t.Fatal(err)
	}
	loaded, d, err := LoadMAT(path)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, l := range loaded {
		names = append(names, l.Name)
	}
	if !reflect.DeepEqual(names, []string{"temperature", "s", "none"}) {
		t.Fatalf("names = %v", names)
	}
	if n := loaded[0].Raw.(*matfile.Numeric); !reflect.DeepEqual(n.Real, []float64{1, 2, 3}) || loaded[0].Fields != nil {
		t.Errorf("temperature = %v", n.Real)
	}
	if f := loaded[1].Fields; f == nil || !reflect.DeepEqual(f.Keys(), []string{"a", "b"}) {
		t.Errorf("s fields = %v", f.Keys())
	}
	if loaded[2].Fields != nil {
		t.Error("empty structure was unpacked")
	}

	var skipped []string
	for _, x := range d {
		if x.Kind == ReservedSkipped {
			skipped = append(skipped, x.Key)
		}
	}
	if !reflect.DeepEqual(skipped, []string{"__header__", "__version__", "__globals__"}) {
		t.Errorf("skipped = %v", skipped)
	}
	if !d.Has(UnpackFallback) {
		t.Errorf("no unpack fallback in %v", d)
	}
}

func TestDiagnosticsLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	d := Diagnostics{
		{Kind: RecarrayDeleted, Key: "info.SWEEP", Message: "deleted"},
		{Kind: AssumedCoordSpace, Key: "coord_type", Message: "assumed"},
	}
	d.Log(logger)
	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("%d entries", len(entries))
	}
	if entries[0].Level != logrus.WarnLevel || entries[0].Data["kind"] != "recarray-deleted" {
		t.Errorf("entry 0 = %v %v", entries[0].Level, entries[0].Data)
	}
	if entries[1].Level != logrus.InfoLevel || entries[1].Message != "assumed" {
		t.Errorf("entry 1 = %v %q", entries[1].Level, entries[1].Message)
	}
}

func TestVarName(t *testing.T) {
	tests := map[string]string{
		"scan_001.nvl": "scan_001_nvl",
		"001":          "v001",
		"":             DefaultVar,
		"ok":           "ok",
	}
	for in, want := range tests {
		if got := VarName(in); got != want {
			t.Errorf("VarName(%q) = %q, want %q", in, got, want)
		}
	}
}
