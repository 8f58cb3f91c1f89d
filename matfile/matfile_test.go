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
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, e *Encoder, buf *bytes.Buffer, vars []Var) []Var {
	t.Helper()
	for _, v := range vars {
		var err error
		if v.Global {
			err = e.EncodeGlobal(v.Name, v.Value)
		} else {
			err = e.Encode(v.Name, v.Value)
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	d, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	var out []Var
	for {
		v, err := d.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, v)
	}
	return out
}

func testVars() []Var {
	seq := make([]float64, 24)
	for i := range seq {
		seq[i] = float64(i)
	}
	s, err := NewStruct([]string{"zeta", "alpha", "mid"}, []Value{
		NewChar("last"), Scalar(1), RowVector([]float64{1, 2, 3}),
	})
	if err != nil {
		panic(err)
	}
	return []Var{
		{Name: "cube", Value: NewDouble([]int{2, 3, 4}, seq)},
		{Name: "s", Value: NewChar("héllo")},
		{Name: "rows", Value: NewCharRows([]string{"ab", "cde"})},
		{Name: "info", Value: s},
		{Name: "ops", Value: NewCell([]Value{NewChar("nvl2mat"), NewChar("quickFT"), Scalar(3)})},
		{Name: "i16", Value: &Numeric{ArrayClass: Int16Class, Shape: []int{1, 3}, Real: []float64{-1, 0, 300}}},
		{Name: "z", Value: &Numeric{ArrayClass: DoubleClass, Shape: []int{1, 2}, Real: []float64{1, 2}, Imag: []float64{-1, 0.5}}},
		{Name: "empty", Value: NewChar("")},
		{Name: "g", Value: Scalar(7), Global: true},
	}
}

func TestRoundTrip(t *testing.T) {
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		e := NewEncoder(&buf)
		e.Compress = compress
		e.Description = "test file"
		want := testVars()
		got := roundTrip(t, e, &buf, want)
		if len(got) != len(want) {
			t.Fatalf("compress=%v: %d variables, want %d", compress, len(got), len(want))
		}
		for i := range want {
			if got[i].Name != want[i].Name || got[i].Global != want[i].Global {
				t.Errorf("compress=%v: variable %d is %s (global %v), want %s", compress, i,
					got[i].Name, got[i].Global, want[i].Name)
			}
			if !reflect.DeepEqual(got[i].Value, want[i].Value) {
				t.Errorf("compress=%v: %s = %#v, want %#v", compress, want[i].Name, got[i].Value, want[i].Value)
			}
		}
	}
}

func TestColumnMajor(t *testing.T) {
	if got, want := columnMajor([]int{2, 3}), []int{0, 2, 4, 1, 3, 5}; !reflect.DeepEqual(got, want) {
		t.Errorf("columnMajor = %v, want %v", got, want)
	}
	if got := columnMajor([]int{0, 3}); len(got) != 0 {
		t.Errorf("empty columnMajor = %v", got)
	}
}

// The stored element order of a multi-dimensional array is column-major.
func TestStoredOrder(t *testing.T) {
	seq := make([]float64, 24)
	for i := range seq {
		seq[i] = float64(i)
	}
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := e.Encode("a", NewDouble([]int{2, 3, 4}, seq)); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()[128:]
	er := &elementReader{b: b, order: binary.LittleEndian}
	m, err := er.expect(miMATRIX, "matrix")
	if err != nil {
		t.Fatal(err)
	}
	er = &elementReader{b: m, order: binary.LittleEndian}
	for i := 0; i < 3; i++ { // flags, dims, name
		if _, _, err := er.next(); err != nil {
			t.Fatal(err)
		}
	}
	data, err := er.expect(miDOUBLE, "data")
	if err != nil {
		t.Fatal(err)
	}
	got, _ := decodeNumbers(binary.LittleEndian, miDOUBLE, data)
	want := []float64{0, 12, 4, 16, 8, 20, 1, 13}
	if !reflect.DeepEqual(got[:len(want)], want) {
		t.Errorf("stored order = %v, want prefix %v", got, want)
	}
}

func TestBigEndian(t *testing.T) {
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	e.order = binary.BigEndian
	want := testVars()
	got := roundTrip(t, e, &buf, want)
	if !bytes.Equal(buf.Bytes()[126:128], []byte("MI")) {
		t.Fatalf("endian indicator %q", buf.Bytes()[126:128])
	}
	for i := range want {
		if !reflect.DeepEqual(got[i].Value, want[i].Value) {
			t.Errorf("%s = %#v, want %#v", want[i].Name, got[i].Value, want[i].Value)
		}
	}
}

func TestOpaquePreserved(t *testing.T) {
	payload := make([]byte, 16)
	binary.LittleEndian.PutUint32(payload, miINT32)
	binary.LittleEndian.PutUint32(payload[4:], 8)
	payload[8] = 5
	o := &Opaque{ArrayClass: SparseClass, NzMax: 3, Shape: []int{4, 4}, Payload: payload}
	var buf bytes.Buffer
	got := roundTrip(t, NewEncoder(&buf), &buf, []Var{{Name: "sp", Value: o}})
	if !reflect.DeepEqual(got[0].Value, o) {
		t.Errorf("opaque = %#v, want %#v", got[0].Value, o)
	}
}

func TestFieldNames(t *testing.T) {
	long := string(bytes.Repeat([]byte("f"), 40))
	s, _ := NewStruct([]string{long, "b"}, []Value{Scalar(1), Scalar(2)})
	var buf bytes.Buffer
	got := roundTrip(t, NewEncoder(&buf), &buf, []Var{{Name: "s", Value: s}})
	if !reflect.DeepEqual(got[0].Value.(*Struct).Fields, []string{long, "b"}) {
		t.Errorf("fields = %v", got[0].Value.(*Struct).Fields)
	}

	for _, name := range []string{"", string(bytes.Repeat([]byte("x"), 64))} {
		s, _ := NewStruct([]string{name}, []Value{Scalar(1)})
		err := NewEncoder(io.Discard).Encode("s", s)
		if !errors.Is(err, ErrFieldName) {
			t.Errorf("field %q: err = %v, want ErrFieldName", name, err)
		}
	}
}

func TestMalformed(t *testing.T) {
	if _, err := NewDecoder(bytes.NewReader([]byte("short"))); !errors.Is(err, ErrFormat) {
		t.Errorf("short header: err = %v", err)
	}
	var buf bytes.Buffer
	e := NewEncoder(&buf)
	if err := e.Encode("a", RowVector([]float64{1, 2, 3})); err != nil {
		t.Fatal(err)
	}
	b := buf.Bytes()[:buf.Len()-12]
	d, err := NewDecoder(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Next(); !errors.Is(err, ErrFormat) {
		t.Errorf("truncated element: err = %v", err)
	}
}

// rawVar returns a file holding a single variable of the given class
// and dims, whose array name is followed by body.
func rawVar(t *testing.T, class Class, dims []int32, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := NewEncoder(&buf).WriteHeader(); err != nil {
		t.Fatal(err)
	}
	order := binary.LittleEndian
	var p bytes.Buffer
	af := make([]byte, 8)
	order.PutUint32(af, uint32(class))
	putElement(&p, order, miUINT32, af)
	dd := make([]byte, 4*len(dims))
	for i, x := range dims {
		order.PutUint32(dd[4*i:], uint32(x))
	}
	putElement(&p, order, miINT32, dd)
	putElement(&p, order, miINT8, []byte("v"))
	p.Write(body)
	putElement(&buf, order, miMATRIX, p.Bytes())
	return buf.Bytes()
}

func TestMalformedDims(t *testing.T) {
	const big = 1<<31 - 1
	var names bytes.Buffer
	sl := make([]byte, 4)
	binary.LittleEndian.PutUint32(sl, 8)
	putElement(&names, binary.LittleEndian, miINT32, sl)
	putElement(&names, binary.LittleEndian, miINT8, []byte("a\x00\x00\x00\x00\x00\x00\x00"))
	var none bytes.Buffer
	putElement(&none, binary.LittleEndian, miINT32, sl)
	putElement(&none, binary.LittleEndian, miINT8, nil)

	tests := []struct {
		name  string
		class Class
		dims  []int32
		body  []byte
	}{
		{"huge cell", CellClass, []int32{big, big, big}, nil},
		{"cell larger than its bytes", CellClass, []int32{1000, 1000}, make([]byte, 64)},
		{"huge struct", StructClass, []int32{big, big}, names.Bytes()},
		{"fieldless struct", StructClass, []int32{big, 1}, none.Bytes()},
		{"huge double", DoubleClass, []int32{big, big, big}, nil},
		{"huge char", CharClass, []int32{big, big}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := NewDecoder(bytes.NewReader(rawVar(t, tc.class, tc.dims, tc.body)))
			if err != nil {
				t.Fatal(err)
			}
			if _, err := d.Next(); !errors.Is(err, ErrFormat) {
				t.Errorf("err = %v, want ErrFormat", err)
			}
		})
	}
}

func TestOversizedElement(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).WriteHeader(); err != nil {
		t.Fatal(err)
	}
	var tag [8]byte
	binary.LittleEndian.PutUint32(tag[:4], miMATRIX)
	binary.LittleEndian.PutUint32(tag[4:], 0xfffffff8)
	buf.Write(tag[:])
	buf.Write(make([]byte, 16))
	d, err := NewDecoder(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Next(); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestNumel(t *testing.T) {
	tests := []struct {
		dims []int
		want int
	}{
		{[]int{2, 3, 4}, 24},
		{[]int{0, 1 << 40, 1 << 40}, 0},
		{[]int{1 << 40, 1 << 40}, -1},
		{[]int{3, -1}, -1},
	}
	for _, tc := range tests {
		if got := Numel(tc.dims); got != tc.want {
			t.Errorf("Numel(%v) = %d, want %d", tc.dims, got, tc.want)
		}
	}
}

func TestSupplementaryChars(t *testing.T) {
	want := []Var{
		{Name: "name", Value: NewChar("scan_\U0001F600.nvl")},
		{Name: "rows", Value: NewCharRows([]string{"a\U00010348", "bc"})},
		{Name: "plain", Value: NewChar("Ångström")},
	}
	for _, compress := range []bool{false, true} {
		var buf bytes.Buffer
		e := NewEncoder(&buf)
		e.Compress = compress
		got := roundTrip(t, e, &buf, want)
		for i := range want {
			if !reflect.DeepEqual(got[i].Value, want[i].Value) {
				t.Errorf("compress=%v: %s = %q, want %q", compress, want[i].Name,
					got[i].Value.(*Char).Rows(), want[i].Value.(*Char).Rows())
			}
		}
	}
}

func TestReadWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.mat")
	vars := []Var{
		{Name: "__header__", Value: NewChar("ignored")},
		{Name: "temperature", Value: RowVector([]float64{1, 2, 3})},
		{Name: "g", Value: Scalar(1), Global: true},
	}
	if err := WriteFile(path, vars, WriteOptions{Compress: true, Description: "hello"}); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, v := range got {
		names = append(names, v.Name)
	}
	if want := []string{HeaderVar, VersionVar, GlobalsVar, "temperature", "g"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	if s := got[0].Value.(*Char).String(); s != "hello" {
		t.Errorf("header = %q", s)
	}
	if s := got[1].Value.(*Char).String(); s != "1.0" {
		t.Errorf("version = %q", s)
	}
	if g := got[2].Value.(*Cell); len(g.Elems) != 1 || g.Elems[0].(*Char).String() != "g" {
		t.Errorf("globals = %#v", g)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewDouble([]int{3, 4, 5}, make([]float64, 60)), "3×4×5 double"},
		{NewChar("abc"), "1×3 char"},
		{&Numeric{Logical: true, Real: []float64{1, 0}}, "1×2 logical"},
		{NewCell(nil), "1×0 cell"},
	}
	for _, test := range tests {
		if got := Describe(test.v); got != test.want {
			t.Errorf("Describe = %q, want %q", got, test.want)
		}
	}
}
