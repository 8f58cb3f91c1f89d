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

// Package matfile reads and writes level 5 MAT-files, the container
// format used by MATLAB and by most scientific toolkits that exchange
// data with it.
//
// A file holds a sequence of named variables. Each variable is one of a
// closed set of values: a numeric array (*Numeric), a character array
// (*Char), a structure array (*Struct), a cell array (*Cell), or an array
// of a class this package does not interpret (*Opaque), which is kept
// byte-for-byte so that it can be written back unchanged.
//
// Array elements are held in row-major order, the way Go code indexes
// them; the conversion to and from the column-major order of the file
// happens inside the encoder and decoder. One-dimensional data are
// stored as 1×N row vectors.
package matfile

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf16"
)

// Class is the MATLAB array class of a value.
type Class uint8

// Array classes.
const (
	CellClass     Class = 1
	StructClass   Class = 2
	ObjectClass   Class = 3
	CharClass     Class = 4
	SparseClass   Class = 5
	DoubleClass   Class = 6
	SingleClass   Class = 7
	Int8Class     Class = 8
	Uint8Class    Class = 9
	Int16Class    Class = 10
	Uint16Class   Class = 11
	Int32Class    Class = 12
	Uint32Class   Class = 13
	Int64Class    Class = 14
	Uint64Class   Class = 15
	FunctionClass Class = 16
	OpaqueClass   Class = 17
)

var classNames = map[Class]string{
	CellClass: "cell", StructClass: "struct", ObjectClass: "object",
	CharClass: "char", SparseClass: "sparse", DoubleClass: "double",
	SingleClass: "single", Int8Class: "int8", Uint8Class: "uint8",
	Int16Class: "int16", Uint16Class: "uint16", Int32Class: "int32",
	Uint32Class: "uint32", Int64Class: "int64", Uint64Class: "uint64",
	FunctionClass: "function_handle", OpaqueClass: "opaque",
}

func (c Class) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// IsNumeric reports whether c is one of the numeric classes.
func (c Class) IsNumeric() bool { return c >= DoubleClass && c <= Uint64Class }

// Value is a MAT-file array.
type Value interface {
	// Class returns the array class.
	Class() Class
	// Dims returns the array dimensions; there are always at least two.
	Dims() []int
	// Copy returns a deep copy.
	Copy() Value
}

// Numeric is a numeric or logical array.
type Numeric struct {
	// ArrayClass is the storage class; the zero value means DoubleClass.
	ArrayClass Class
	Shape      []int
	// Real holds the elements in row-major order.
	Real []float64
	// Imag is the imaginary part of a complex array, or nil.
	Imag []float64
	// Logical marks a logical (boolean) array; its class is Uint8Class.
	Logical bool
}

// Class implements Value.
func (n *Numeric) Class() Class {
	if n.Logical {
		return Uint8Class
	}
	if n.ArrayClass == 0 {
		return DoubleClass
	}
	return n.ArrayClass
}

// Dims implements Value.
func (n *Numeric) Dims() []int { return dims(n.Shape, len(n.Real)) }

// Copy implements Value.
func (n *Numeric) Copy() Value {
	o := &Numeric{
		ArrayClass: n.ArrayClass,
		Shape:      append([]int{}, n.Shape...),
		Real:       append([]float64{}, n.Real...),
		Logical:    n.Logical,
	}
	if n.Imag != nil {
		o.Imag = append([]float64{}, n.Imag...)
	}
	return o
}

// NewDouble returns a double array with the given shape holding a copy
// of data, which is in row-major order.
func NewDouble(shape []int, data []float64) *Numeric {
	return &Numeric{
		ArrayClass: DoubleClass,
		Shape:      append([]int{}, shape...),
		Real:       append([]float64{}, data...),
	}
}

// Scalar returns a 1×1 double array.
func Scalar(f float64) *Numeric { return NewDouble([]int{1, 1}, []float64{f}) }

// RowVector returns a 1×N double array.
func RowVector(v []float64) *Numeric { return NewDouble([]int{1, len(v)}, v) }

// Char is a character array. A single string is a 1×N array.
type Char struct {
	Shape []int
	// Data holds the characters in row-major order.
	Data []rune
}

// NewChar returns a 1×N character array holding s; the empty string
// gives a 0×0 array.
func NewChar(s string) *Char {
	r := []rune(s)
	if len(r) == 0 {
		return &Char{Shape: []int{0, 0}}
	}
	return &Char{Shape: []int{1, len(r)}, Data: r}
}

// NewCharRows returns an M×N character array holding the given rows,
// padded with spaces to the length of the longest.
func NewCharRows(rows []string) *Char {
	n := 0
	rr := make([][]rune, len(rows))
	for i, s := range rows {
		rr[i] = []rune(s)
		if len(rr[i]) > n {
			n = len(rr[i])
		}
	}
	c := &Char{Shape: []int{len(rows), n}}
	for _, r := range rr {
		c.Data = append(c.Data, r...)
		for j := len(r); j < n; j++ {
			c.Data = append(c.Data, ' ')
		}
	}
	return c
}

// Class implements Value.
func (c *Char) Class() Class { return CharClass }

// Dims implements Value.
func (c *Char) Dims() []int { return dims(c.Shape, len(c.Data)) }

// Copy implements Value.
func (c *Char) Copy() Value {
	return &Char{Shape: append([]int{}, c.Shape...), Data: append([]rune{}, c.Data...)}
}

// Rows returns the rows of a two-dimensional character array.
func (c *Char) Rows() []string {
	d := c.Dims()
	if len(d) != 2 || d[0] == 0 || d[1] == 0 {
		if len(c.Data) > 0 {
			return []string{string(c.Data)}
		}
		return nil
	}
	rows := make([]string, d[0])
	for i := range rows {
		rows[i] = string(c.Data[i*d[1] : (i+1)*d[1]])
	}
	return rows
}

// String returns the first row of c, or the empty string.
func (c *Char) String() string {
	rows := c.Rows()
	if len(rows) == 0 {
		return ""
	}
	return rows[0]
}

// Struct is a structure array. Every element has the same fields.
type Struct struct {
	Shape []int
	// Fields holds the field names in order.
	Fields []string
	// Elems holds one slice of field values per element, in row-major
	// order; Elems[i][j] is the value of Fields[j] in element i.
	Elems [][]Value
}

// NewStruct returns a 1×1 structure with the given fields and values.
func NewStruct(fields []string, values []Value) (*Struct, error) {
	if len(fields) != len(values) {
		return nil, fmt.Errorf("matfile: %d field names for %d values", len(fields), len(values))
	}
	return &Struct{
		Shape:  []int{1, 1},
		Fields: append([]string{}, fields...),
		Elems:  [][]Value{append([]Value{}, values...)},
	}, nil
}

// Class implements Value.
func (s *Struct) Class() Class { return StructClass }

// Dims implements Value.
func (s *Struct) Dims() []int { return dims(s.Shape, len(s.Elems)) }

// Copy implements Value.
func (s *Struct) Copy() Value {
	o := &Struct{Shape: append([]int{}, s.Shape...), Fields: append([]string{}, s.Fields...)}
	for _, e := range s.Elems {
		oe := make([]Value, len(e))
		for j, v := range e {
			if v != nil {
				oe[j] = v.Copy()
			}
		}
		o.Elems = append(o.Elems, oe)
	}
	return o
}

// Field returns the value of the named field in element i.
func (s *Struct) Field(i int, name string) (Value, bool) {
	if i < 0 || i >= len(s.Elems) {
		return nil, false
	}
	for j, f := range s.Fields {
		if f == name && j < len(s.Elems[i]) {
			return s.Elems[i][j], true
		}
	}
	return nil, false
}

// Cell is a cell array.
type Cell struct {
	Shape []int
	// Elems holds the cells in row-major order.
	Elems []Value
}

// NewCell returns a 1×N cell array holding values.
func NewCell(values []Value) *Cell {
	return &Cell{Shape: []int{1, len(values)}, Elems: append([]Value{}, values...)}
}

// Class implements Value.
func (c *Cell) Class() Class { return CellClass }

// Dims implements Value.
func (c *Cell) Dims() []int { return dims(c.Shape, len(c.Elems)) }

// Copy implements Value.
func (c *Cell) Copy() Value {
	o := &Cell{Shape: append([]int{}, c.Shape...), Elems: make([]Value, len(c.Elems))}
	for i, v := range c.Elems {
		if v != nil {
			o.Elems[i] = v.Copy()
		}
	}
	return o
}

// Opaque is an array of a class that is not interpreted (sparse, object,
// function handle, ...). Payload holds the sub-elements that follow the
// array name, exactly as they were read.
type Opaque struct {
	ArrayClass Class
	// Flags holds the array flag bits (complex, global, logical).
	Flags uint32
	// NzMax is the maximum number of non-zero elements of a sparse array.
	NzMax   uint32
	Shape   []int
	Payload []byte
}

// Class implements Value.
func (o *Opaque) Class() Class { return o.ArrayClass }

// Dims implements Value.
func (o *Opaque) Dims() []int { return dims(o.Shape, 0) }

// Copy implements Value.
func (o *Opaque) Copy() Value {
	return &Opaque{
		ArrayClass: o.ArrayClass,
		Flags:      o.Flags,
		NzMax:      o.NzMax,
		Shape:      append([]int{}, o.Shape...),
		Payload:    append([]byte{}, o.Payload...),
	}
}

// Numel returns the number of elements of an array with the given dims,
// or -1 if a dimension is negative or the count overflows an int.
func Numel(d []int) int {
	n := 1
	for _, v := range d {
		if v == 0 {
			return 0
		}
	}
	for _, v := range d {
		if v < 0 || n > math.MaxInt/v {
			return -1
		}
		n *= v
	}
	return n
}

// dims returns the MAT-file form of shape: no shape means a row vector
// of n elements, and a single dimension N becomes 1×N.
func dims(shape []int, n int) []int {
	switch len(shape) {
	case 0:
		if n == 0 {
			return []int{0, 0}
		}
		return []int{1, n}
	case 1:
		return []int{1, shape[0]}
	default:
		return append([]int{}, shape...)
	}
}

// bmp reports whether every character of r lies in the basic
// multilingual plane and so takes one UTF-16 code unit.
func bmp(r []rune) bool {
	for _, c := range r {
		if c > 0xFFFF {
			return false
		}
	}
	return true
}

// encodeUTF16 returns the UTF-16 code units of r, whose characters must
// lie in the basic multilingual plane. Lone surrogates become U+FFFD.
func encodeUTF16(r []rune) []uint16 {
	o := make([]uint16, len(r))
	for i, c := range r {
		if utf16.IsSurrogate(c) {
			c = '\uFFFD'
		}
		o[i] = uint16(c)
	}
	return o
}

// Describe returns a short human-readable summary of v, such as
// "3×4×5 double".
func Describe(v Value) string {
	d := v.Dims()
	s := make([]string, len(d))
	for i, x := range d {
		s[i] = fmt.Sprint(x)
	}
	desc := strings.Join(s, "×") + " " + v.Class().String()
	if n, ok := v.(*Numeric); ok && n.Logical {
		desc = strings.Join(s, "×") + " logical"
	}
	return desc
}
