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
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrFieldName is returned when a structure field name cannot be stored.
var ErrFieldName = errors.New("matfile: invalid field name")

// maxFieldName is the longest structure field name that can be stored.
const maxFieldName = 63

// An Encoder writes variables to a MAT-file stream.
type Encoder struct {
	// Description is written in the descriptive text of the file header.
	// It is truncated to fit.
	Description string
	// Compress writes every variable as a zlib-compressed element.
	Compress bool

	w           io.Writer
	order       binary.ByteOrder
	wroteHeader bool
}

// NewEncoder returns an Encoder writing little-endian data to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, order: binary.LittleEndian}
}

// WriteHeader writes the 128-byte file header. It is called by the first
// call to Encode if it has not been called already.
func (e *Encoder) WriteHeader() error {
	if e.wroteHeader {
		return nil
	}
	e.wroteHeader = true
	text := e.Description
	if text == "" {
		text = "MATLAB 5.0 MAT-file, Platform: Go, Created on: " + time.Now().Format(time.ANSIC)
	}
	var h [128]byte
	for i := 0; i < 116; i++ {
		h[i] = ' '
	}
	copy(h[:116], text)
	// Bytes 116-123 hold the subsystem data offset; zero means none.
	e.order.PutUint16(h[124:], 0x0100)
	e.order.PutUint16(h[126:], 'M'<<8|'I')
	_, err := e.w.Write(h[:])
	return err
}

// Encode writes v as the variable name.
func (e *Encoder) Encode(name string, v Value) error {
	return e.encode(name, v, false)
}

// EncodeGlobal writes v as the global variable name.
func (e *Encoder) EncodeGlobal(name string, v Value) error {
	return e.encode(name, v, true)
}

func (e *Encoder) encode(name string, v Value, global bool) error {
	if err := e.WriteHeader(); err != nil {
		return err
	}
	var b bytes.Buffer
	if err := e.matrix(&b, name, v, global); err != nil {
		return fmt.Errorf("matfile: encoding %s: %w", name, err)
	}
	if !e.Compress {
		_, err := e.w.Write(b.Bytes())
		return err
	}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(b.Bytes()); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	var tag [8]byte
	e.order.PutUint32(tag[:4], miCOMPRESSED)
	e.order.PutUint32(tag[4:], uint32(z.Len()))
	if _, err := e.w.Write(tag[:]); err != nil {
		return err
	}
	_, err := e.w.Write(z.Bytes())
	return err
}

// matrix appends the miMATRIX element for v to b.
func (e *Encoder) matrix(b *bytes.Buffer, name string, v Value, global bool) error {
	if v == nil {
		v = &Numeric{Shape: []int{0, 0}}
	}
	var p bytes.Buffer
	d := v.Dims()

	var flags uint32
	if global {
		flags |= flagGlobal
	}
	switch x := v.(type) {
	case *Numeric:
		if x.Imag != nil {
			flags |= flagComplex
		}
		if x.Logical {
			flags |= flagLogical
		}
	}
	af := make([]byte, 8)
	if o, ok := v.(*Opaque); ok {
		flags |= o.Flags &^ flagGlobal
		e.order.PutUint32(af[4:], o.NzMax)
	}
	e.order.PutUint32(af, flags<<8|uint32(v.Class()))
	putElement(&p, e.order, miUINT32, af)

	dd := make([]byte, 4*len(d))
	for i, x := range d {
		e.order.PutUint32(dd[4*i:], uint32(int32(x)))
	}
	putElement(&p, e.order, miINT32, dd)
	putElement(&p, e.order, miINT8, []byte(name))

	switch x := v.(type) {
	case *Numeric:
		if err := e.numeric(&p, x, d); err != nil {
			return err
		}
	case *Char:
		if Numel(d) != len(x.Data) {
			return fmt.Errorf("%w: char array of %d elements has dims %v", ErrFormat, len(x.Data), d)
		}
		cm := columnMajor(d)
		if !bmp(x.Data) {
			// UTF-16 would need two elements for some characters.
			col := make([]rune, len(x.Data))
			for r, c := range cm {
				col[c] = x.Data[r]
			}
			putElement(&p, e.order, miUTF8, []byte(string(col)))
			break
		}
		units := encodeUTF16(x.Data)
		col := make([]byte, 2*len(units))
		for r, c := range cm {
			e.order.PutUint16(col[2*c:], units[r])
		}
		putElement(&p, e.order, miUTF16, col)
	case *Struct:
		if err := e.structure(&p, x, d); err != nil {
			return err
		}
	case *Cell:
		if Numel(d) != len(x.Elems) {
			return fmt.Errorf("%w: cell array of %d elements has dims %v", ErrFormat, len(x.Elems), d)
		}
		col := make([]Value, len(x.Elems))
		for r, c := range columnMajor(d) {
			col[c] = x.Elems[r]
		}
		for i, c := range col {
			if err := e.matrix(&p, "", c, false); err != nil {
				return fmt.Errorf("cell %d: %w", i, err)
			}
		}
	case *Opaque:
		p.Write(x.Payload)
	default:
		return fmt.Errorf("matfile: unsupported value type %T", v)
	}
	putElement(b, e.order, miMATRIX, p.Bytes())
	return nil
}

func (e *Encoder) numeric(p *bytes.Buffer, x *Numeric, d []int) error {
	if Numel(d) != len(x.Real) {
		return fmt.Errorf("%w: numeric array of %d elements has dims %v", ErrFormat, len(x.Real), d)
	}
	if x.Imag != nil && len(x.Imag) != len(x.Real) {
		return fmt.Errorf("%w: imaginary part has %d elements, real part %d", ErrFormat, len(x.Imag), len(x.Real))
	}
	t, ok := classElemType[x.Class()]
	if !ok {
		return fmt.Errorf("matfile: class %v is not numeric", x.Class())
	}
	cm := columnMajor(d)
	col := make([]float64, len(x.Real))
	for r, c := range cm {
		col[c] = x.Real[r]
	}
	putElement(p, e.order, t, encodeNumbers(e.order, t, col))
	if x.Imag != nil {
		for r, c := range cm {
			col[c] = x.Imag[r]
		}
		putElement(p, e.order, t, encodeNumbers(e.order, t, col))
	}
	return nil
}

func (e *Encoder) structure(p *bytes.Buffer, x *Struct, d []int) error {
	if Numel(d) != len(x.Elems) {
		return fmt.Errorf("%w: struct array of %d elements has dims %v", ErrFormat, len(x.Elems), d)
	}
	slot := 32
	for _, f := range x.Fields {
		if f == "" || len(f) > maxFieldName {
			return fmt.Errorf("%w: %q", ErrFieldName, f)
		}
		if len(f) >= slot {
			slot = 64
		}
	}
	sl := make([]byte, 4)
	e.order.PutUint32(sl, uint32(slot))
	putElement(p, e.order, miINT32, sl)
	names := make([]byte, slot*len(x.Fields))
	for i, f := range x.Fields {
		copy(names[i*slot:], f)
	}
	putElement(p, e.order, miINT8, names)

	col := make([][]Value, len(x.Elems))
	for r, c := range columnMajor(d) {
		col[c] = x.Elems[r]
	}
	for i, el := range col {
		if len(el) != len(x.Fields) {
			return fmt.Errorf("%w: struct element %d has %d values for %d fields", ErrFormat, i, len(el), len(x.Fields))
		}
		for j, v := range el {
			if err := e.matrix(p, "", v, false); err != nil {
				return fmt.Errorf("field %s: %w", x.Fields[j], err)
			}
		}
	}
	return nil
}
