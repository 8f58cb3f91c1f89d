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
	"fmt"
	"io"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// A Decoder reads variables from a MAT-file stream.
type Decoder struct {
	// Description is the descriptive text of the file header.
	Description string
	// Version is the file format version, 0x0100 for level 5 files.
	Version uint16

	r     io.Reader
	order binary.ByteOrder
}

// NewDecoder reads the file header from r and returns a Decoder
// positioned at the first variable. Both byte orders are accepted.
func NewDecoder(r io.Reader) (*Decoder, error) {
	var h [128]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrFormat, err)
	}
	d := &Decoder{r: r}
	switch string(h[126:128]) {
	case "IM":
		d.order = binary.LittleEndian
	case "MI":
		d.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("%w: bad endian indicator %q", ErrFormat, h[126:128])
	}
	d.Version = d.order.Uint16(h[124:])
	d.Description = strings.TrimRight(string(h[:116]), " \x00")
	return d, nil
}

// Next returns the next variable in the stream, or io.EOF when there
// are no more.
func (d *Decoder) Next() (Var, error) {
	var tag [8]byte
	n, err := io.ReadFull(d.r, tag[:])
	if n == 0 && (err == io.EOF || err == io.ErrUnexpectedEOF) {
		return Var{}, io.EOF
	}
	if err != nil {
		return Var{}, fmt.Errorf("%w: reading element tag: %v", ErrFormat, err)
	}
	t := d.order.Uint32(tag[:4])
	size := int(d.order.Uint32(tag[4:]))
	if t>>16 != 0 {
		return Var{}, fmt.Errorf("%w: small element at top level", ErrFormat)
	}
	// The declared size is not trusted until the bytes have arrived.
	payload, err := io.ReadAll(io.LimitReader(d.r, int64(size)))
	if err != nil || len(payload) != size {
		return Var{}, fmt.Errorf("%w: reading %d-byte element: got %d bytes, %v", ErrFormat, size, len(payload), err)
	}

	switch t {
	case miCOMPRESSED:
		zr, err := zlib.NewReader(bytes.NewReader(payload))
		if err != nil {
			return Var{}, fmt.Errorf("%w: compressed element: %v", ErrFormat, err)
		}
		raw, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return Var{}, fmt.Errorf("%w: compressed element: %v", ErrFormat, err)
		}
		er := &elementReader{b: raw, order: d.order}
		t, inner, err := er.next()
		if err != nil {
			return Var{}, err
		}
		if t != miMATRIX {
			return Var{}, fmt.Errorf("%w: compressed element holds type %d", ErrFormat, t)
		}
		return d.variable(inner)
	case miMATRIX:
		if p := pad8(size); p > 0 {
			// The last element of a file is sometimes not padded.
			io.ReadFull(d.r, make([]byte, p))
		}
		return d.variable(payload)
	default:
		return Var{}, fmt.Errorf("%w: top-level element type %d", ErrFormat, t)
	}
}

func (d *Decoder) variable(payload []byte) (Var, error) {
	name, global, v, err := d.matrix(payload)
	if err != nil {
		return Var{}, fmt.Errorf("matfile: decoding %s: %w", name, err)
	}
	return Var{Name: name, Value: v, Global: global}, nil
}

// matrix decodes the contents of an miMATRIX element.
func (d *Decoder) matrix(payload []byte) (name string, global bool, v Value, err error) {
	if len(payload) == 0 {
		return "", false, &Numeric{Shape: []int{0, 0}}, nil
	}
	er := &elementReader{b: payload, order: d.order}
	af, err := er.expect(miUINT32, "array flags")
	if err != nil {
		return "", false, nil, err
	}
	if len(af) < 8 {
		return "", false, nil, fmt.Errorf("%w: array flags of %d bytes", ErrFormat, len(af))
	}
	w := d.order.Uint32(af)
	class := Class(w & 0xff)
	flags := (w >> 8) & 0xff
	global = flags&flagGlobal != 0

	dd, err := er.expect(miINT32, "dimensions")
	if err != nil {
		return "", false, nil, err
	}
	dimv, err := decodeNumbers(d.order, miINT32, dd)
	if err != nil {
		return "", false, nil, err
	}
	shape := make([]int, len(dimv))
	for i, x := range dimv {
		if x < 0 {
			return "", false, nil, fmt.Errorf("%w: negative dimension %v", ErrFormat, x)
		}
		shape[i] = int(x)
	}
	if len(shape) < 2 {
		return "", false, nil, fmt.Errorf("%w: %d dimensions", ErrFormat, len(shape))
	}
	if Numel(shape) < 0 {
		return "", false, nil, fmt.Errorf("%w: dims %v are too large", ErrFormat, shape)
	}
	nb, err := er.expect(miINT8, "array name")
	if err != nil {
		return "", false, nil, err
	}
	name = string(nb)

	switch {
	case class.IsNumeric():
		v, err = d.numeric(er, class, flags, shape)
	case class == CharClass:
		v, err = d.char(er, shape)
	case class == StructClass:
		v, err = d.structure(er, shape)
	case class == CellClass:
		v, err = d.cell(er, shape)
	default:
		v = &Opaque{
			ArrayClass: class,
			Flags:      flags,
			NzMax:      d.order.Uint32(af[4:]),
			Shape:      shape,
			Payload:    append([]byte{}, er.b[er.off:]...),
		}
	}
	return name, global, v, err
}

func (d *Decoder) numeric(er *elementReader, class Class, flags uint32, shape []int) (Value, error) {
	n := Numel(shape)
	t, data, err := er.next()
	if err != nil {
		return nil, err
	}
	col, err := decodeNumbers(d.order, t, data)
	if err != nil {
		return nil, err
	}
	if len(col) != n {
		return nil, fmt.Errorf("%w: %d values for dims %v", ErrFormat, len(col), shape)
	}
	cm := columnMajor(shape)
	v := &Numeric{ArrayClass: class, Shape: shape, Real: make([]float64, n), Logical: flags&flagLogical != 0}
	for r, c := range cm {
		v.Real[r] = col[c]
	}
	if flags&flagComplex != 0 {
		t, data, err := er.next()
		if err != nil {
			return nil, err
		}
		col, err := decodeNumbers(d.order, t, data)
		if err != nil {
			return nil, err
		}
		if len(col) != n {
			return nil, fmt.Errorf("%w: %d imaginary values for dims %v", ErrFormat, len(col), shape)
		}
		v.Imag = make([]float64, n)
		for r, c := range cm {
			v.Imag[r] = col[c]
		}
	}
	return v, nil
}

func (d *Decoder) char(er *elementReader, shape []int) (Value, error) {
	n := Numel(shape)
	if !er.more() {
		if n != 0 {
			return nil, fmt.Errorf("%w: char array without data", ErrFormat)
		}
		return &Char{Shape: shape}, nil
	}
	t, data, err := er.next()
	if err != nil {
		return nil, err
	}
	var col []rune
	switch t {
	case miUTF8:
		for len(data) > 0 {
			r, size := utf8.DecodeRune(data)
			col = append(col, r)
			data = data[size:]
		}
	case miUTF16:
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("%w: odd-length UTF-16 data", ErrFormat)
		}
		u := make([]uint16, len(data)/2)
		for i := range u {
			u[i] = d.order.Uint16(data[2*i:])
		}
		col = utf16.Decode(u)
	default:
		nums, err := decodeNumbers(d.order, t, data)
		if err != nil {
			return nil, err
		}
		col = make([]rune, len(nums))
		for i, f := range nums {
			col[i] = rune(f)
		}
	}
	if len(col) != n {
		return nil, fmt.Errorf("%w: %d characters for dims %v", ErrFormat, len(col), shape)
	}
	if n == 0 {
		return &Char{Shape: shape}, nil
	}
	v := &Char{Shape: shape, Data: make([]rune, n)}
	for r, c := range columnMajor(shape) {
		v.Data[r] = col[c]
	}
	return v, nil
}

func (d *Decoder) structure(er *elementReader, shape []int) (Value, error) {
	sl, err := er.expect(miINT32, "field name length")
	if err != nil {
		return nil, err
	}
	if len(sl) < 4 {
		return nil, fmt.Errorf("%w: field name length of %d bytes", ErrFormat, len(sl))
	}
	slot := int(d.order.Uint32(sl))
	nb, err := er.expect(miINT8, "field names")
	if err != nil {
		return nil, err
	}
	if slot <= 0 || len(nb)%slot != 0 {
		return nil, fmt.Errorf("%w: %d bytes of field names in %d-byte slots", ErrFormat, len(nb), slot)
	}
	fields := make([]string, len(nb)/slot)
	for i := range fields {
		f := nb[i*slot : (i+1)*slot]
		if j := bytes.IndexByte(f, 0); j >= 0 {
			f = f[:j]
		}
		fields[i] = string(f)
	}
	n := Numel(shape)
	if len(fields) == 0 {
		if n > len(er.b) {
			return nil, fmt.Errorf("%w: %d fieldless elements in %d bytes", ErrFormat, n, len(er.b))
		}
	} else if err := er.fits(n, shape); err != nil {
		return nil, err
	} else if err := er.fits(n*len(fields), shape); err != nil {
		return nil, err
	}
	col := make([][]Value, n)
	for i := range col {
		col[i] = make([]Value, len(fields))
		for j := range fields {
			v, err := d.child(er)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", fields[j], err)
			}
			col[i][j] = v
		}
	}
	s := &Struct{Shape: shape, Fields: fields, Elems: make([][]Value, n)}
	for r, c := range columnMajor(shape) {
		s.Elems[r] = col[c]
	}
	return s, nil
}

func (d *Decoder) cell(er *elementReader, shape []int) (Value, error) {
	n := Numel(shape)
	if err := er.fits(n, shape); err != nil {
		return nil, err
	}
	col := make([]Value, n)
	for i := range col {
		v, err := d.child(er)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		col[i] = v
	}
	c := &Cell{Shape: shape, Elems: make([]Value, n)}
	for r, cm := range columnMajor(shape) {
		c.Elems[r] = col[cm]
	}
	return c, nil
}

// child decodes a nested miMATRIX element.
func (d *Decoder) child(er *elementReader) (Value, error) {
	data, err := er.expect(miMATRIX, "nested array")
	if err != nil {
		return nil, err
	}
	_, _, v, err := d.matrix(data)
	return v, err
}
