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
	"fmt"
	"math"
)

// ErrFormat is returned for input that is not a well-formed MAT-file.
var ErrFormat = errors.New("matfile: malformed file")

// Data element types.
const (
	miINT8       uint32 = 1
	miUINT8      uint32 = 2
	miINT16      uint32 = 3
	miUINT16     uint32 = 4
	miINT32      uint32 = 5
	miUINT32     uint32 = 6
	miSINGLE     uint32 = 7
	miDOUBLE     uint32 = 9
	miINT64      uint32 = 12
	miUINT64     uint32 = 13
	miMATRIX     uint32 = 14
	miCOMPRESSED uint32 = 15
	miUTF8       uint32 = 16
	miUTF16      uint32 = 17
	miUTF32      uint32 = 18
)

// Array flag bits.
const (
	flagComplex = 0x08
	flagGlobal  = 0x04
	flagLogical = 0x02
)

// elemSize returns the size in bytes of one number of element type t.
func elemSize(t uint32) int {
	switch t {
	case miINT8, miUINT8, miUTF8:
		return 1
	case miINT16, miUINT16, miUTF16:
		return 2
	case miINT32, miUINT32, miSINGLE, miUTF32:
		return 4
	case miDOUBLE, miINT64, miUINT64:
		return 8
	}
	return 0
}

// classElemType is the element type used to store each numeric class.
var classElemType = map[Class]uint32{
	DoubleClass: miDOUBLE,
	SingleClass: miSINGLE,
	Int8Class:   miINT8,
	Uint8Class:  miUINT8,
	Int16Class:  miINT16,
	Uint16Class: miUINT16,
	Int32Class:  miINT32,
	Uint32Class: miUINT32,
	Int64Class:  miINT64,
	Uint64Class: miUINT64,
}

func pad8(n int) int { return (8 - n%8) % 8 }

// putElement appends a data element to b. Elements of four bytes or
// fewer use the packed small-element form.
func putElement(b *bytes.Buffer, order binary.ByteOrder, t uint32, data []byte) {
	var tag [8]byte
	if len(data) <= 4 && t != miMATRIX {
		order.PutUint32(tag[:4], uint32(len(data))<<16|t)
		b.Write(tag[:4])
		var d [4]byte
		copy(d[:], data)
		b.Write(d[:])
		return
	}
	order.PutUint32(tag[:4], t)
	order.PutUint32(tag[4:], uint32(len(data)))
	b.Write(tag[:])
	b.Write(data)
	b.Write(make([]byte, pad8(len(data))))
}

// elementReader walks the data elements packed in a byte slice.
type elementReader struct {
	b     []byte
	off   int
	order binary.ByteOrder
}

func (r *elementReader) more() bool { return r.off < len(r.b) }

// next returns the type and contents of the next element.
func (r *elementReader) next() (uint32, []byte, error) {
	if len(r.b)-r.off < 8 {
		return 0, nil, fmt.Errorf("%w: truncated element tag", ErrFormat)
	}
	u := r.order.Uint32(r.b[r.off:])
	if n := u >> 16; n != 0 {
		if n > 4 {
			return 0, nil, fmt.Errorf("%w: small element of %d bytes", ErrFormat, n)
		}
		data := r.b[r.off+4 : r.off+4+int(n)]
		r.off += 8
		return u & 0xffff, data, nil
	}
	n := int(r.order.Uint32(r.b[r.off+4:]))
	start := r.off + 8
	if n < 0 || start+n > len(r.b) {
		return 0, nil, fmt.Errorf("%w: element of %d bytes overruns its parent", ErrFormat, n)
	}
	r.off = start + n
	if u != miCOMPRESSED {
		r.off += pad8(n)
		if r.off > len(r.b) {
			r.off = len(r.b)
		}
	}
	return u, r.b[start : start+n], nil
}

// fits checks that n nested elements, each of which takes at least an
// 8-byte tag, can be held in the bytes left in r.
func (r *elementReader) fits(n int, shape []int) error {
	if n < 0 || n > (len(r.b)-r.off)/8 {
		return fmt.Errorf("%w: dims %v need more elements than %d bytes hold", ErrFormat, shape, len(r.b)-r.off)
	}
	return nil
}

// expect returns the next element, which must be of type t.
func (r *elementReader) expect(t uint32, what string) ([]byte, error) {
	typ, data, err := r.next()
	if err != nil {
		return nil, err
	}
	if typ != t {
		return nil, fmt.Errorf("%w: %s has element type %d, want %d", ErrFormat, what, typ, t)
	}
	return data, nil
}

// decodeNumbers converts the contents of a numeric element to float64.
func decodeNumbers(order binary.ByteOrder, t uint32, data []byte) ([]float64, error) {
	size := elemSize(t)
	if size == 0 || t == miUTF8 || t == miUTF16 || t == miUTF32 {
		return nil, fmt.Errorf("%w: element type %d is not numeric", ErrFormat, t)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte values", ErrFormat, len(data), size)
	}
	n := len(data) / size
	o := make([]float64, n)
	for i := 0; i < n; i++ {
		p := data[i*size:]
		switch t {
		case miINT8:
			o[i] = float64(int8(p[0]))
		case miUINT8:
			o[i] = float64(p[0])
		case miINT16:
			o[i] = float64(int16(order.Uint16(p)))
		case miUINT16:
			o[i] = float64(order.Uint16(p))
		case miINT32:
			o[i] = float64(int32(order.Uint32(p)))
		case miUINT32:
			o[i] = float64(order.Uint32(p))
		case miSINGLE:
			o[i] = float64(math.Float32frombits(order.Uint32(p)))
		case miDOUBLE:
			o[i] = math.Float64frombits(order.Uint64(p))
		case miINT64:
			o[i] = float64(int64(order.Uint64(p)))
		case miUINT64:
			o[i] = float64(order.Uint64(p))
		}
	}
	return o, nil
}

// encodeNumbers stores v as element type t.
func encodeNumbers(order binary.ByteOrder, t uint32, v []float64) []byte {
	size := elemSize(t)
	o := make([]byte, size*len(v))
	for i, f := range v {
		p := o[i*size:]
		switch t {
		case miINT8:
			p[0] = byte(int8(f))
		case miUINT8:
			p[0] = byte(f)
		case miINT16:
			order.PutUint16(p, uint16(int16(f)))
		case miUINT16:
			order.PutUint16(p, uint16(f))
		case miINT32:
			order.PutUint32(p, uint32(int32(f)))
		case miUINT32:
			order.PutUint32(p, uint32(f))
		case miSINGLE:
			order.PutUint32(p, math.Float32bits(float32(f)))
		case miDOUBLE:
			order.PutUint64(p, math.Float64bits(f))
		case miINT64:
			order.PutUint64(p, uint64(int64(f)))
		case miUINT64:
			order.PutUint64(p, uint64(f))
		}
	}
	return o
}

// columnMajor returns, for each row-major position of an array with the
// given dimensions, the corresponding column-major position.
func columnMajor(d []int) []int {
	n := Numel(d)
	idx := make([]int, n)
	if n == 0 {
		return idx
	}
	sub := make([]int, len(d))
	for r := 0; r < n; r++ {
		c, stride := 0, 1
		for k := range d {
			c += sub[k] * stride
			stride *= d[k]
		}
		idx[r] = c
		// Advance the subscripts in row-major order.
		for k := len(d) - 1; k >= 0; k-- {
			sub[k]++
			if sub[k] < d[k] {
				break
			}
			sub[k] = 0
		}
	}
	return idx
}
