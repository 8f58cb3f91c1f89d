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

package tools

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

// QuickFT returns the magnitude of the 2-D discrete Fourier transform of
// each image in data, shifted so that the zero frequency is at the
// center. With zeroCenter the zero frequency term is set to zero first.
func QuickFT(data *sparse.DenseArray, zeroCenter bool) (*sparse.DenseArray, error) {
	return perLayer(data, func(img *sparse.DenseArray) (*sparse.DenseArray, error) {
		return ft2(img, zeroCenter), nil
	})
}

func ft2(img *sparse.DenseArray, zeroCenter bool) *sparse.DenseArray {
	nr, nc := img.Shape[0], img.Shape[1]
	c := make([]complex128, nr*nc)
	for i, v := range img.Elements {
		c[i] = complex(v, 0)
	}
	rows := fourier.NewCmplxFFT(nc)
	for i := 0; i < nr; i++ {
		rows.Coefficients(c[i*nc:(i+1)*nc], c[i*nc:(i+1)*nc])
	}
	cols := fourier.NewCmplxFFT(nr)
	col := make([]complex128, nr)
	for j := 0; j < nc; j++ {
		for i := range col {
			col[i] = c[i*nc+j]
		}
		cols.Coefficients(col, col)
		for i, v := range col {
			c[i*nc+j] = v
		}
	}
	if zeroCenter {
		c[0] = 0
	}
	o := sparse.ZerosDense(nr, nc)
	for i := 0; i < nr; i++ {
		si := cols.ShiftIdx(i)
		for j := 0; j < nc; j++ {
			o.Elements[i*nc+j] = cmplx.Abs(c[si*nc+rows.ShiftIdx(j)])
		}
	}
	return o
}

// Symmetrize averages each image with its rotations by every multiple of
// 360/n degrees, in both directions, about the image center.
func Symmetrize(data *sparse.DenseArray, n int) (*sparse.DenseArray, error) {
	if n < 1 {
		return nil, fmt.Errorf("tools: cannot symmetrize %d-fold", n)
	}
	return perLayer(data, func(img *sparse.DenseArray) (*sparse.DenseArray, error) {
		angle := 360 / float64(n)
		o := sparse.ZerosDense(img.Shape[0], img.Shape[1])
		for i := 0; i < n; i++ {
			floats.Add(o.Elements, rotate(img, angle*float64(i)).Elements)
			floats.Add(o.Elements, rotate(img, -angle*float64(i)).Elements)
		}
		floats.Scale(1/float64(2*n), o.Elements)
		return o, nil
	})
}

// FoldLayerImage makes each square image of data n-fold symmetric, with
// n one of 1, 2 or 4. The fold directions are set by the Bragg peak angle
// theta, in radians: each image is rotated by theta plus 45 degrees,
// averaged with its transpose (n ≥ 1), with its 180 degree rotation
// (n ≥ 2) and with its left-right mirror (n = 4), and rotated back.
func FoldLayerImage(data *sparse.DenseArray, theta float64, n int) (*sparse.DenseArray, error) {
	if n != 1 && n != 2 && n != 4 {
		return nil, fmt.Errorf("tools: %d-fold symmetrization is not supported", n)
	}
	deg := theta*180/math.Pi + 45
	return perLayer(data, func(img *sparse.DenseArray) (*sparse.DenseArray, error) {
		m := img.Shape[0]
		if img.Shape[1] != m {
			return nil, fmt.Errorf("tools: folding needs square images, have %v", img.Shape)
		}
		l := rotate(img, deg)
		fold := func(f func(i, j int) (int, int)) {
			o := sparse.ZerosDense(m, m)
			for i := 0; i < m; i++ {
				for j := 0; j < m; j++ {
					si, sj := f(i, j)
					o.Elements[i*m+j] = (l.Elements[i*m+j] + l.Elements[si*m+sj]) / 2
				}
			}
			l = o
		}
		fold(func(i, j int) (int, int) { return j, i })
		if n >= 2 {
			fold(func(i, j int) (int, int) { return m - 1 - i, m - 1 - j })
		}
		if n == 4 {
			fold(func(i, j int) (int, int) { return i, m - 1 - j })
		}
		return rotate(l, -deg), nil
	})
}
