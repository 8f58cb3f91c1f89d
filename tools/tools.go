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

// Package tools holds numerical helpers for spectroscopic maps: radial
// averages, line cuts, background removal, peak finding, Gaussian fits,
// Fourier transforms and symmetrization.
//
// Images are *sparse.DenseArray values indexed [row, column]; x
// coordinates run along columns and y coordinates along rows. Functions
// that accept a 3-D array treat it as a stack of images along the first
// axis and process each layer independently.
package tools

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/sparse"
)

// ErrRank is returned when an array does not have a supported number of
// dimensions.
var ErrRank = errors.New("tools: input must be a 2-D or 3-D array")

// layers splits a 2-D or 3-D array into 2-D images.
func layers(a *sparse.DenseArray) ([]*sparse.DenseArray, error) {
	switch len(a.Shape) {
	case 2:
		return []*sparse.DenseArray{a}, nil
	case 3:
		nl, nr, nc := a.Shape[0], a.Shape[1], a.Shape[2]
		o := make([]*sparse.DenseArray, nl)
		for l := range o {
			o[l] = sparse.ZerosDense(nr, nc)
			copy(o[l].Elements, a.Elements[l*nr*nc:(l+1)*nr*nc])
		}
		return o, nil
	}
	return nil, fmt.Errorf("%w: shape %v", ErrRank, a.Shape)
}

// perLayer applies f to each image of a and stacks the results into an
// array of a's rank.
func perLayer(a *sparse.DenseArray, f func(*sparse.DenseArray) (*sparse.DenseArray, error)) (*sparse.DenseArray, error) {
	ls, err := layers(a)
	if err != nil {
		return nil, err
	}
	out := make([]*sparse.DenseArray, len(ls))
	for i, l := range ls {
		if out[i], err = f(l); err != nil {
			return nil, err
		}
	}
	if len(a.Shape) == 2 {
		return out[0], nil
	}
	nr, nc := out[0].Shape[0], out[0].Shape[1]
	o := sparse.ZerosDense(len(out), nr, nc)
	for i, l := range out {
		copy(o.Elements[i*nr*nc:], l.Elements)
	}
	return o, nil
}

func image(a *sparse.DenseArray) error {
	if len(a.Shape) != 2 {
		return fmt.Errorf("%w: want a 2-D image, have shape %v", ErrRank, a.Shape)
	}
	return nil
}

// edge is how far outside the grid a sample may fall and still be
// treated as lying on the boundary.
const edge = 1e-9

// bilinear interpolates img at column x and row y. Points outside the
// grid take the value of the nearest edge when clamp is true, and zero
// otherwise.
func bilinear(img *sparse.DenseArray, x, y float64, clamp bool) float64 {
	nr, nc := img.Shape[0], img.Shape[1]
	maxX, maxY := float64(nc-1), float64(nr-1)
	if x < -edge || y < -edge || x > maxX+edge || y > maxY+edge {
		if !clamp {
			return 0
		}
	}
	x = math.Max(0, math.Min(x, maxX))
	y = math.Max(0, math.Min(y, maxY))
	j0, i0 := int(math.Floor(x)), int(math.Floor(y))
	j1, i1 := j0+1, i0+1
	if j1 > nc-1 {
		j1 = nc - 1
	}
	if i1 > nr-1 {
		i1 = nr - 1
	}
	fx, fy := x-float64(j0), y-float64(i0)
	at := func(i, j int) float64 { return img.Elements[i*nc+j] }
	top := at(i0, j0)*(1-fx) + at(i0, j1)*fx
	bottom := at(i1, j0)*(1-fx) + at(i1, j1)*fx
	return top*(1-fy) + bottom*fy
}

// rotate returns img rotated by deg degrees about its center. The output
// has the shape of img, and points that come from outside img are zero.
func rotate(img *sparse.DenseArray, deg float64) *sparse.DenseArray {
	nr, nc := img.Shape[0], img.Shape[1]
	o := sparse.ZerosDense(nr, nc)
	if deg == 0 {
		copy(o.Elements, img.Elements)
		return o
	}
	sin, cos := math.Sincos(deg * math.Pi / 180)
	cx, cy := float64(nc-1)/2, float64(nr-1)/2
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			dx, dy := float64(j)-cx, float64(i)-cy
			o.Elements[i*nc+j] = bilinear(img, cx+cos*dx+sin*dy, cy-sin*dx+cos*dy, false)
		}
	}
	return o
}
