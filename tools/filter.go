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
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// BilateralFilter smooths each layer of a 2-D or 3-D array while keeping
// sharp steps. Every output pixel is a weighted mean of the pixels within
// a disc of diameter d around it. The weight of a neighbor is the product
// of a Gaussian of width sd in its pixel distance and a Gaussian of width
// si in its value difference, with values first divided by the layer
// maximum. If d is not positive the diameter is taken from sd. Pixels
// outside the layer do not contribute.
//
// A layer dominated by a single large value, such as the center of a
// Fourier transform, leaves little range contrast and is barely
// filtered.
func BilateralFilter(data *sparse.DenseArray, d int, si, sd float64) (*sparse.DenseArray, error) {
	rad := d / 2
	if d <= 0 {
		rad = int(math.Round(1.5 * sd))
	}
	return perLayer(data, func(l *sparse.DenseArray) (*sparse.DenseArray, error) {
		nr, nc := l.Shape[0], l.Shape[1]
		o := sparse.ZerosDense(nr, nc)
		norm := 1.0
		if len(l.Elements) > 0 {
			if m := floats.Max(l.Elements); m != 0 {
				norm = m
			}
		}
		ws := -0.5 / (sd * sd)
		wr := -0.5 / (si * si)
		for i := 0; i < nr; i++ {
			for j := 0; j < nc; j++ {
				v := l.Elements[i*nc+j] / norm
				var sum, wsum float64
				for di := -rad; di <= rad; di++ {
					for dj := -rad; dj <= rad; dj++ {
						r2 := float64(di*di + dj*dj)
						ii, jj := i+di, j+dj
						if r2 > float64(rad*rad) || ii < 0 || ii >= nr || jj < 0 || jj >= nc {
							continue
						}
						u := l.Elements[ii*nc+jj] / norm
						w := math.Exp(ws*r2 + wr*(u-v)*(u-v))
						sum += w * u
						wsum += w
					}
				}
				o.Elements[i*nc+j] = norm * sum / wsum
			}
		}
		return o, nil
	})
}
