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
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// AzimuthalAverageRaw averages the pixels of img that lie at the same
// distance from (x0, y0), for distances up to rmax. It returns the
// distinct distances in increasing order and the mean at each.
func AzimuthalAverageRaw(img *sparse.DenseArray, x0, y0, rmax float64) (r, avg []float64, err error) {
	if err := image(img); err != nil {
		return nil, nil, err
	}
	nr, nc := img.Shape[0], img.Shape[1]
	groups := make(map[float64][]float64)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			d := math.Hypot(float64(j)-x0, float64(i)-y0)
			if d <= rmax {
				groups[d] = append(groups[d], img.Elements[i*nc+j])
			}
		}
	}
	for d := range groups {
		r = append(r, d)
	}
	sort.Float64s(r)
	avg = make([]float64, len(r))
	for i, d := range r {
		avg[i] = stat.Mean(groups[d], nil)
	}
	return r, avg, nil
}

// DefaultAngles is the number of angles AzimuthalAverage samples when
// none are given.
const DefaultAngles = 500

// AzimuthalAverage returns, for each radius in r, the mean of img sampled
// by bilinear interpolation on the arc of that radius around (x0, y0) at
// the angles theta, in radians. If theta is nil, DefaultAngles angles
// spanning [0, 2π] are used. Samples outside the image take the value of
// the nearest edge.
func AzimuthalAverage(img *sparse.DenseArray, x0, y0 float64, r, theta []float64) ([]float64, error) {
	if err := image(img); err != nil {
		return nil, err
	}
	if theta == nil {
		theta = floats.Span(make([]float64, DefaultAngles), 0, 2*math.Pi)
	}
	z := make([]float64, len(r))
	f := make([]float64, len(theta))
	for i, r0 := range r {
		for k, t := range theta {
			sin, cos := math.Sincos(t)
			f[k] = bilinear(img, x0+r0*cos, y0+r0*sin, true)
		}
		z[i] = stat.Mean(f, nil)
	}
	return z, nil
}

// BinData sorts randomly sampled points (x, y) into nBins bins of equal
// width spanning [0, max(x)) and returns the bin centers and the mean y
// in each bin. Empty bins have a NaN mean.
func BinData(x, y []float64, nBins int) (centers, means []float64) {
	if nBins <= 0 || len(x) == 0 {
		return nil, nil
	}
	size := floats.Max(x) / float64(nBins)
	centers = make([]float64, nBins)
	means = make([]float64, nBins)
	for n := range centers {
		lo, hi := float64(n)*size, float64(n+1)*size
		var in []float64
		for i, v := range x {
			if v >= lo && v < hi {
				in = append(in, y[i])
			}
		}
		centers[n] = (lo + hi) / 2
		if len(in) == 0 {
			means[n] = math.NaN()
			continue
		}
		means[n] = stat.Mean(in, nil)
	}
	return centers, means
}
