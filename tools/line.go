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
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// Linecut samples img by bilinear interpolation at n points on the line
// from (x1, y1) to (x2, y2). r holds the position of each sample relative
// to the midpoint of the line.
func Linecut(img *sparse.DenseArray, x1, y1, x2, y2 float64, n int) (r, z []float64, err error) {
	if err := image(img); err != nil {
		return nil, nil, err
	}
	if n < 2 {
		return nil, nil, fmt.Errorf("tools: linecut needs at least 2 points, have %d", n)
	}
	half := math.Hypot(x1-x2, y1-y2) / 2
	r = floats.Span(make([]float64, n), -half, half)
	xs := floats.Span(make([]float64, n), x1, x2)
	ys := floats.Span(make([]float64, n), y1, y2)
	z = make([]float64, n)
	for i := range z {
		z[i] = bilinear(img, xs[i], ys[i], true)
	}
	return r, z, nil
}

// SquareCrop returns the top-left m×m corner of img. If m is not
// positive, the smaller side of img is used. Odd sizes are reduced by one.
func SquareCrop(img *sparse.DenseArray, m int) (*sparse.DenseArray, error) {
	if err := image(img); err != nil {
		return nil, err
	}
	nr, nc := img.Shape[0], img.Shape[1]
	if m <= 0 || m > nr || m > nc {
		m = nr
		if nc < m {
			m = nc
		}
	}
	m -= m % 2
	o := sparse.ZerosDense(m, m)
	for i := 0; i < m; i++ {
		copy(o.Elements[i*m:(i+1)*m], img.Elements[i*nc:i*nc+m])
	}
	return o, nil
}

// LineCrop keeps the parts of the line (x, y) that lie within each
// [start, stop] pair of bounds. bounds holds start, stop, start, stop, ...
// and x must be increasing.
func LineCrop(x, y, bounds []float64) (xc, yc []float64, err error) {
	if len(bounds)%2 != 0 {
		return nil, nil, fmt.Errorf("tools: crop bounds must come in start, stop pairs, have %d values", len(bounds))
	}
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("tools: x has %d values and y has %d", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, nil, nil
	}
	idx := make([]int, len(bounds))
	for k, b := range bounds {
		i := sort.SearchFloat64s(x, b)
		if i == len(x) {
			i = len(x) - 1
		}
		idx[k] = i
	}
	for k := 0; k < len(idx); k += 2 {
		if idx[k] > idx[k+1] {
			continue
		}
		xc = append(xc, x[idx[k]:idx[k+1]+1]...)
		yc = append(yc, y[idx[k]:idx[k+1]+1]...)
	}
	return xc, yc, nil
}

// RemovePolynomial1D fits a polynomial of degree n to the part of y(x)
// that lies within fitRange and returns y minus the polynomial. If x is
// nil, n evenly spaced points on [0, 1] are used; if fitRange is nil, the
// whole line is fitted.
func RemovePolynomial1D(y []float64, n int, x, fitRange []float64) ([]float64, error) {
	if x == nil {
		x = floats.Span(make([]float64, len(y)), 0, 1)
	}
	if fitRange == nil {
		fitRange = []float64{x[0], x[len(x)-1]}
	}
	xb, yb, err := LineCrop(x, y, fitRange)
	if err != nil {
		return nil, err
	}
	c, err := polyfit(xb, yb, n)
	if err != nil {
		return nil, err
	}
	o := make([]float64, len(y))
	for i, v := range x {
		o[i] = y[i] - polyval(c, v)
	}
	return o, nil
}

// polyfit returns the least-squares coefficients of a polynomial of
// degree n through (x, y), constant term first.
func polyfit(x, y []float64, n int) ([]float64, error) {
	if n < 0 || len(x) < n+1 {
		return nil, fmt.Errorf("tools: cannot fit a degree %d polynomial to %d points", n, len(x))
	}
	a := mat.NewDense(len(x), n+1, nil)
	for i, v := range x {
		p := 1.0
		for j := 0; j <= n; j++ {
			a.Set(i, j, p)
			p *= v
		}
	}
	var c mat.VecDense
	if err := c.SolveVec(a, mat.NewVecDense(len(y), append([]float64{}, y...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("tools: polynomial fit: %w", err)
		}
	}
	return c.RawVector().Data, nil
}

func polyval(c []float64, x float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// LineSubtract removes a polynomial background of degree n from each row
// of a 2-D image, or from each row of each layer of a 3-D array.
func LineSubtract(data *sparse.DenseArray, n int) (*sparse.DenseArray, error) {
	return perLayer(data, func(img *sparse.DenseArray) (*sparse.DenseArray, error) {
		nr, nc := img.Shape[0], img.Shape[1]
		o := sparse.ZerosDense(nr, nc)
		for i := 0; i < nr; i++ {
			row, err := RemovePolynomial1D(img.Elements[i*nc:(i+1)*nc], n, nil, nil)
			if err != nil {
				return nil, fmt.Errorf("tools: row %d: %w", i, err)
			}
			copy(o.Elements[i*nc:], row)
		}
		return o, nil
	})
}

// DefaultPeakSamples is the number of points FindPeaks resamples a line
// to when nx is not positive.
const DefaultPeakSamples = 1000

// FindPeaks resamples y(x) linearly at nx points and returns the
// positions and values of the n largest turning points, where the
// derivative changes sign, largest first. x must be strictly increasing.
// If there are no turning points, n zeros are returned.
func FindPeaks(x, y []float64, n, nx int) (xp, yp []float64, err error) {
	if nx <= 0 {
		nx = DefaultPeakSamples
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(x, y); err != nil {
		return nil, nil, fmt.Errorf("tools: find peaks: %w", err)
	}
	xx := floats.Span(make([]float64, nx), x[0], x[len(x)-1])
	fx := make([]float64, nx)
	for i, v := range xx {
		fx[i] = pl.Predict(v)
	}
	df := gradient(fx)
	type peak struct{ x, y float64 }
	var peaks []peak
	for i := 1; i < len(df); i++ {
		if df[i]*df[i-1] < 0 {
			peaks = append(peaks, peak{xx[i], fx[i]})
		}
	}
	if len(peaks) == 0 {
		return make([]float64, n), make([]float64, n), nil
	}
	sort.SliceStable(peaks, func(i, j int) bool { return peaks[i].y > peaks[j].y })
	if len(peaks) > n {
		peaks = peaks[:n]
	}
	for _, p := range peaks {
		xp = append(xp, p.x)
		yp = append(yp, p.y)
	}
	return xp, yp, nil
}

// gradient returns central differences of f with unit spacing, and
// one-sided differences at the ends.
func gradient(f []float64) []float64 {
	n := len(f)
	g := make([]float64, n)
	if n < 2 {
		return g
	}
	g[0] = f[1] - f[0]
	g[n-1] = f[n-1] - f[n-2]
	for i := 1; i < n-1; i++ {
		g[i] = (f[i+1] - f[i-1]) / 2
	}
	return g
}
