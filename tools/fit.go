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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/optimize"
)

// Gaussian2D holds the parameters of an elliptical 2-D Gaussian on a
// constant background. Theta is the rotation of the ellipse in radians.
type Gaussian2D struct {
	Amplitude, X0, Y0, SigmaX, SigmaY, Theta, Offset float64
}

func (g Gaussian2D) params() []float64 {
	return []float64{g.Amplitude, g.X0, g.Y0, g.SigmaX, g.SigmaY, g.Theta, g.Offset}
}

func gaussian2DFrom(p []float64) Gaussian2D {
	return Gaussian2D{p[0], p[1], p[2], p[3], p[4], p[5], p[6]}
}

// At returns the value of g at (x, y).
func (g Gaussian2D) At(x, y float64) float64 {
	sin, cos := math.Sincos(g.Theta)
	sin2 := math.Sin(2 * g.Theta)
	a := 0.5*sq(cos/g.SigmaX) + 0.5*sq(sin/g.SigmaY)
	b := -sin2/sq(2*g.SigmaX) + sin2/sq(2*g.SigmaY)
	c := 0.5*sq(sin/g.SigmaX) + 0.5*sq(cos/g.SigmaY)
	dx, dy := x-g.X0, y-g.Y0
	return g.Offset + g.Amplitude*math.Exp(-(a*dx*dx-2*b*dx*dy+c*dy*dy))
}

// Image evaluates g on a grid of nr rows and nc columns.
func (g Gaussian2D) Image(nr, nc int) *sparse.DenseArray {
	o := sparse.ZerosDense(nr, nc)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			o.Elements[i*nc+j] = g.At(float64(j), float64(i))
		}
	}
	return o
}

func sq(x float64) float64 { return x * x }

// fitSettings bounds the least-squares searches.
func fitSettings() *optimize.Settings {
	return &optimize.Settings{
		MajorIterations: 20000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 200,
		},
	}
}

// leastSquares minimizes the sum of squared residuals computed by
// residuals, starting from p0.
func leastSquares(p0 []float64, residuals func(p []float64) float64) ([]float64, error) {
	prob := optimize.Problem{Func: residuals}
	res, err := optimize.Minimize(prob, p0, fitSettings(), &optimize.NelderMead{})
	if err != nil {
		return nil, err
	}
	return res.X, nil
}

// FitGaussian2D fits an elliptical Gaussian to img starting from p0. It
// returns the fitted parameters and the fitted surface.
func FitGaussian2D(img *sparse.DenseArray, p0 Gaussian2D) (Gaussian2D, *sparse.DenseArray, error) {
	if err := image(img); err != nil {
		return Gaussian2D{}, nil, err
	}
	nr, nc := img.Shape[0], img.Shape[1]
	p, err := leastSquares(p0.params(), func(p []float64) float64 {
		g := gaussian2DFrom(p)
		var s float64
		for i := 0; i < nr; i++ {
			for j := 0; j < nc; j++ {
				s += sq(g.At(float64(j), float64(i)) - img.Elements[i*nc+j])
			}
		}
		return s
	})
	if err != nil {
		return Gaussian2D{}, nil, fmt.Errorf("tools: 2-D Gaussian fit: %w", err)
	}
	g := gaussian2DFrom(p)
	return g, g.Image(nr, nc), nil
}

// gaussians evaluates a sum of Gaussians with parameters
// amplitude, mean, sigma, amplitude, mean, sigma, ... at x. Amplitudes
// are taken as absolute values.
func gaussians(p []float64, x float64) float64 {
	var g float64
	for i := 0; i+2 < len(p); i += 3 {
		g += math.Abs(p[i]) * math.Exp(-sq(x-p[i+1])/(2*sq(p[i+2])))
	}
	return g
}

// FitGaussians1D fits a sum of Gaussians to y(x). p0 holds the starting
// amplitude, mean and sigma of each Gaussian in turn. It returns the
// fitted parameters and the fitted curve.
func FitGaussians1D(x, y, p0 []float64) (p, fit []float64, err error) {
	if len(p0) == 0 || len(p0)%3 != 0 {
		return nil, nil, fmt.Errorf("tools: Gaussian parameters must come in amplitude, mean, sigma triples, have %d values", len(p0))
	}
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("tools: x has %d values and y has %d", len(x), len(y))
	}
	p, err = leastSquares(append([]float64{}, p0...), func(p []float64) float64 {
		var s float64
		for i, v := range x {
			s += sq(gaussians(p, v) - y[i])
		}
		return s
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tools: Gaussian fit: %w", err)
	}
	fit = make([]float64, len(x))
	for i, v := range x {
		fit[i] = gaussians(p, v)
	}
	return p, fit, nil
}

// RemoveGaussian2D suppresses an isotropic Gaussian of width sigma
// centered at (x0, y0) by multiplying img by one minus the Gaussian.
func RemoveGaussian2D(img *sparse.DenseArray, x0, y0, sigma float64) (*sparse.DenseArray, error) {
	return perLayer(img, func(l *sparse.DenseArray) (*sparse.DenseArray, error) {
		nr, nc := l.Shape[0], l.Shape[1]
		a := -0.5 / sq(sigma)
		o := sparse.ZerosDense(nr, nc)
		for i := 0; i < nr; i++ {
			for j := 0; j < nc; j++ {
				g := math.Exp(a*sq(float64(j)-x0) + a*sq(float64(i)-y0))
				o.Elements[i*nc+j] = l.Elements[i*nc+j] * (1 - g)
			}
		}
		return o, nil
	})
}

// FindOtherBraggPeaks returns the n harmonics on either side of the Bragg
// peak (bpx, bpy) in a Fourier transform of nc columns and nr rows whose
// zero frequency is at the center. r is the distance of the given peak
// from the center.
func FindOtherBraggPeaks(nc, nr int, bpx, bpy float64, n int) (px, py []float64, r float64) {
	cx, cy := float64(nc)/2, float64(nr)/2
	dx, dy := bpx-cx, bpy-cy
	for i := -n; i <= n; i++ {
		if i == 0 {
			continue
		}
		px = append(px, cx+float64(i)*dx)
		py = append(py, cy+float64(i)*dy)
	}
	return px, py, math.Hypot(dx, dy)
}
