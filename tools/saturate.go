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

	"gonum.org/v1/gonum/floats"
)

// Saturate picks color limits for values that clip the tails of their
// distribution. low and high are percentages between 0 and 100: the lower
// limit is where the cumulative magnitude of the sorted values reaches
// low/2 percent of the total, and the upper limit where it reaches
// (high+100)/2 percent. Passing high = 100-low clips both tails equally.
func Saturate(values []float64, low, high float64) (cmin, cmax float64) {
	if len(values) == 0 {
		return 0, 0
	}
	y := append([]float64{}, values...)
	sort.Float64s(y)
	pdf := make([]float64, len(y))
	for i, v := range y {
		pdf[i] = math.Abs(v)
	}
	total := floats.Sum(pdf)
	if total == 0 {
		return y[0], y[len(y)-1]
	}
	floats.Scale(1/total, pdf)
	floats.CumSum(pdf, pdf)
	nearest := func(level float64) float64 {
		best, d := 0, math.Inf(1)
		for i, p := range pdf {
			if dd := math.Abs(level - p); dd < d {
				best, d = i, dd
			}
		}
		return y[best]
	}
	return nearest(low / 200), nearest((high + 100) / 200)
}
