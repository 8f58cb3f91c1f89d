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

package stmpy

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// ToEnergyFirst returns a copy of a with its last axis moved to the
// front: element (i, j, e) of a stored [x, y, energy] map becomes element
// (e, i, j).
func ToEnergyFirst(a *sparse.DenseArray) (*sparse.DenseArray, error) {
	return rotate(a, true)
}

// ToEnergyLast is the inverse of ToEnergyFirst: it moves the first axis
// of a to the back.
func ToEnergyLast(a *sparse.DenseArray) (*sparse.DenseArray, error) {
	return rotate(a, false)
}

func rotate(a *sparse.DenseArray, toFront bool) (*sparse.DenseArray, error) {
	n := len(a.Shape)
	if n < 2 {
		return nil, fmt.Errorf("%w: shape %v", ErrRank, a.Shape)
	}
	// perm[k] is the input axis that becomes output axis k.
	perm := make([]int, n)
	for k := range perm {
		if toFront {
			perm[k] = (k + n - 1) % n
		} else {
			perm[k] = (k + 1) % n
		}
	}
	shape := make([]int, n)
	for k, p := range perm {
		shape[k] = a.Shape[p]
	}
	o := sparse.ZerosDense(shape...)
	if len(a.Elements) == 0 {
		return o, nil
	}

	// Output strides, indexed by input axis.
	stride := make([]int, n)
	s := 1
	for k := n - 1; k >= 0; k-- {
		stride[perm[k]] = s
		s *= shape[k]
	}
	sub := make([]int, n)
	for _, v := range a.Elements {
		idx := 0
		for k, x := range sub {
			idx += x * stride[k]
		}
		o.Elements[idx] = v
		for k := n - 1; k >= 0; k-- {
			sub[k]++
			if sub[k] < a.Shape[k] {
				break
			}
			sub[k] = 0
		}
	}
	return o, nil
}
