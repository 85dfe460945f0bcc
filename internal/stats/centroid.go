// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Calculates the center of mass of the given coordinates. With nil weights,
// this is the plain geometric centroid. Returns ok=false if there are no
// coordinates, or if the weights sum to zero.
func Centroid(rows, cols, weights []float64) (row, col float64, ok bool) {
	if len(rows) == 0 {
		return math.NaN(), math.NaN(), false
	}
	if weights != nil && floats.Sum(weights) == 0 {
		return math.NaN(), math.NaN(), false
	}
	return stat.Mean(rows, weights), stat.Mean(cols, weights), true
}

// Calculates the distance between the geometric centroid and the center of mass
// when each coordinate is weighted by its intensity. Zero total intensity is
// treated as no displacement. Empty input yields NaN.
func MassDisplacement(rows, cols, intensities []float64) float64 {
	r, c, ok := Centroid(rows, cols, nil)
	if !ok {
		return math.NaN()
	}
	wr, wc, ok := Centroid(rows, cols, intensities)
	if !ok {
		return 0
	}
	return math.Hypot(wr-r, wc-c)
}
