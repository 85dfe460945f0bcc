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
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic statistics on a set of pixel values
type Summary struct {
	Sum    float64 // Sum of all values. 0 for an empty set
	Mean   float64 // Mean (average)
	StdDev float64 // Population standard deviation (norm 2, sigma)
	Min    float64 // Minimum
	Max    float64 // Maximum
}

// Pretty print summary to string
func (s Summary) String() string {
	return fmt.Sprintf("Sum %.6g Mean %.6g StdDev %.6g Min %.6g Max %.6g",
		s.Sum, s.Mean, s.StdDev, s.Min, s.Max)
}

// Calculates sum, mean, population standard deviation, minimum and maximum.
// An empty set has sum 0 and NaN for all other fields.
func Reduce(values []float64) Summary {
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{Sum: 0, Mean: nan, StdDev: nan, Min: nan, Max: nan}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return Summary{
		Sum:    floats.Sum(values),
		Mean:   mean,
		StdDev: std,
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
}
