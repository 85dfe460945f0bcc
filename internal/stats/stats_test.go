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
	"testing"

	"github.com/valyala/fastrand"
)

func TestReduce(t *testing.T) {
	epsilon := 1e-12
	tcs := []struct {
		name   string
		values []float64
		want   Summary
	}{
		{"ones", []float64{1, 1, 1, 1}, Summary{Sum: 4, Mean: 1, StdDev: 0, Min: 1, Max: 1}},
		{"single", []float64{-2.5}, Summary{Sum: -2.5, Mean: -2.5, StdDev: 0, Min: -2.5, Max: -2.5}},
		{"pop std", []float64{2, 4, 4, 4, 5, 5, 7, 9}, Summary{Sum: 40, Mean: 5, StdDev: 2, Min: 2, Max: 9}},
	}
	for _, tc := range tcs {
		got := Reduce(tc.values)
		fields := []struct {
			name      string
			got, want float64
		}{
			{"Sum", got.Sum, tc.want.Sum},
			{"Mean", got.Mean, tc.want.Mean},
			{"StdDev", got.StdDev, tc.want.StdDev},
			{"Min", got.Min, tc.want.Min},
			{"Max", got.Max, tc.want.Max},
		}
		for _, f := range fields {
			if math.Abs(f.got-f.want) > epsilon {
				t.Errorf("%s: %s=%g; want %g", tc.name, f.name, f.got, f.want)
			}
		}
	}
}

func TestReduceEmpty(t *testing.T) {
	s := Reduce(nil)
	if s.Sum != 0 {
		t.Errorf("Sum=%g; want 0", s.Sum)
	}
	for name, v := range map[string]float64{"Mean": s.Mean, "StdDev": s.StdDev, "Min": s.Min, "Max": s.Max} {
		if !math.IsNaN(v) {
			t.Errorf("%s=%g; want NaN", name, v)
		}
	}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tcs := []struct {
		p, want float64
	}{
		{0, 1}, {0.25, 2}, {0.5, 3}, {0.75, 4}, {1, 5}, {0.1, 1.4}, {0.9, 4.6},
	}
	for _, tc := range tcs {
		if got := Quantile(sorted, tc.p); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Quantile(1..5, %g)=%g; want %g", tc.p, got, tc.want)
		}
	}
	if got := Quantile(nil, 0.5); !math.IsNaN(got) {
		t.Errorf("Quantile(nil)=%g; want NaN", got)
	}
}

func TestQuartilesSinglePixel(t *testing.T) {
	lower, median, upper := Quartiles([]float64{0.42})
	if lower != 0.42 || median != 0.42 || upper != 0.42 {
		t.Errorf("quartiles=(%g,%g,%g); want 0.42 each", lower, median, upper)
	}
}

func TestQuartilesUniform(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(12345)
	values := make([]float64, 250*250)
	for i := range values {
		values[i] = float64(rng.Uint32()) / (1 << 32)
	}
	lower, median, upper := Quartiles(values)
	for _, tc := range []struct {
		name      string
		got, want float64
	}{{"lower", lower, 0.25}, {"median", median, 0.5}, {"upper", upper, 0.75}} {
		if math.Abs(tc.got-tc.want) > 0.01 {
			t.Errorf("%s=%g; want %g +/- 0.01", tc.name, tc.got, tc.want)
		}
	}
}

func TestCentroidZeroWeights(t *testing.T) {
	rows := []float64{0, 1, 2}
	cols := []float64{0, 0, 0}
	if _, _, ok := Centroid(rows, cols, []float64{0, 0, 0}); ok {
		t.Errorf("Centroid with zero weights ok=true; want false")
	}
	r, c, ok := Centroid(rows, cols, nil)
	if !ok || r != 1 || c != 0 {
		t.Errorf("Centroid=(%g,%g,%v); want (1,0,true)", r, c, ok)
	}
}

func TestMassDisplacement(t *testing.T) {
	// 5x5 block, single bright pixel in the corner
	var rows, cols, weights []float64
	for y := 1; y <= 5; y++ {
		for x := 1; x <= 5; x++ {
			rows = append(rows, float64(y))
			cols = append(cols, float64(x))
			w := 0.0
			if x == 1 && y == 1 {
				w = 1
			}
			weights = append(weights, w)
		}
	}
	if got := MassDisplacement(rows, cols, weights); math.Abs(got-math.Sqrt(8)) > 1e-12 {
		t.Errorf("MassDisplacement=%g; want %g", got, math.Sqrt(8))
	}
	for i := range weights {
		weights[i] = 0
	}
	if got := MassDisplacement(rows, cols, weights); got != 0 {
		t.Errorf("MassDisplacement(zero mass)=%g; want 0", got)
	}
	if got := MassDisplacement(nil, nil, nil); !math.IsNaN(got) {
		t.Errorf("MassDisplacement(empty)=%g; want NaN", got)
	}
}
