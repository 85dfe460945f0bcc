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

// Package measure computes per-object intensity statistics from a label image
// and a co-registered intensity image.
//
// For every object number 1..n, it reports integrated, mean, standard
// deviation, minimum and maximum intensity over all object pixels and over
// the object's edge pixels, the mass displacement between the geometric and
// the intensity-weighted centroid, and the intensity quartiles.
//
// Edge pixels are object pixels with at least one 8-neighbor of a different
// label, or on the image border. Rows for object numbers that do not occur in
// the label image are kept: their sums are 0 and all other values are NaN.
package measure

import (
	"errors"
	"fmt"
	"sync"

	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/marcosterland/CellProfiler/internal/labels"
	"github.com/marcosterland/CellProfiler/internal/stats"
)

// Matched by errors.Is for every ShapeMismatchError
var ErrShapeMismatch = errors.New("label and intensity image dimensions differ")

// Label image and intensity image have different dimensions
type ShapeMismatchError struct {
	LabelWidth, LabelHeight int
	ImageWidth, ImageHeight int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("label image %dx%d does not match intensity image %dx%d",
		e.LabelWidth, e.LabelHeight, e.ImageWidth, e.ImageHeight)
}

func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// Pool of gather buffers, to reduce memory allocation overhead across calls
var bufferPool = sync.Pool{New: func() interface{} { return new([]float64) }}

// Per-object values by statistic name. Row i holds object number i+1
type Result map[string][]float64

// Returns the number of objects in the result
func (r Result) Len() int { return len(r[IntegratedIntensity]) }

// Measures all intensity statistics of the objects 1..nObjects.
// With nObjects<0, the largest label in the image is used.
func Measure(l *labels.Labels, img *frame.Image, nObjects int) (Result, error) {
	if l.Width != img.Width || l.Height != img.Height {
		return nil, &ShapeMismatchError{l.Width, l.Height, img.Width, img.Height}
	}
	if nObjects < 0 {
		nObjects = l.Max()
	}

	res := make(Result, len(AllMeasurements))
	for _, name := range AllMeasurements {
		res[name] = make([]float64, nObjects)
	}
	if nObjects == 0 {
		return res, nil
	}

	index := labels.NewIndex(l, nObjects)
	edgeIndex := index.Restrict(labels.Outline(l))

	pooled := bufferPool.Get().(*[]float64)
	buffer := *pooled
	defer func() {
		*pooled = buffer[:0]
		bufferPool.Put(pooled)
	}()

	for k := 0; k < nObjects; k++ {
		pixels := index.Pixels(k + 1)

		// edge statistics first, reusing the gather buffer
		buffer = labels.Gather(buffer, img.Data, edgeIndex.Pixels(k+1))
		edge := stats.Reduce(buffer)
		res[IntegratedIntensityEdge][k] = edge.Sum
		res[MeanIntensityEdge][k] = edge.Mean
		res[StdIntensityEdge][k] = edge.StdDev
		res[MinIntensityEdge][k] = edge.Min
		res[MaxIntensityEdge][k] = edge.Max

		buffer = labels.Gather(buffer, img.Data, pixels)
		all := stats.Reduce(buffer)
		res[IntegratedIntensity][k] = all.Sum
		res[MeanIntensity][k] = all.Mean
		res[StdIntensity][k] = all.StdDev
		res[MinIntensity][k] = all.Min
		res[MaxIntensity][k] = all.Max

		rows, cols := labels.Coordinates(pixels, l.Width)
		res[MassDisplacement][k] = stats.MassDisplacement(rows, cols, buffer)

		// sorts the buffer in place, so comes last
		lower, median, upper := stats.Quartiles(buffer)
		res[LowerQuartileIntensity][k] = lower
		res[MedianIntensity][k] = median
		res[UpperQuartileIntensity][k] = upper
	}
	return res, nil
}
