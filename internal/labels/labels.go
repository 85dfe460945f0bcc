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

// Package labels holds label images, which partition a 2-D plane into
// numbered objects, and the per-object pixel indices derived from them.
package labels

import "fmt"

// A label image. Data is stored row-major, X varying fastest.
// Value 0 is background, positive values are object numbers.
type Labels struct {
	Width  int
	Height int
	Data   []int32
}

// Creates an all-background label image of the given size
func New(width, height int) *Labels {
	return &Labels{Width: width, Height: height, Data: make([]int32, width*height)}
}

// Creates a label image from rows of equal length. Values are copied
func FromRows(rows [][]int32) (*Labels, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	l := New(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != l.Width {
			return nil, fmt.Errorf("row %d has %d columns; want %d", y, len(row), l.Width)
		}
		copy(l.Data[y*l.Width:], row)
	}
	return l, nil
}

// Returns the label at the given position
func (l *Labels) At(x, y int) int32 { return l.Data[y*l.Width+x] }

// Sets the label at the given position
func (l *Labels) Set(x, y int, v int32) { l.Data[y*l.Width+x] = v }

// Fills the rectangle [x0,x1) x [y0,y1) with the given label
func (l *Labels) Fill(x0, y0, x1, y1 int, v int32) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			l.Data[y*l.Width+x] = v
		}
	}
}

// Returns the largest label value, or 0 for an image without objects
func (l *Labels) Max() int {
	max := int32(0)
	for _, v := range l.Data {
		if v > max {
			max = v
		}
	}
	return int(max)
}

// Returns the number of distinct positive labels present in the image
func (l *Labels) Count() int {
	seen := make(map[int32]struct{})
	for _, v := range l.Data {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Pretty print the dimensions, e.g. 640x480
func (l *Labels) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", l.Width, l.Height)
}
