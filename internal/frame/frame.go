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

package frame

import (
	"fmt"
	"sort"

	"github.com/marcosterland/CellProfiler/internal/labels"
	"github.com/marcosterland/CellProfiler/internal/measurements"
)

// An intensity image. Data is stored row-major, X varying fastest.
// Values are unconstrained in sign and range.
type Image struct {
	Width  int
	Height int
	Data   []float64
}

// Creates a zero-valued intensity image of the given size
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Data: make([]float64, width*height)}
}

// Creates an intensity image from rows of equal length. Values are copied
func NewImageFromRows(rows [][]float64) (*Image, error) {
	if len(rows) == 0 {
		return NewImage(0, 0), nil
	}
	img := NewImage(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != img.Width {
			return nil, fmt.Errorf("row %d has %d columns; want %d", y, len(row), img.Width)
		}
		copy(img.Data[y*img.Width:], row)
	}
	return img, nil
}

// Returns the value at the given position
func (img *Image) At(x, y int) float64 { return img.Data[y*img.Width+x] }

// Sets the value at the given position
func (img *Image) Set(x, y int, v float64) { img.Data[y*img.Width+x] = v }

// Pretty print the dimensions, e.g. 640x480
func (img *Image) DimensionsToString() string {
	return fmt.Sprintf("%dx%d", img.Width, img.Height)
}

// A processing unit: the named intensity images and named label images
// (object sets) of one field of view. Created fresh per unit by the pipeline.
type Frame struct {
	ID           int                       // Sequential ID number, for log output
	Images       map[string]*Image         // Intensity images by image name
	Objects      map[string]*labels.Labels // Label images by object set name
	Files        map[string]string         // Source file per image or object set name, if loaded from disk
	Measurements *measurements.Store       // Features measured on this frame
}

// Creates an empty frame
func NewFrame(id int) *Frame {
	return &Frame{
		ID:           id,
		Images:       make(map[string]*Image),
		Objects:      make(map[string]*labels.Labels),
		Files:        make(map[string]string),
		Measurements: measurements.NewStore(),
	}
}

// Adds or replaces a named intensity image
func (f *Frame) AddImage(name string, img *Image) { f.Images[name] = img }

// Adds or replaces a named object set
func (f *Frame) AddObjects(name string, l *labels.Labels) { f.Objects[name] = l }

// Returns the names of all intensity images, sorted
func (f *Frame) ImageNames() []string {
	names := make([]string, 0, len(f.Images))
	for name := range f.Images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Returns the names of all object sets, sorted
func (f *Frame) ObjectNames() []string {
	names := make([]string, 0, len(f.Objects))
	for name := range f.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
