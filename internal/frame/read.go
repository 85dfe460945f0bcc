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
	"bufio"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/marcosterland/CellProfiler/internal/labels"
	"github.com/rs/zerolog"
	"golang.org/x/image/tiff"
)

// Returns true if the file name has a TIFF suffix
func isTIFF(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	return ext == ".tif" || ext == ".tiff"
}

// Decodes an image file. TIFF goes straight through the TIFF decoder so 16-bit
// grayscale survives unchanged, anything else through imaging.
func decodeFile(fileName string) (image.Image, error) {
	if !isTIFF(fileName) {
		img, err := imaging.Open(fileName)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s: %w", fileName, err)
		}
		return img, nil
	}
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := tiff.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", fileName, err)
	}
	return img, nil
}

// Reads an intensity image from file. Gray values are scaled to [0,1] by the
// bit depth of the file, colors are converted to 16-bit luminance first.
func ReadImage(fileName string) (*Image, error) {
	img, err := decodeFile(fileName)
	if err != nil {
		return nil, err
	}
	return ImageFromGo(img), nil
}

// Converts a decoded Go image into an intensity image scaled to [0,1]
func ImageFromGo(src image.Image) *Image {
	b := src.Bounds()
	img := NewImage(b.Dx(), b.Dy())
	switch s := src.(type) {
	case *image.Gray:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				img.Data[y*img.Width+x] = float64(s.GrayAt(b.Min.X+x, b.Min.Y+y).Y) / 255
			}
		}
	default:
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				g := color.Gray16Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
				img.Data[y*img.Width+x] = float64(g.Y) / 65535
			}
		}
	}
	return img
}

// Reads a label image from file. Gray values are taken as object numbers
// without scaling. Paletted images use the palette index.
func ReadLabels(fileName string) (*labels.Labels, error) {
	img, err := decodeFile(fileName)
	if err != nil {
		return nil, err
	}
	l, err := LabelsFromGo(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return l, nil
}

// Converts a decoded Go image into a label image
func LabelsFromGo(src image.Image) (*labels.Labels, error) {
	b := src.Bounds()
	l := labels.New(b.Dx(), b.Dy())
	var at func(x, y int) int32
	switch s := src.(type) {
	case *image.Gray:
		at = func(x, y int) int32 { return int32(s.GrayAt(x, y).Y) }
	case *image.Gray16:
		at = func(x, y int) int32 { return int32(s.Gray16At(x, y).Y) }
	case *image.Paletted:
		at = func(x, y int) int32 { return int32(s.ColorIndexAt(x, y)) }
	default:
		return nil, fmt.Errorf("unsupported label image type %T; want 8 or 16 bit grayscale", src)
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			l.Data[y*l.Width+x] = at(b.Min.X+x, b.Min.Y+y)
		}
	}
	return l, nil
}

// Loads a frame from maps of object set and image names to file names
func ReadFrame(id int, objectFiles, imageFiles map[string]string, log zerolog.Logger) (*Frame, error) {
	f := NewFrame(id)
	for name, fileName := range objectFiles {
		l, err := ReadLabels(fileName)
		if err != nil {
			return nil, err
		}
		log.Info().Int("frame", id).Str("objects", name).Str("file", fileName).
			Msgf("loaded %s label image with %d objects", l.DimensionsToString(), l.Count())
		f.AddObjects(name, l)
		f.Files[name] = fileName
	}
	for name, fileName := range imageFiles {
		img, err := ReadImage(fileName)
		if err != nil {
			return nil, err
		}
		log.Info().Int("frame", id).Str("image", name).Str("file", fileName).
			Msgf("loaded %s intensity image", img.DimensionsToString())
		f.AddImage(name, img)
		f.Files[name] = fileName
	}
	return f, nil
}
