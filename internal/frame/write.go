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
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/marcosterland/CellProfiler/internal/labels"
	"golang.org/x/image/tiff"
)

// Renders the edge pixels of a label image, one color per object on black.
// The palette is generated per call, so colors are not stable across calls.
func RenderOutlines(l *labels.Labels, edges []bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, l.Width, l.Height))
	black := color.RGBA{0, 0, 0, 255}
	numColors := l.Max()
	if numColors < 1 {
		numColors = 1
	}
	palette := colorful.FastHappyPalette(numColors)
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			i := y*l.Width + x
			v := l.Data[i]
			if v <= 0 || !edges[i] {
				img.SetRGBA(x, y, black)
				continue
			}
			r, g, b := palette[v-1].Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}
	return img
}

// Writes an outline preview of the given label image to file. The format is
// selected by file suffix, e.g. .png, .jpg or .tif
func WriteOutlines(fileName string, l *labels.Labels, edges []bool) error {
	img := RenderOutlines(l, edges)
	if !isTIFF(fileName) {
		return imaging.Save(img, fileName)
	}

	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if err := tiff.Encode(writer, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return err
	}
	return writer.Flush()
}
