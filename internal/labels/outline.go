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

package labels

// Offsets of the 8-neighborhood, as (dx, dy) pairs
var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Calculates the edge mask of a label image. An object pixel is an edge pixel
// if any of its 8 neighbors carries a different label, background included,
// or if it lies on the image border. Background pixels are never edge pixels.
func Outline(l *Labels) []bool {
	edges := make([]bool, len(l.Data))
	w, h := l.Width, l.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			v := l.Data[i]
			if v == 0 {
				continue
			}
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				edges[i] = true
				continue
			}
			for _, n := range neighbors8 {
				if l.Data[i+n[1]*w+n[0]] != v {
					edges[i] = true
					break
				}
			}
		}
	}
	return edges
}
