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

// Pixel index of a label image: for each label 1..n, the offsets of its pixels
// into the row-major data array, in increasing order.
type Index struct {
	Width   int
	offsets [][]int32
}

// Gathers the pixels of labels 1..n. Labels outside that range are ignored.
// All pixel lists share one backing array, sized by a first counting pass.
func NewIndex(l *Labels, n int) *Index {
	if n < 0 {
		n = 0
	}
	counts := make([]int, n+1)
	total := 0
	for _, v := range l.Data {
		if v > 0 && int(v) <= n {
			counts[v]++
			total++
		}
	}

	backing := make([]int32, total)
	offsets := make([][]int32, n)
	start := 0
	for k := 1; k <= n; k++ {
		offsets[k-1] = backing[start : start : start+counts[k]]
		start += counts[k]
	}
	for i, v := range l.Data {
		if v > 0 && int(v) <= n {
			offsets[v-1] = append(offsets[v-1], int32(i))
		}
	}
	return &Index{Width: l.Width, offsets: offsets}
}

// Returns the number of labels covered by the index
func (ix *Index) Len() int { return len(ix.offsets) }

// Returns the pixel offsets of the given label, 1-based. Empty for absent labels
func (ix *Index) Pixels(label int) []int32 { return ix.offsets[label-1] }

// Returns the sub-index of pixels for which mask is true
func (ix *Index) Restrict(mask []bool) *Index {
	offsets := make([][]int32, len(ix.offsets))
	for k, pix := range ix.offsets {
		var kept []int32
		for _, o := range pix {
			if mask[o] {
				kept = append(kept, o)
			}
		}
		offsets[k] = kept
	}
	return &Index{Width: ix.Width, offsets: offsets}
}

// Gathers the values at the given offsets into dest, which is grown as needed
func Gather(dest []float64, data []float64, offsets []int32) []float64 {
	dest = dest[:0]
	for _, o := range offsets {
		dest = append(dest, data[o])
	}
	return dest
}

// Splits pixel offsets into row and column coordinates
func Coordinates(offsets []int32, width int) (rows, cols []float64) {
	rows = make([]float64, len(offsets))
	cols = make([]float64, len(offsets))
	for i, o := range offsets {
		rows[i] = float64(int(o) / width)
		cols[i] = float64(int(o) % width)
	}
	return rows, cols
}
