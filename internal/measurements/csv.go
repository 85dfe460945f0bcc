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

package measurements

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// Writes the features of one object set as CSV. One line per object,
// first column is the 1-based object number, then features in name order.
// Objects missing from shorter feature arrays are left blank.
func (s *Store) WriteCSV(w io.Writer, objectName string) error {
	features := s.FeatureNames(objectName)
	columns := make([][]float64, len(features))
	rows := 0
	for i, f := range features {
		columns[i], _ = s.Read(objectName, f)
		if len(columns[i]) > rows {
			rows = len(columns[i])
		}
	}

	cw := csv.NewWriter(w)
	header := append([]string{"ObjectNumber"}, features...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for r := 0; r < rows; r++ {
		record[0] = strconv.Itoa(r + 1)
		for i, col := range columns {
			record[i+1] = ""
			if r < len(col) {
				record[i+1] = FormatValue(col[r])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Formats a measurement value, with NaN as "nan"
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
