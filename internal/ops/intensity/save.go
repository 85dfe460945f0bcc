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

package intensity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/marcosterland/CellProfiler/internal/labels"
	"github.com/marcosterland/CellProfiler/internal/ops"
)

// Expands %d in a file pattern with the frame ID
func expandPattern(pattern string, id int) string {
	if strings.Contains(pattern, "%d") {
		return fmt.Sprintf(pattern, id)
	}
	return pattern
}

// Saves the outlines of an object set as a color image, under a given filename
// with pattern expansion for %d based on the frame id.
// Takes one input, produces one output (the unchanged input)
type OpSaveOutlines struct {
	ops.OpUnaryBase
	ObjectName  string `json:"objectName"`
	FilePattern string `json:"filePattern"`
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpSaveOutlinesDefault() }) } // register the operator for JSON decoding

func NewOpSaveOutlinesDefault() *OpSaveOutlines { return NewOpSaveOutlines("Nuclei", "") }

func NewOpSaveOutlines(objectName, filePattern string) *OpSaveOutlines {
	op := &OpSaveOutlines{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "saveOutlines", Active: true}},
		ObjectName:  objectName,
		FilePattern: filePattern,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpSaveOutlines) UnmarshalJSON(data []byte) error {
	type defaults OpSaveOutlines
	def := defaults(*NewOpSaveOutlinesDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpSaveOutlines(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpSaveOutlines) Apply(f *frame.Frame, c *ops.Context) (*frame.Frame, error) {
	if op.FilePattern == "" {
		return f, nil
	}
	l, ok := f.Objects[op.ObjectName]
	if !ok {
		return nil, fmt.Errorf("%d: no object set %s to outline", f.ID, op.ObjectName)
	}
	fileName := expandPattern(op.FilePattern, f.ID)
	if err := c.CheckPath(fileName); err != nil {
		return nil, err
	}
	c.Log.Info().Int("frame", f.ID).Str("objects", op.ObjectName).Str("size", l.DimensionsToString()).
		Str("file", fileName).Msg("writing outlines")
	if err := frame.WriteOutlines(fileName, l, labels.Outline(l)); err != nil {
		return nil, fmt.Errorf("%d: error writing to file %s: %w", f.ID, fileName, err)
	}
	return f, nil
}

// Exports the measured features of an object set as CSV, under a given filename
// with pattern expansion for %d based on the frame id.
// Takes one input, produces one output (the unchanged input)
type OpExportCSV struct {
	ops.OpUnaryBase
	ObjectName  string `json:"objectName"`
	FilePattern string `json:"filePattern"`
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpExportCSVDefault() }) } // register the operator for JSON decoding

func NewOpExportCSVDefault() *OpExportCSV { return NewOpExportCSV("Nuclei", "") }

func NewOpExportCSV(objectName, filePattern string) *OpExportCSV {
	op := &OpExportCSV{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "exportCSV", Active: true}},
		ObjectName:  objectName,
		FilePattern: filePattern,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpExportCSV) UnmarshalJSON(data []byte) error {
	type defaults OpExportCSV
	def := defaults(*NewOpExportCSVDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpExportCSV(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return nil
}

func (op *OpExportCSV) Apply(f *frame.Frame, c *ops.Context) (*frame.Frame, error) {
	if op.FilePattern == "" {
		return f, nil
	}
	fileName := expandPattern(op.FilePattern, f.ID)
	if err := c.CheckPath(fileName); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Measurements.WriteCSV(&buf, op.ObjectName); err != nil {
		return nil, err
	}
	c.Log.Info().Int("frame", f.ID).Str("objects", op.ObjectName).Str("file", fileName).Msg("writing measurements")
	if err := os.WriteFile(fileName, buf.Bytes(), 0666); err != nil {
		return nil, fmt.Errorf("%d: error writing to file %s: %w", f.ID, fileName, err)
	}
	return f, nil
}
