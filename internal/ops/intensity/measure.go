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

// Package intensity holds the pipeline operators for per-object intensity
// measurement: measuring, saving object outlines, and exporting features.
package intensity

import (
	"encoding/json"

	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/marcosterland/CellProfiler/internal/measure"
	"github.com/marcosterland/CellProfiler/internal/ops"
)

// Measures object intensities of every declared object set in every declared
// image, recording the features into the frame's measurements.
// Takes one input, produces one output
type OpMeasureObjectIntensity struct {
	ops.OpUnaryBase
	Settings        measure.Settings `json:"settings"`
	ContinueOnError bool             `json:"continueOnError"` // log failed pairs instead of failing the frame
}

func init() { ops.SetOperatorFactory(func() ops.Operator { return NewOpMeasureObjectIntensityDefault() }) } // register the operator for JSON decoding

func NewOpMeasureObjectIntensityDefault() *OpMeasureObjectIntensity {
	return NewOpMeasureObjectIntensity(measure.NewSettings([]string{"DNA"}, []string{"Nuclei"}))
}

func NewOpMeasureObjectIntensity(settings *measure.Settings) *OpMeasureObjectIntensity {
	op := &OpMeasureObjectIntensity{
		OpUnaryBase: ops.OpUnaryBase{OpBase: ops.OpBase{Type: "measureObjectIntensity", Active: true}},
		Settings:    *settings,
	}
	op.OpUnaryBase.Apply = op.Apply // assign class method to superclass abstract method
	return op
}

// Unmarshal the type from JSON with default values for missing entries
func (op *OpMeasureObjectIntensity) UnmarshalJSON(data []byte) error {
	type defaults OpMeasureObjectIntensity
	def := defaults(*NewOpMeasureObjectIntensityDefault())
	if err := json.Unmarshal(data, &def); err != nil {
		return err
	}
	*op = OpMeasureObjectIntensity(def)
	op.OpUnaryBase.Apply = op.Apply // make method receiver point to op, not def
	return op.Settings.Validate()
}

// Returns the measurer for this operator in the given context
func (op *OpMeasureObjectIntensity) Measurer(c *ops.Context) *measure.Measurer {
	m := measure.NewMeasurer(&op.Settings, measure.DefaultFeatures())
	m.MaxThreads = c.MaxThreads
	m.Log = c.Log
	return m
}

func (op *OpMeasureObjectIntensity) Apply(f *frame.Frame, c *ops.Context) (*frame.Frame, error) {
	err := op.Measurer(c).Run(f, f.Measurements)
	if err != nil && !op.ContinueOnError {
		return nil, err
	}
	return f, nil
}
