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

package ops

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/klauspost/cpuid"
	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
)

// An execution context for operators
type Context struct {
	Log             zerolog.Logger
	MemoryMB        int  // memory.TotalMemory()/1024/1024
	MaxThreads      int  `json:"maxThreads"`
	RestrictedPaths bool // only relative paths inside the working directory may be read or written
}

func NewContext(log zerolog.Logger) *Context {
	return &Context{
		Log:        log,
		MemoryMB:   int(memory.TotalMemory() / 1024 / 1024),
		MaxThreads: runtime.GOMAXPROCS(0),
	}
}

// Logs CPU and memory information for the current host
func (c *Context) LogSystemInfo() {
	c.Log.Info().Str("cpu", cpuid.CPU.BrandName).
		Int("physicalCores", cpuid.CPU.PhysicalCores).
		Int("logicalCores", cpuid.CPU.LogicalCores).
		Bool("avx2", cpuid.CPU.AVX2()).
		Int("memoryMB", c.MemoryMB).
		Int("maxThreads", c.MaxThreads).
		Msg("system")
}

// Returns an error if the path may not be accessed in this context
func (c *Context) CheckPath(p string) error {
	if c.RestrictedPaths && !isPathAllowed(p) {
		return fmt.Errorf("path %s outside current directory tree, aborting", p)
	}
	return nil
}

// Returns true if a path is considered safe, i.e. not an absolute path,
// and doesn't contain the ".." characters to change to a parent directory
func isPathAllowed(p string) bool {
	if filepath.IsAbs(p) {
		return false // relative paths only
	}
	if strings.Contains(p, "..") {
		return false // no going outside the tree
	}
	return true
}

// A promise for a frame. Returns a materialized frame, or an error
type Promise func() (f *frame.Frame, err error)

// Materializes all promises with given concurrency limit. Failed promises
// are dropped from the output, and their errors joined
func MaterializeAll(ins []Promise, maxThreads int, forget bool) (outs []*frame.Frame, err error) {
	if len(ins) == 0 {
		return nil, nil
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	if !forget {
		outs = make([]*frame.Frame, len(ins))
	}
	limiter := make(chan bool, maxThreads)
	errs := make([]error, len(ins))
	for i, in := range ins {
		limiter <- true
		go func(i int, theIn Promise) {
			defer func() { <-limiter }()
			f, err := theIn() // materialize the promise
			if err != nil {
				errs[i] = err
				return
			}
			if !forget {
				outs[i] = f
			}
		}(i, in)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}
	return RemoveNils(outs), errors.Join(errs...)
}

// Remove nils from an array of frames, editing the underlying array in place
func RemoveNils(frames []*frame.Frame) []*frame.Frame {
	o := 0
	for i := 0; i < len(frames); i++ {
		if frames[i] != nil {
			frames[o] = frames[i]
			o++
		}
	}
	for i := o; i < len(frames); i++ {
		frames[i] = nil
	}
	return frames[:o]
}

// A general processing operator: takes n promises as inputs,
// and produces m promises as output or an error
type Operator interface {
	GetType() string
	IsActive() bool
	MakePromises(ins []Promise, c *Context) (outs []Promise, err error)
}

// Base type for operators, including type information for JSON serializing/deserializing
type OpBase struct {
	Type   string `json:"type"`
	Active bool   `json:"active"`
}

func (op *OpBase) GetType() string { return op.Type }
func (op *OpBase) IsActive() bool  { return op.Active }

// Factory method for operators. For JSON serializing/deserializing
type OperatorFactory func() Operator

// Mapping from operator type strings to factory method for the type
var operatorFactories = map[string]OperatorFactory{}

// Returns the operator factory for a given type string
func GetOperatorFactory(t string) OperatorFactory {
	return operatorFactories[t]
}

// Returns all registered operator type strings, sorted
func GetOperatorTypes() []string {
	types := make([]string, 0, len(operatorFactories))
	for t := range operatorFactories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Registers a given type string for a given type of operator, identified via an exemplar generator
func SetOperatorFactory(f OperatorFactory) {
	op := f()
	t := op.GetType()
	if GetOperatorFactory(t) != nil {
		panic(fmt.Sprintf("error: re-registering operator key %s\n", t))
	}
	operatorFactories[t] = f
}

// Abstract base type for unary operators, which apply themselves to each
// input individually. Uses golang workaround for abstract classes
// from https://golangbyexample.com/go-abstract-class/
type OpUnaryBase struct {
	OpBase
	Apply func(f *frame.Frame, c *Context) (fOut *frame.Frame, err error) `json:"-"`
}

func (op *OpUnaryBase) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("%s operator with %d inputs", op.Type, len(ins))
	}
	outs = make([]Promise, len(ins))
	for i, in := range ins {
		outs[i] = op.MakePromise(in, c)
	}
	return outs, nil
}

func (op *OpUnaryBase) MakePromise(in Promise, c *Context) (out Promise) {
	return func() (f *frame.Frame, err error) {
		if f, err = in(); err != nil {
			return nil, err // materialize input promise
		}
		if !op.Active {
			return f, nil
		}
		return op.Apply(f, c) // apply unary operator
	}
}

// Load a single frame from named label and intensity image files.
// Takes zero inputs, produces one output
type OpLoad struct {
	OpBase
	ID      int               `json:"id"`
	Objects map[string]string `json:"objects"` // label image file per object set name
	Images  map[string]string `json:"images"`  // intensity image file per image name
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadDefault() }) } // register the operator for JSON decoding

func NewOpLoadDefault() *OpLoad { return NewOpLoad(0, nil, nil) }

func NewOpLoad(id int, objects, images map[string]string) *OpLoad {
	return &OpLoad{
		OpBase:  OpBase{Type: "load", Active: true},
		ID:      id,
		Objects: objects,
		Images:  images,
	}
}

// Load frame from files. Ignores any inputs provided
func (op *OpLoad) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) > 0 {
		return nil, fmt.Errorf("%s operator with non-zero input", op.Type)
	}
	for _, files := range []map[string]string{op.Objects, op.Images} {
		for _, fileName := range files {
			if err := c.CheckPath(fileName); err != nil {
				return nil, err
			}
		}
	}
	out := func() (f *frame.Frame, err error) {
		return op.Apply(c) // no inputs to materialize
	}
	return []Promise{out}, nil
}

func (op *OpLoad) Apply(c *Context) (*frame.Frame, error) {
	f, err := frame.ReadFrame(op.ID, op.Objects, op.Images, c.Log)
	if err != nil {
		return nil, err
	}
	for name, img := range f.Images {
		lo, hi := valueRange(img.Data)
		if hi-lo < 1e-8 {
			c.Log.Warn().Int("frame", f.ID).Str("image", name).Msg("low dynamic range")
		}
	}
	c.Log.Info().Int("frame", f.ID).Int("objectSets", len(f.Objects)).Int("images", len(f.Images)).
		Msg("loaded frame")
	return f, nil
}

func valueRange(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		} else if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Load many frames from filename patterns with wildcards. Each object set
// and image name has its own pattern; the sorted matches of all patterns
// are paired up by position into frames. Takes zero inputs, produces n outputs
type OpLoadMany struct {
	OpBase
	Objects map[string]string `json:"objects"` // file pattern per object set name
	Images  map[string]string `json:"images"`  // file pattern per image name
}

func init() { SetOperatorFactory(func() Operator { return NewOpLoadManyDefault() }) } // register the operator for JSON decoding

func NewOpLoadManyDefault() *OpLoadMany { return NewOpLoadMany(nil, nil) }

func NewOpLoadMany(objects, images map[string]string) *OpLoadMany {
	return &OpLoadMany{
		OpBase:  OpBase{Type: "loadMany", Active: true},
		Objects: objects,
		Images:  images,
	}
}

// Turn filename wildcards into list of frame load operators
func (op *OpLoadMany) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	if len(ins) > 0 {
		return nil, fmt.Errorf("%s operator with non-zero input", op.Type)
	}
	objects, numObjects, err := globAll(op.Objects)
	if err != nil {
		return nil, err
	}
	images, numImages, err := globAll(op.Images)
	if err != nil {
		return nil, err
	}
	num := numObjects
	if num < 0 {
		num = numImages
	} else if numImages >= 0 && numImages != num {
		return nil, fmt.Errorf("%s operator with unequal match counts for patterns %v %v", op.Type, op.Objects, op.Images)
	}
	if num <= 0 {
		return nil, fmt.Errorf("%s operator with no files to load from patterns %v %v", op.Type, op.Objects, op.Images)
	}

	for i := 0; i < num; i++ {
		opLoad := NewOpLoad(i, pick(objects, i), pick(images, i))
		promises, err := opLoad.MakePromises(nil, c)
		if err != nil {
			return nil, err
		}
		outs = append(outs, promises[0])
	}
	c.Log.Info().Int("frames", len(outs)).Msg("found files")
	return outs, nil
}

// Expands all patterns, returning sorted matches per name and the common
// number of matches, or -1 if there are no patterns
func globAll(patterns map[string]string) (matches map[string][]string, num int, err error) {
	matches = make(map[string][]string, len(patterns))
	num = -1
	for name, pattern := range patterns {
		m, err := filepath.Glob(pattern)
		if err != nil {
			return nil, 0, err
		}
		sort.Strings(m)
		if num >= 0 && len(m) != num {
			return nil, 0, fmt.Errorf("pattern %s for %s matches %d files; want %d", pattern, name, len(m), num)
		}
		num = len(m)
		matches[name] = m
	}
	return matches, num, nil
}

func pick(matches map[string][]string, i int) map[string]string {
	files := make(map[string]string, len(matches))
	for name, m := range matches {
		files[name] = m[i]
	}
	return files
}

// Applies a sequence of operators to a promise. Number of inputs, outputs as per the chained steps
type OpSequence struct {
	OpBase
	Steps    []Operator        `json:"-"`     // the actual steps
	StepsRaw []json.RawMessage `json:"steps"` // helper for unmarshaling
}

func init() { SetOperatorFactory(func() Operator { return NewOpSequenceDefault() }) } // register the operator for JSON decoding

func NewOpSequenceDefault() *OpSequence { return NewOpSequence() }

func NewOpSequence(steps ...Operator) *OpSequence {
	return &OpSequence{
		OpBase: OpBase{Type: "seq", Active: len(steps) > 0},
		Steps:  steps,
	}
}

// Unmarshals a sequence of polymorphic operators from JSON.
// Uses temporary op.StepsRaw inspired by https://alexkappa.medium.com/json-polymorphism-in-go-4cade1e58ed1
func (op *OpSequence) UnmarshalJSON(b []byte) error {
	type alias OpSequence
	if err := json.Unmarshal(b, (*alias)(op)); err != nil {
		return err
	}
	for _, raw := range op.StepsRaw {
		step, err := UnmarshalOperator(raw)
		if err != nil {
			return err
		}
		op.Steps = append(op.Steps, step)
	}
	op.StepsRaw = nil
	return nil
}

// Unmarshals a single polymorphic operator from JSON, based on its type field
func UnmarshalOperator(raw []byte) (Operator, error) {
	var base OpBase
	if err := json.Unmarshal(raw, &base); err != nil {
		return nil, err
	}
	factory := GetOperatorFactory(base.Type)
	if factory == nil {
		return nil, fmt.Errorf("unknown operator type '%s' in raw JSON message '%s'", base.Type, string(raw))
	}
	op := factory()
	if err := json.Unmarshal(raw, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Appends one or more operators to the existing sequence
func (op *OpSequence) Append(steps ...Operator) {
	op.Steps = append(op.Steps, steps...)
}

// Marshals a sequence with polymorphic operators to JSON.
// Uses the actual op.Steps with label "steps", and ignores op.StepsRaw
func (op *OpSequence) MarshalJSON() (bs []byte, err error) {
	buf := bytes.Buffer{}
	buf.WriteString("{\"type\":")
	inner, err := json.Marshal(op.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	fmt.Fprintf(&buf, ", \"active\":%v, \"steps\":", op.Active)
	inner, err = json.Marshal(op.Steps)
	if err != nil {
		return nil, err
	}
	buf.Write(inner)
	buf.WriteRune('}')
	return buf.Bytes(), nil
}

func (op *OpSequence) MakePromises(ins []Promise, c *Context) (outs []Promise, err error) {
	return op.applyRecursive(op.Steps, ins, c)
}

func (op *OpSequence) applyRecursive(steps []Operator, ins []Promise, c *Context) (outs []Promise, err error) {
	if len(steps) == 0 {
		return ins, nil
	}
	ins, err = steps[0].MakePromises(ins, c)
	if err != nil {
		return nil, err
	}
	return op.applyRecursive(steps[1:], ins, c)
}

// Runs an operator with no inputs to completion, materializing all its outputs
func Run(op Operator, c *Context) ([]*frame.Frame, error) {
	promises, err := op.MakePromises(nil, c)
	if err != nil {
		return nil, err
	}
	return MaterializeAll(promises, c.MaxThreads, false)
}
