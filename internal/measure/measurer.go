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

package measure

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/marcosterland/CellProfiler/internal/measurements"
	"github.com/rs/zerolog"
)

// An object set and an image to measure it against
type Pair struct {
	ObjectName string
	ImageName  string
}

// Measures object intensities for the configured object sets and images, and
// records them into a measurement sink. Holds no state between frames besides
// its configuration.
type Measurer struct {
	Settings   *Settings
	Features   Features
	MaxThreads int
	Log        zerolog.Logger
}

// Creates a measurer for the given settings and feature table
func NewMeasurer(settings *Settings, features Features) *Measurer {
	return &Measurer{
		Settings:   settings,
		Features:   features,
		MaxThreads: runtime.GOMAXPROCS(0),
		Log:        zerolog.Nop(),
	}
}

// Returns all object set and image combinations, objects varying slowest
func (m *Measurer) Pairs() []Pair {
	pairs := make([]Pair, 0, len(m.Settings.ObjectNames)*len(m.Settings.ImageNames))
	for _, o := range m.Settings.ObjectNames {
		for _, i := range m.Settings.ImageNames {
			pairs = append(pairs, Pair{ObjectName: o, ImageName: i})
		}
	}
	return pairs
}

// Measures one pair of the frame and records all its features into the sink
func (m *Measurer) MeasurePair(f *frame.Frame, p Pair, sink measurements.Sink) error {
	l, ok := f.Objects[p.ObjectName]
	if !ok {
		return fmt.Errorf("%d: no object set %s", f.ID, p.ObjectName)
	}
	img, ok := f.Images[p.ImageName]
	if !ok {
		return fmt.Errorf("%d: no image %s", f.ID, p.ImageName)
	}
	res, err := Measure(l, img, -1)
	if err != nil {
		return fmt.Errorf("%d: measuring %s in %s: %w", f.ID, p.ObjectName, p.ImageName, err)
	}
	for _, stat := range m.Features.Statistics {
		sink.Record(p.ObjectName, FeatureName(m.Features.Category, stat, p.ImageName), res[stat])
	}
	return nil
}

// Measures all pairs of the frame, with up to MaxThreads pairs in parallel.
// A failing pair does not stop the others; all failures are returned joined.
func (m *Measurer) Run(f *frame.Frame, sink measurements.Sink) error {
	pairs := m.Pairs()
	maxThreads := m.MaxThreads
	if maxThreads < 1 {
		maxThreads = 1
	}

	start := time.Now()
	limiter := make(chan bool, maxThreads)
	errs := make([]error, len(pairs))
	for i, p := range pairs {
		limiter <- true
		go func(i int, p Pair) {
			defer func() { <-limiter }()
			errs[i] = m.MeasurePair(f, p, sink)
			if errs[i] != nil {
				m.Log.Error().Err(errs[i]).Int("frame", f.ID).Str("objects", p.ObjectName).
					Str("image", p.ImageName).Msg("measurement failed")
				return
			}
			m.Log.Debug().Int("frame", f.ID).Str("objects", p.ObjectName).Str("image", p.ImageName).
				Msg("measured object intensities")
		}(i, p)
	}
	for i := 0; i < cap(limiter); i++ { // wait for goroutines to finish
		limiter <- true
	}

	err := errors.Join(errs...)
	m.Log.Info().Int("frame", f.ID).Int("pairs", len(pairs)).Dur("elapsed", time.Since(start)).
		Bool("ok", err == nil).Msg("object intensity measurement done")
	return err
}

// Returns the feature categories produced for the object set
func (m *Measurer) GetCategories(objectName string) []string {
	if !m.Settings.HasObject(objectName) {
		return []string{}
	}
	return []string{m.Features.Category}
}

// Returns the statistic names produced for the object set in the category
func (m *Measurer) GetMeasurements(objectName, category string) []string {
	if !m.Settings.HasObject(objectName) || category != m.Features.Category {
		return []string{}
	}
	return append([]string(nil), m.Features.Statistics...)
}

// Returns the image names for which the statistic is produced
func (m *Measurer) GetMeasurementImages(objectName, category, statistic string) []string {
	if !m.Settings.HasObject(objectName) || category != m.Features.Category || !m.Features.Has(statistic) {
		return []string{}
	}
	return append([]string(nil), m.Settings.ImageNames...)
}

// Returns all columns recorded by Run, in object, image, statistic order
func (m *Measurer) GetMeasurementColumns() []measurements.Column {
	var columns []measurements.Column
	for _, p := range m.Pairs() {
		for _, stat := range m.Features.Statistics {
			columns = append(columns, measurements.Column{
				ObjectName:  p.ObjectName,
				FeatureName: FeatureName(m.Features.Category, stat, p.ImageName),
				Type:        measurements.ColTypeFloat,
			})
		}
	}
	return columns
}
