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

// Package measurements stores per-object feature arrays, keyed by object set
// name and feature name, for the current processing unit.
package measurements

import (
	"sort"
	"sync"
)

// Object name under which per-image measurements are recorded
const Image = "Image"

// Column data type of all floating point features
const ColTypeFloat = "float"

// A measurement column as announced by a module: which object set, which
// feature, and which data type
type Column struct {
	ObjectName  string `json:"objectName"`
	FeatureName string `json:"featureName"`
	Type        string `json:"type"`
}

// Destination for measurements. Implementations must be safe for concurrent use
type Sink interface {
	Record(objectName, featureName string, values []float64)
}

// In-memory measurement store. Safe for concurrent use
type Store struct {
	mutex   sync.RWMutex
	objects map[string]map[string][]float64
}

// Creates an empty store
func NewStore() *Store {
	return &Store{objects: make(map[string]map[string][]float64)}
}

// Records the per-object values of a feature, replacing earlier values
func (s *Store) Record(objectName, featureName string, values []float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	features, ok := s.objects[objectName]
	if !ok {
		features = make(map[string][]float64)
		s.objects[objectName] = features
	}
	features[featureName] = values
}

// Returns the values of a feature, or nil and false if not recorded
func (s *Store) Read(objectName, featureName string) ([]float64, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	values, ok := s.objects[objectName][featureName]
	return values, ok
}

// Returns the names of all object sets with recorded features, sorted
func (s *Store) ObjectNames() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Returns the recorded feature names of an object set, sorted
func (s *Store) FeatureNames(objectName string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	features := s.objects[objectName]
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Removes all recorded measurements
func (s *Store) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.objects = make(map[string]map[string][]float64)
}
