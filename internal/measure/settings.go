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
	"fmt"
)

// Ordered lists of the image names and object set names to measure.
// Every object set is measured against every image.
type Settings struct {
	ImageNames  []string `json:"imageNames"`
	ObjectNames []string `json:"objectNames"`
}

// Creates settings with the given images and object sets
func NewSettings(imageNames, objectNames []string) *Settings {
	return &Settings{
		ImageNames:  append([]string(nil), imageNames...),
		ObjectNames: append([]string(nil), objectNames...),
	}
}

// Appends an image name
func (s *Settings) AddImage(name string) { s.ImageNames = append(s.ImageNames, name) }

// Appends an object set name
func (s *Settings) AddObject(name string) { s.ObjectNames = append(s.ObjectNames, name) }

// Removes the image name at the given position. The last entry cannot be removed
func (s *Settings) RemoveImage(i int) error {
	var err error
	s.ImageNames, err = removeAt(s.ImageNames, i, "image")
	return err
}

// Removes the object set name at the given position. The last entry cannot be removed
func (s *Settings) RemoveObject(i int) error {
	var err error
	s.ObjectNames, err = removeAt(s.ObjectNames, i, "object")
	return err
}

func removeAt(names []string, i int, kind string) ([]string, error) {
	if i < 0 || i >= len(names) {
		return names, fmt.Errorf("no %s at position %d of %d", kind, i, len(names))
	}
	if len(names) == 1 {
		return names, fmt.Errorf("cannot remove the only %s", kind)
	}
	return append(names[:i:i], names[i+1:]...), nil
}

// Returns true if the object set name is declared
func (s *Settings) HasObject(name string) bool {
	for _, o := range s.ObjectNames {
		if o == name {
			return true
		}
	}
	return false
}

// Checks that no names are blank or duplicated
func (s *Settings) Validate() error {
	if err := validateNames(s.ImageNames, "image"); err != nil {
		return err
	}
	return validateNames(s.ObjectNames, "object")
}

func validateNames(names []string, kind string) error {
	if len(names) == 0 {
		return fmt.Errorf("no %s names given", kind)
	}
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			return fmt.Errorf("%s name %d is blank", kind, i)
		}
		if seen[n] {
			return fmt.Errorf("%s name %s given twice", kind, n)
		}
		seen[n] = true
	}
	return nil
}
