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

import "strings"

// Category of all features produced by this package
const Intensity = "Intensity"

// Statistic names
const (
	IntegratedIntensity     = "IntegratedIntensity"
	MeanIntensity           = "MeanIntensity"
	StdIntensity            = "StdIntensity"
	MinIntensity            = "MinIntensity"
	MaxIntensity            = "MaxIntensity"
	IntegratedIntensityEdge = "IntegratedIntensityEdge"
	MeanIntensityEdge       = "MeanIntensityEdge"
	StdIntensityEdge        = "StdIntensityEdge"
	MinIntensityEdge        = "MinIntensityEdge"
	MaxIntensityEdge        = "MaxIntensityEdge"
	MassDisplacement        = "MassDisplacement"
	LowerQuartileIntensity  = "LowerQuartileIntensity"
	MedianIntensity         = "MedianIntensity"
	UpperQuartileIntensity  = "UpperQuartileIntensity"
)

// All statistics, in output order
var AllMeasurements = [...]string{
	IntegratedIntensity,
	MeanIntensity,
	StdIntensity,
	MinIntensity,
	MaxIntensity,
	IntegratedIntensityEdge,
	MeanIntensityEdge,
	StdIntensityEdge,
	MinIntensityEdge,
	MaxIntensityEdge,
	MassDisplacement,
	LowerQuartileIntensity,
	MedianIntensity,
	UpperQuartileIntensity,
}

// The feature table of a measurer: its category and ordered statistic names.
// Shared read-only between measurers.
type Features struct {
	Category   string
	Statistics []string
}

// Returns the standard intensity feature table
func DefaultFeatures() Features {
	return Features{Category: Intensity, Statistics: AllMeasurements[:]}
}

// Returns true if the table contains the given statistic
func (f Features) Has(statistic string) bool {
	for _, s := range f.Statistics {
		if s == statistic {
			return true
		}
	}
	return false
}

// Builds a feature name such as Intensity_MeanIntensity_DNA
func FeatureName(category, statistic, imageName string) string {
	return category + "_" + statistic + "_" + imageName
}

// Splits a feature name into category, statistic and image name.
// Image names may themselves contain underscores.
func ParseFeatureName(feature string) (category, statistic, imageName string, ok bool) {
	parts := strings.SplitN(feature, "_", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}
