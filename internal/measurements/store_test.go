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
	"bytes"
	"fmt"
	"math"
	"sync"
	"testing"
)

func TestStoreRecordRead(t *testing.T) {
	s := NewStore()
	s.Record("Nuclei", "Intensity_MeanIntensity_DNA", []float64{1, 2})
	got, ok := s.Read("Nuclei", "Intensity_MeanIntensity_DNA")
	if !ok || len(got) != 2 || got[1] != 2 {
		t.Errorf("Read=%v,%v; want [1 2],true", got, ok)
	}
	if _, ok := s.Read("Cells", "Intensity_MeanIntensity_DNA"); ok {
		t.Errorf("Read(unknown object) ok=true; want false")
	}
}

func TestStoreConcurrentRecord(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Record("Cells", fmt.Sprintf("F%02d", i), []float64{float64(i)})
		}(i)
	}
	wg.Wait()
	if got := len(s.FeatureNames("Cells")); got != 32 {
		t.Errorf("len(FeatureNames)=%d; want 32", got)
	}
	if got := s.ObjectNames(); len(got) != 1 || got[0] != "Cells" {
		t.Errorf("ObjectNames=%v; want [Cells]", got)
	}
}

func TestWriteCSV(t *testing.T) {
	s := NewStore()
	s.Record("Nuclei", "B", []float64{1.5, math.NaN()})
	s.Record("Nuclei", "A", []float64{3})
	var buf bytes.Buffer
	if err := s.WriteCSV(&buf, "Nuclei"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "ObjectNumber,A,B\n1,3,1.5\n2,,nan\n"
	if buf.String() != want {
		t.Errorf("WriteCSV=%q; want %q", buf.String(), want)
	}
}
