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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcosterland/CellProfiler/internal/frame"
	"github.com/marcosterland/CellProfiler/internal/labels"
	"github.com/marcosterland/CellProfiler/internal/ops"
	"github.com/rs/zerolog"
	"golang.org/x/image/tiff"
)

func writeGray16(t *testing.T, fileName string, at func(x, y int) uint16) {
	t.Helper()
	img := image.NewGray16(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray16(x, y, color.Gray16{Y: at(x, y)})
		}
	}
	file, err := os.Create(fileName)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer file.Close()
	if err := tiff.Encode(file, img, nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	nuclei := filepath.Join(dir, "nuclei.tif")
	dna := filepath.Join(dir, "dna.tif")
	writeGray16(t, nuclei, func(x, y int) uint16 {
		if x >= 1 && x <= 2 && y >= 1 && y <= 2 {
			return 1
		}
		return 0
	})
	writeGray16(t, dna, func(x, y int) uint16 { return 65535 })

	raw := fmt.Sprintf(`{"type":"seq","active":true,"steps":[
		{"type":"load","active":true,"id":5,"objects":{"Nuclei":%q},"images":{"DNA":%q}},
		{"type":"measureObjectIntensity","active":true,"settings":{"imageNames":["DNA"],"objectNames":["Nuclei"]}},
		{"type":"saveOutlines","active":true,"objectName":"Nuclei","filePattern":%q},
		{"type":"exportCSV","active":true,"objectName":"Nuclei","filePattern":%q}
	]}`, nuclei, dna, filepath.Join(dir, "outlines%d.png"), filepath.Join(dir, "nuclei%d.csv"))

	var seq ops.OpSequence
	if err := json.Unmarshal([]byte(raw), &seq); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	c := ops.NewContext(zerolog.Nop())
	frames, err := ops.Run(&seq, c)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("len(frames)=%d; want 1", len(frames))
	}
	values, ok := frames[0].Measurements.Read("Nuclei", "Intensity_IntegratedIntensity_DNA")
	if !ok || len(values) != 1 || values[0] != 4 {
		t.Errorf("integrated intensity=%v; want [4]", values)
	}

	if _, err := os.Stat(filepath.Join(dir, "outlines5.png")); err != nil {
		t.Errorf("outlines not written: %v", err)
	}
	file, err := os.Open(filepath.Join(dir, "nuclei5.csv"))
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records)=%d; want 2", len(records))
	}
	if got := len(records[0]); got != 15 {
		t.Errorf("columns=%d; want 15", got)
	}
	for i, name := range records[0] {
		if name == "Intensity_MeanIntensityEdge_DNA" && records[1][i] != "1" {
			t.Errorf("MeanIntensityEdge=%s; want 1", records[1][i])
		}
	}
}

func TestMeasureMissingImage(t *testing.T) {
	var op OpMeasureObjectIntensity
	if err := json.Unmarshal([]byte(`{"type":"measureObjectIntensity","settings":{"imageNames":["Missing"]}}`), &op); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if op.Settings.ObjectNames[0] != "Nuclei" {
		t.Errorf("default objectNames=%v; want [Nuclei]", op.Settings.ObjectNames)
	}
	c := ops.NewContext(zerolog.Nop())
	f := frameWithNuclei()
	if _, err := op.Apply(f, c); err == nil {
		t.Errorf("Apply err=nil; want error")
	}
	op.ContinueOnError = true
	if _, err := op.Apply(f, c); err != nil {
		t.Errorf("Apply with ContinueOnError err=%v; want nil", err)
	}
}

func TestSettingsRejectedOnUnmarshal(t *testing.T) {
	var op OpMeasureObjectIntensity
	err := json.Unmarshal([]byte(`{"type":"measureObjectIntensity","settings":{"imageNames":["DNA","DNA"]}}`), &op)
	if err == nil {
		t.Errorf("Unmarshal with duplicate images err=nil; want error")
	}
}

func frameWithNuclei() *frame.Frame {
	f := frame.NewFrame(1)
	l := labels.New(3, 3)
	l.Set(1, 1, 1)
	f.AddObjects("Nuclei", l)
	return f
}
