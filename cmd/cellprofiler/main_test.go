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

package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseNamedFiles(t *testing.T) {
	names, files, err := parseNamedFiles("Nuclei=n*.tif, Cells=c*.tif")
	if err != nil {
		t.Fatalf("parseNamedFiles: %v", err)
	}
	if len(names) != 2 || names[0] != "Nuclei" || names[1] != "Cells" {
		t.Errorf("names=%v; want [Nuclei Cells]", names)
	}
	if files["Cells"] != "c*.tif" {
		t.Errorf("files[Cells]=%s; want c*.tif", files["Cells"])
	}

	for _, bad := range []string{"Nuclei", "=n.tif", "Nuclei=", "A=a.tif,A=b.tif"} {
		if _, _, err := parseNamedFiles(bad); err == nil {
			t.Errorf("parseNamedFiles(%s) err=nil; want error", bad)
		}
	}
	if names, _, err := parseNamedFiles(" "); err != nil || len(names) != 0 {
		t.Errorf("parseNamedFiles(blank)=%v,%v; want no names", names, err)
	}
}

func TestNewPipeline(t *testing.T) {
	*objects = "Nuclei=n*.tif,Cells=c*.tif"
	*images = "DNA=d*.tif"
	*outlines = "%s_outlines_%d.png"
	defer func() { *objects, *images, *outlines = "", "", "" }()

	settings, objectFiles, imageFiles, err := parseInputs()
	if err != nil {
		t.Fatalf("parseInputs: %v", err)
	}
	seq := newPipeline(settings, objectFiles, imageFiles)
	if got := len(seq.Steps); got != 2+2*2 {
		t.Errorf("len(Steps)=%d; want 6", got)
	}
	bs, err := json.Marshal(seq)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{"Cells_outlines_%d.png", "Nuclei_%d.csv", "measureObjectIntensity"} {
		if !strings.Contains(string(bs), want) {
			t.Errorf("pipeline %s does not contain %s", bs, want)
		}
	}
}
