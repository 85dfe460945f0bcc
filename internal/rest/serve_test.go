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

package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() { gin.SetMode(gin.TestMode) }

func do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := NewServer(zerolog.Nop()).Router()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := do(t, http.MethodGet, "/api/v1/ping", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pong") {
		t.Errorf("ping=%d %s; want 200 pong", w.Code, w.Body.String())
	}
}

func TestMeasure(t *testing.T) {
	body := `{
		"objects": {"Nuclei": [[0,0,0,0],[0,1,1,0],[0,1,1,0],[0,0,0,3]]},
		"images":  {"DNA":    [[0,0,0,0],[0,1,2,0],[0,3,4,0],[0,0,0,5]]}
	}`
	w := do(t, http.MethodPost, "/api/v1/measure", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d %s; want 200", w.Code, w.Body.String())
	}
	var res measureResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors=%v; want none", res.Errors)
	}
	features := res.Measurements["Nuclei"]
	if len(features) != 14 {
		t.Errorf("len(features)=%d; want 14", len(features))
	}
	integrated := features["Intensity_IntegratedIntensity_DNA"]
	if len(integrated) != 3 || *integrated[0] != 10 || *integrated[1] != 0 || *integrated[2] != 5 {
		t.Errorf("integrated=%v; want [10 0 5]", integrated)
	}
	if mean := features["Intensity_MeanIntensity_DNA"]; mean[1] != nil {
		t.Errorf("mean of absent object=%v; want null", *mean[1])
	}
}

func TestMeasureShapeMismatch(t *testing.T) {
	body := `{"objects": {"Nuclei": [[1,1]]}, "images": {"DNA": [[1],[1]]}}`
	w := do(t, http.MethodPost, "/api/v1/measure", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d; want 200", w.Code)
	}
	var res measureResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "does not match") {
		t.Errorf("errors=%v; want one shape mismatch", res.Errors)
	}
}

func TestMeasureBadRequest(t *testing.T) {
	for _, body := range []string{
		`{"objects": {"Nuclei": [[1,1],[1]]}, "images": {"DNA": [[1,1],[1,1]]}}`,
		`{"images": {"DNA": [[1]]}}`,
		`not json`,
	} {
		if w := do(t, http.MethodPost, "/api/v1/measure", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d; want 400", body, w.Code)
		}
	}
}

func TestColumns(t *testing.T) {
	w := do(t, http.MethodPost, "/api/v1/columns", `{"imageNames":["DNA","Actin"],"objectNames":["Nuclei","Cells","Cytoplasm"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d %s; want 200", w.Code, w.Body.String())
	}
	var res struct {
		Columns []struct {
			ObjectName  string `json:"objectName"`
			FeatureName string `json:"featureName"`
		} `json:"columns"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(res.Columns) != 3*2*14 {
		t.Errorf("len(columns)=%d; want %d", len(res.Columns), 3*2*14)
	}
}

func TestPipelineRejectsOutsidePaths(t *testing.T) {
	body := `{"type":"load","active":true,"objects":{"Nuclei":"/etc/nuclei.tif"},"images":{"DNA":"dna.tif"}}`
	w := do(t, http.MethodPost, "/api/v1/pipeline", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d; want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "outside current directory tree") {
		t.Errorf("log=%q; want path error", w.Body.String())
	}
	if w := do(t, http.MethodPost, "/api/v1/pipeline", `{"type":"bogus"}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown operator status=%d; want 400", w.Code)
	}
}

func TestIndex(t *testing.T) {
	w := do(t, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/api/v1/pipeline") {
		t.Errorf("index=%d; want 200 with pipeline form", w.Code)
	}
}
