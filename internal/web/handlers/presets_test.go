package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListPresets(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/presets", nil)
	recorder := httptest.NewRecorder()

	ListPresets(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Presets []struct {
			Name  string `json:"name"`
			Edits []any  `json:"edits"`
		} `json:"presets"`
	}
	parseJSONResponse(t, recorder, &result)

	if len(result.Presets) != 5 {
		t.Fatalf("expected 5 presets, got %d", len(result.Presets))
	}
	for _, p := range result.Presets {
		if len(p.Edits) == 0 {
			t.Errorf("preset %s has no edits", p.Name)
		}
	}
}

func TestGetPresetFoldsName(t *testing.T) {
	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/presets/happy", nil),
		map[string]string{"name": "happy"})
	recorder := httptest.NewRecorder()

	GetPreset(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Name string `json:"name"`
	}
	parseJSONResponse(t, recorder, &result)
	if result.Name != "Happy" {
		t.Errorf("expected Happy, got %s", result.Name)
	}
}

func TestGetPresetNotFound(t *testing.T) {
	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/presets/melancholy", nil),
		map[string]string{"name": "melancholy"})
	recorder := httptest.NewRecorder()

	GetPreset(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
	assertJSONError(t, recorder, "preset not found")
}
