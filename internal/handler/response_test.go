package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusAccepted, map[string]int{"team": 1})

	if rec.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type=application/json, got %s", ct)
	}
	var result map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["team"] != 1 {
		t.Errorf("unexpected body: %v", result)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusServiceUnavailable, "threat map not built yet")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	var result map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result["error"] != "threat map not built yet" {
		t.Errorf("unexpected error field %q", result["error"])
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		body    string
		wantErr bool
	}{
		{`{"team":3}`, false},
		{"not json", true},
		{"", true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		var data struct {
			Team int `json:"team"`
		}
		err := decodeJSON(req, &data)
		if (err != nil) != tt.wantErr {
			t.Errorf("decodeJSON(%q) err = %v, wantErr %v", tt.body, err, tt.wantErr)
		}
		if err == nil && data.Team != 3 {
			t.Errorf("Team = %d, want 3", data.Team)
		}
	}
}

func TestPathInt(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{"17", 17, false},
		{"-1", -1, false},
		{"x", 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.value)
		got, err := pathInt(req, "id")
		if (err != nil) != tt.wantErr {
			t.Errorf("pathInt(%q) err = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("pathInt(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
