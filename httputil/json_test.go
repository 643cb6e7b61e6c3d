package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Agree bool   `json:"agree"`
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"ok", `{"name":"Jordan","agree":true}`, ""},
		{"empty", ``, "request body is empty"},
		{"syntax", `{"name":}`, "malformed JSON"},
		{"truncated", `{"name":"x"`, "malformed JSON"},
		{"type", `{"agree":"yes"}`, `invalid value for field "agree"`},
		{"unknown", `{"fax":"1"}`, `unknown field "fax"`},
		{"multiple", `{"name":"a"} {"name":"b"}`, "multiple JSON values"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(tt.body))
			var p payload
			err := BindJSON(req, &p)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("BindJSON() = %v", err)
				}
				if p.Name != "Jordan" || !p.Agree {
					t.Errorf("decoded %+v", p)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBindJSON_TooLarge(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 100)+`"}`))
	req.Body = http.MaxBytesReader(rr, req.Body, 10)
	var p payload
	if err := BindJSON(req, &p); err == nil || err.Error() != "request body too large" {
		t.Errorf("err = %v", err)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, 42, map[string]string{"status": "ok"})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("invalid status not clamped: %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}

func TestValidationError(t *testing.T) {
	rr := httptest.NewRecorder()
	ValidationError(rr, map[string]string{"email": "Email is invalid"})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rr.Code)
	}
	var body ValidationErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "validation_failed" || body.Errors["email"] != "Email is invalid" {
		t.Errorf("body = %+v", body)
	}
}

func TestIsJSON(t *testing.T) {
	for ct, want := range map[string]bool{
		"application/json":                  true,
		"application/json; charset=utf-8":   true,
		"application/problem+json":          true,
		"application/x-www-form-urlencoded": false,
		"":                                  false,
	} {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.Header.Set("Content-Type", ct)
		if got := IsJSON(r); got != want {
			t.Errorf("IsJSON(%q) = %v, want %v", ct, got, want)
		}
	}
}
