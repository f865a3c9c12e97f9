package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOriginHealth(t *testing.T) {
	origin := NewOrigin(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	origin.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health body: %s", rec.Body.String())
	}
}

func TestOriginEcho(t *testing.T) {
	origin := NewOrigin(DefaultConfig())

	t.Run("PostWithBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/items?limit=5", strings.NewReader(`{"bolt":"on"}`))
		req.Header.Set("X-Forwarded-User", "dvader")
		req.Header.Set("X-Request-Id", "req-42")
		req.Header.Set("X-Forwarded-For", "192.0.2.10")

		rec := httptest.NewRecorder()
		origin.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var doc echoDocument
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Failed to decode echo body: %v", err)
		}

		if doc.Method != http.MethodPost {
			t.Errorf("Expected method POST, got %s", doc.Method)
		}
		if doc.Path != "/v1/items" {
			t.Errorf("Expected path /v1/items, got %s", doc.Path)
		}
		if doc.Query != "limit=5" {
			t.Errorf("Expected query limit=5, got %s", doc.Query)
		}
		if doc.Body != `{"bolt":"on"}` {
			t.Errorf("Unexpected body: %s", doc.Body)
		}
		if doc.BodySize != len(`{"bolt":"on"}`) {
			t.Errorf("Expected body size %d, got %d", len(`{"bolt":"on"}`), doc.BodySize)
		}
		if doc.Principal != "dvader" {
			t.Errorf("Expected principal dvader, got %s", doc.Principal)
		}
		if doc.RequestID != "req-42" {
			t.Errorf("Expected request id req-42, got %s", doc.RequestID)
		}
		if doc.ForwardedFor != "192.0.2.10" {
			t.Errorf("Expected forwarded-for 192.0.2.10, got %s", doc.ForwardedFor)
		}
	})

	t.Run("GetWithoutIdentity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)

		rec := httptest.NewRecorder()
		origin.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var doc echoDocument
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Failed to decode echo body: %v", err)
		}

		if doc.Principal != "" {
			t.Errorf("Expected empty principal, got %s", doc.Principal)
		}
		if doc.BodySize != 0 {
			t.Errorf("Expected empty body, got %d bytes", doc.BodySize)
		}
	})

	t.Run("DeleteMethod", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/v1/items/7", nil)

		rec := httptest.NewRecorder()
		origin.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("Expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var doc echoDocument
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("Failed to decode echo body: %v", err)
		}
		if doc.Method != http.MethodDelete {
			t.Errorf("Expected method DELETE, got %s", doc.Method)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must be valid: %v", err)
	}

	cfg.ListenAddress = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty listen address")
	}
}
