package apigw

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// closeTracker отмечает закрытие тела ответа
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestResponseWriter_StreamsBody(t *testing.T) {
	rw := NewResponseWriter()
	rec := httptest.NewRecorder()

	body := &closeTracker{Reader: strings.NewReader(`{"status":"ok"}`)}
	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")

	presp := &ProxiedResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       body,
	}

	if err := rw.WriteResponse(rec, presp); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"status":"ok"}` {
		t.Errorf("Expected body to be streamed verbatim, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected content type header to be copied, got %q", got)
	}
	if !body.closed {
		t.Error("Expected response body to be closed")
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rw := NewResponseWriter()
	rec := httptest.NewRecorder()

	if err := rw.WriteResponse(rec, &ProxiedResponse{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected default status 200, got %d", rec.Code)
	}
}

func TestResponseWriter_ErrorDocument(t *testing.T) {
	rw := NewResponseWriter()
	rec := httptest.NewRecorder()

	headers := make(http.Header)
	headers.Set("WWW-Authenticate", "ApiAuth")

	presp := &ProxiedResponse{
		StatusCode: http.StatusUnauthorized,
		Headers:    headers,
		Error:      errors.New("Authentication required."),
	}

	if err := rw.WriteResponse(rec, presp); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}
	// Заголовки едут и на пути ошибки
	if got := rec.Header().Get("WWW-Authenticate"); got != "ApiAuth" {
		t.Errorf("Expected WWW-Authenticate header, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected JSON error document, got content type %q", got)
	}

	var doc errorDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Error body is not valid JSON: %v", err)
	}
	if doc.Error != "unauthorized" {
		t.Errorf("Expected error token 'unauthorized', got %q", doc.Error)
	}
	if doc.Message != "Authentication required." {
		t.Errorf("Expected configured message, got %q", doc.Message)
	}
}

func TestResponseWriter_ErrorDefaultStatus(t *testing.T) {
	rw := NewResponseWriter()
	rec := httptest.NewRecorder()

	presp := &ProxiedResponse{Error: errors.New("backend exploded")}

	if err := rw.WriteResponse(rec, presp); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected default error status 500, got %d", rec.Code)
	}

	var doc errorDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Error body is not valid JSON: %v", err)
	}
	if doc.Error != "internal_server_error" {
		t.Errorf("Expected error token 'internal_server_error', got %q", doc.Error)
	}
}

func TestStatusToken(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{http.StatusUnauthorized, "unauthorized"},
		{http.StatusNotFound, "not_found"},
		{http.StatusRequestEntityTooLarge, "request_entity_too_large"},
		{http.StatusTooManyRequests, "too_many_requests"},
		{http.StatusBadGateway, "bad_gateway"},
		{http.StatusServiceUnavailable, "service_unavailable"},
		{499, "error"},
	}

	for _, tt := range tests {
		if got := statusToken(tt.status); got != tt.expected {
			t.Errorf("statusToken(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}
