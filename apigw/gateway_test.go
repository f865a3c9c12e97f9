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

// stubHandler возвращает заранее подготовленный ответ и запоминает запрос
type stubHandler struct {
	req  *ProxiedRequest
	resp *ProxiedResponse
}

func (h *stubHandler) Handle(req *ProxiedRequest) *ProxiedResponse {
	h.req = req
	if h.resp != nil {
		return h.resp
	}
	return &ProxiedResponse{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader("ok")),
	}
}

func TestGateway_ServeHTTP(t *testing.T) {
	handler := &stubHandler{}
	gw := New(DefaultConfig(), handler)

	req := httptest.NewRequest("GET", "/api/v1/droid/status?id=r2d2", nil)
	req.Host = "empire.gov"
	rec := httptest.NewRecorder()

	gw.ServeHTTP(rec, req)

	if handler.req == nil {
		t.Fatal("Handler never received the request")
	}
	if handler.req.Method != "GET" {
		t.Errorf("Expected method GET, got %s", handler.req.Method)
	}
	if handler.req.RequestURI != "/api/v1/droid/status?id=r2d2" {
		t.Errorf("Expected full request URI, got %q", handler.req.RequestURI)
	}

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("Expected handler body, got %q", rec.Body.String())
	}

	// Идентификатор запроса возвращается клиенту для трассировки
	if got := rec.Header().Get("X-Request-Id"); got == "" {
		t.Error("Expected X-Request-Id response header")
	}
}

func TestGateway_PropagatesRequestID(t *testing.T) {
	handler := &stubHandler{}
	gw := New(DefaultConfig(), handler)

	req := httptest.NewRequest("GET", "/status", nil)
	req.Header.Set("X-Request-Id", "upstream-trace-42")
	rec := httptest.NewRecorder()

	gw.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "upstream-trace-42" {
		t.Errorf("Expected incoming request id to be echoed, got %q", got)
	}
}

func TestGateway_BodyLimit(t *testing.T) {
	handler := &stubHandler{}
	config := DefaultConfig()
	config.MaxBodyBytes = 16
	gw := New(config, handler)

	req := httptest.NewRequest("POST", "/api/v1/droid/activate",
		strings.NewReader(strings.Repeat("x", 64)))
	rec := httptest.NewRecorder()

	gw.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rec.Code)
	}
	if handler.req != nil {
		t.Error("Oversized request must not reach the handler")
	}

	var doc errorDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Error body is not valid JSON: %v", err)
	}
	if doc.Error != "request_entity_too_large" {
		t.Errorf("Expected error token 'request_entity_too_large', got %q", doc.Error)
	}
}

func TestGateway_HandlerErrorResponse(t *testing.T) {
	handler := &stubHandler{
		resp: &ProxiedResponse{
			StatusCode: http.StatusBadGateway,
			Error:      errors.New("all backends failed"),
		},
	}
	gw := New(DefaultConfig(), handler)

	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", rec.Code)
	}

	var doc errorDocument
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("Error body is not valid JSON: %v", err)
	}
	if doc.Error != "bad_gateway" {
		t.Errorf("Expected error token 'bad_gateway', got %q", doc.Error)
	}
	if doc.Message != "all backends failed" {
		t.Errorf("Expected handler error message, got %q", doc.Message)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ListenAddress != ":8080" {
		t.Errorf("Expected listen address ':8080', got '%s'", config.ListenAddress)
	}
	if config.MaxBodyBytes != 10<<20 {
		t.Errorf("Expected 10 MiB body limit, got %d", config.MaxBodyBytes)
	}
	if config.ReadTimeout == 0 || config.WriteTimeout == 0 || config.IdleTimeout == 0 {
		t.Error("Expected non-zero default timeouts")
	}
}
