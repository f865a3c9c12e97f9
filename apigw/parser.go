package apigw

import (
	"io"
	"net/http"

	"github.com/google/uuid"

	"hmacgw/logger"
)

// RequestParser отвечает за преобразование http.Request в ProxiedRequest.
type RequestParser struct{}

// NewRequestParser создает новый экземпляр парсера.
func NewRequestParser() *RequestParser {
	return &RequestParser{}
}

// Parse анализирует HTTP-запрос и создает ProxiedRequest.
// Тело вычитывается целиком: дальше оно нужно дважды - для проверки
// целостности и для пересылки на бэкенд.
func (p *RequestParser) Parse(r *http.Request) (*ProxiedRequest, error) {
	logger.Debug("Parsing HTTP request: %s %s", r.Method, r.URL.Path)

	// Определяем схему из запроса
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	// Также проверяем заголовки для случаев с прокси/балансировщиками
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		if err != nil {
			logger.Debug("Failed to read request body: %v", err)
			return nil, err
		}
	}

	// Request-URI берем с провода как есть. Реконструкция из разобранного
	// URL могла бы изменить байты и сломать проверку подписи.
	// У программно собранных запросов (httptest) поле пустое
	requestURI := r.RequestURI
	if requestURI == "" {
		requestURI = r.URL.RequestURI()
	}

	preq := &ProxiedRequest{
		Method:     r.Method,
		Path:       r.URL.Path,
		RequestURI: requestURI,
		Host:       r.Host,
		Scheme:     scheme,
		RemoteAddr: r.RemoteAddr,
		Headers:    r.Header.Clone(),
		Body:       body,
		RequestID:  requestID,
		Context:    r.Context(),
	}

	logger.Debug("Parsed request: id=%s scheme=%s host=%s body=%d bytes",
		preq.RequestID, preq.Scheme, preq.Host, len(preq.Body))
	return preq, nil
}
