package apigw

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"hmacgw/logger"
)

// ResponseWriter отвечает за отправку ProxiedResponse клиенту.
type ResponseWriter struct{}

// NewResponseWriter создает новый экземпляр writer'а ответов.
func NewResponseWriter() *ResponseWriter {
	return &ResponseWriter{}
}

// WriteResponse записывает ProxiedResponse в http.ResponseWriter.
// Заголовки ответа копируются всегда, в том числе на пути ошибки:
// там едут WWW-Authenticate и Retry-After.
func (rw *ResponseWriter) WriteResponse(w http.ResponseWriter, presp *ProxiedResponse) error {
	logger.Debug("Writing response: status=%d, hasBody=%t, hasError=%t",
		presp.StatusCode, presp.Body != nil, presp.Error != nil)

	if presp.Headers != nil {
		for key, values := range presp.Headers {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
	}

	if presp.Error != nil {
		return rw.writeErrorResponse(w, presp)
	}

	status := presp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if presp.Body != nil {
		defer presp.Body.Close()
		if _, err := io.Copy(w, presp.Body); err != nil {
			logger.Debug("Error writing response body: %v", err)
			return err
		}
	}

	return nil
}

// errorDocument - стандартное JSON-тело ошибки.
type errorDocument struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeErrorResponse записывает стандартный JSON-ответ об ошибке.
// Сообщение берется из ProxiedResponse.Error как есть: формирующий
// ответ модуль отвечает за то, чтобы оно было публичным.
func (rw *ResponseWriter) writeErrorResponse(w http.ResponseWriter, presp *ProxiedResponse) error {
	status := presp.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	doc := errorDocument{
		Error:   statusToken(status),
		Message: presp.Error.Error(),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		http.Error(w, presp.Error.Error(), status)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)

	_, writeErr := w.Write(body)
	return writeErr
}

// statusToken превращает HTTP-статус в машиночитаемый токен ошибки:
// 401 -> "unauthorized", 502 -> "bad_gateway".
func statusToken(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
