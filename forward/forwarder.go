package forward

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"hmacgw/apigw"
	"hmacgw/backend"
	"hmacgw/logger"
	"hmacgw/routing"
)

// hopHeaders - заголовки, имеющие смысл только в рамках одного соединения.
// Прокси обязан их вырезать в обе стороны (RFC 9110 §7.6.1)
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder реализует интерфейс routing.ForwardingExecutor
type Forwarder struct {
	backendProvider backend.Provider
	client          *http.Client
	config          Config
}

// NewForwarder создает новый экземпляр Forwarder
func NewForwarder(provider backend.Provider, cfg Config) (*Forwarder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		},
		// Редиректы апстрима уходят клиенту как есть
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &Forwarder{
		backendProvider: provider,
		client:          client,
		config:          cfg,
	}, nil
}

// Forward пересылает запрос на первый ответивший живой апстрим маршрута.
// Транспортная ошибка приводит к переходу на следующий апстрим;
// HTTP-ответ апстрима, включая 4xx и 5xx, возвращается клиенту как есть
func (f *Forwarder) Forward(ctx context.Context, req *apigw.ProxiedRequest, route *routing.Route) *apigw.ProxiedResponse {
	candidates := f.selectBackends(route)
	if len(candidates) == 0 {
		logger.Warn("[%s] No live backends for route '%s'", req.RequestID, route.Name)
		return &apigw.ProxiedResponse{
			StatusCode: http.StatusServiceUnavailable,
			Headers:    make(http.Header),
			Error:      fmt.Errorf("no live backends available"),
		}
	}

	var lastErr error
	for _, b := range candidates {
		resp, result := f.performForward(ctx, req, b)

		if result.Err != nil {
			lastErr = result.Err
			f.backendProvider.ReportFailure(result)
			logger.Warn("[%s] Backend '%s' failed: %v", req.RequestID, b.ID, result.Err)

			// Если клиент отменил запрос, перебирать оставшиеся
			// апстримы бессмысленно
			if ctx.Err() != nil {
				break
			}
			continue
		}

		f.backendProvider.ReportSuccess(result)
		logger.Debug("[%s] Backend '%s' answered %d in %v",
			req.RequestID, b.ID, result.StatusCode, result.Duration)
		return resp
	}

	logger.Error("[%s] All backends failed for route '%s', last error: %v",
		req.RequestID, route.Name, lastErr)
	return &apigw.ProxiedResponse{
		StatusCode: http.StatusBadGateway,
		Headers:    make(http.Header),
		Error:      fmt.Errorf("all backends failed"),
	}
}

// selectBackends возвращает живые апстримы маршрута в порядке приоритета.
// Пустой список Backends у маршрута означает все живые апстримы
func (f *Forwarder) selectBackends(route *routing.Route) []*backend.Backend {
	live := f.backendProvider.GetLiveBackends()
	if len(route.Backends) == 0 {
		return live
	}

	byID := make(map[string]*backend.Backend, len(live))
	for _, b := range live {
		byID[b.ID] = b
	}

	selected := make([]*backend.Backend, 0, len(route.Backends))
	for _, id := range route.Backends {
		if b, ok := byID[id]; ok {
			selected = append(selected, b)
		}
	}

	return selected
}

// performForward выполняет запрос к конкретному апстриму
func (f *Forwarder) performForward(ctx context.Context, req *apigw.ProxiedRequest, b *backend.Backend) (*apigw.ProxiedResponse, *backend.BackendResult) {
	result := &backend.BackendResult{
		BackendID:    b.ID,
		Method:       req.Method,
		BytesWritten: int64(len(req.Body)),
	}

	out, err := f.buildOutboundRequest(ctx, req, b)
	if err != nil {
		result.Err = err
		return nil, result
	}

	start := time.Now()
	resp, err := f.client.Do(out)
	result.Duration = time.Since(start)

	if err != nil {
		result.Err = err
		return nil, result
	}

	result.StatusCode = resp.StatusCode
	if resp.ContentLength > 0 {
		result.BytesRead = resp.ContentLength
	}

	headers := resp.Header.Clone()
	removeHopByHopHeaders(headers)

	// Тело не буферизуем: оно стримится клиенту и закрывается
	// модулем API Gateway после отправки
	return &apigw.ProxiedResponse{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       resp.Body,
	}, result
}

// buildOutboundRequest строит исходящий запрос к апстриму
func (f *Forwarder) buildOutboundRequest(ctx context.Context, req *apigw.ProxiedRequest, b *backend.Backend) (*http.Request, error) {
	// Request-URI приклеивается к базовому URL байт в байт,
	// без повторного кодирования
	target := b.BaseURL.String() + req.RequestURI

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	out, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for backend '%s': %w", b.ID, err)
	}

	out.Header = req.Headers.Clone()
	removeHopByHopHeaders(out.Header)

	// Учетные данные протокола аутентификации апстриму не передаются
	for _, name := range f.config.StripHeaders {
		out.Header.Del(name)
	}

	// Стандартная цепочка X-Forwarded-For: адрес клиента дописывается
	// к уже имеющемуся списку
	if clientIP, _, splitErr := net.SplitHostPort(req.RemoteAddr); splitErr == nil {
		if prior := out.Header.Get("X-Forwarded-For"); prior != "" {
			clientIP = prior + ", " + clientIP
		}
		out.Header.Set("X-Forwarded-For", clientIP)
	}
	out.Header.Set("X-Forwarded-Proto", req.Scheme)
	out.Header.Set("X-Forwarded-Host", req.Host)

	// Имя пользователя сообщает только шлюз: клиентское значение
	// вырезается даже на публичных маршрутах
	out.Header.Del("X-Forwarded-User")
	if req.Principal != "" {
		out.Header.Set("X-Forwarded-User", req.Principal)
	}

	out.Header.Set("X-Request-Id", req.RequestID)

	return out, nil
}

// removeHopByHopHeaders вырезает заголовки уровня соединения,
// включая перечисленные в самом заголовке Connection
func removeHopByHopHeaders(h http.Header) {
	for _, value := range h.Values("Connection") {
		for _, name := range strings.Split(value, ",") {
			if name = textproto.TrimString(name); name != "" {
				h.Del(name)
			}
		}
	}

	for _, name := range hopHeaders {
		h.Del(name)
	}
}
