package routing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"hmacgw/apigw"
	"hmacgw/auth"
	"hmacgw/logger"
)

// Engine - это реализация Policy & Routing Engine
type Engine struct {
	// Зависимости, внедряемые при создании
	auth      auth.Authenticator // Модуль аутентификации
	forwarder ForwardingExecutor // Модуль пересылки на апстримы
	limiter   *PrincipalLimiter  // Ограничитель частоты, nil если выключен

	// Конфигурация политик, загружаемая при старте
	routes     []Route
	authConfig auth.Config

	metrics *Metrics
}

// NewEngine создает новый экземпляр Engine
func NewEngine(
	authenticator auth.Authenticator,
	forwarder ForwardingExecutor,
	authConfig auth.Config,
	config *Config,
) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	var limiter *PrincipalLimiter
	if config.RateLimit.Enabled {
		limiter = NewPrincipalLimiter(config.RateLimit)
	}

	return &Engine{
		auth:       authenticator,
		forwarder:  forwarder,
		limiter:    limiter,
		routes:     config.Routes,
		authConfig: authConfig,
		metrics:    NewMetrics(),
	}
}

// Handle - реализация интерфейса RequestHandler. Это точка входа в модуль
func (e *Engine) Handle(req *apigw.ProxiedRequest) *apigw.ProxiedResponse {
	logger.Debug("[%s] Policy & Routing Engine: handling request - %s %s",
		req.RequestID, req.Method, req.Path)

	// Шаг 1: Выбор маршрута
	route := e.matchRoute(req.Path)
	if route == nil {
		logger.Warn("[%s] No route matches path %s", req.RequestID, req.Path)
		e.metrics.UnroutedTotal.Inc()
		return e.createErrorResponse(http.StatusNotFound,
			"not_found", "No route matches the request path.", "")
	}

	e.metrics.RequestsTotal.WithLabelValues(route.Name).Inc()
	logger.Debug("[%s] Matched route '%s' (prefix: %s, public: %v)",
		req.RequestID, route.Name, route.PathPrefix, route.Public)

	// Шаг 2: Аутентификация
	if route.Public {
		logger.Debug("[%s] Route '%s' is public, skipping authentication",
			req.RequestID, route.Name)
	} else {
		decision, err := e.auth.Validate(req)
		if err != nil {
			// Сбой инфраструктуры: проверку выполнить не удалось,
			// и запрос нельзя ни принять, ни квалифицированно отклонить.
			// Отвечаем 5xx, а не 401
			logger.Error("[%s] Authentication infrastructure failure: %v", req.RequestID, err)
			return e.createErrorResponse(http.StatusInternalServerError,
				"internal_error", "Authentication could not be completed.", "")
		}

		if !decision.Accepted() {
			logger.Info("[%s] Request rejected: %s (user: '%s')",
				req.RequestID, decision.Reason, decision.Username)
			return e.createAuthErrorResponse(decision)
		}

		req.Principal = decision.Username
		logger.Debug("[%s] Authenticated principal '%s' (clock delta: %v)",
			req.RequestID, decision.Username, decision.Delta)

		// Шаг 3: Ограничение частоты для аутентифицированных пользователей
		if e.limiter != nil && !e.limiter.Allow(decision.Username) {
			logger.Warn("[%s] Principal '%s' throttled on route '%s'",
				req.RequestID, decision.Username, route.Name)
			e.metrics.ThrottledTotal.WithLabelValues(route.Name).Inc()
			return e.createThrottledResponse()
		}
	}

	// Шаг 4: Пересылка на апстрим
	logger.Debug("[%s] Forwarding via route '%s'", req.RequestID, route.Name)
	return e.forwarder.Forward(req.Context, req, route)
}

// matchRoute возвращает первый маршрут, покрывающий путь.
// Порядок маршрутов в конфигурации определяет приоритет
func (e *Engine) matchRoute(path string) *Route {
	for i := range e.routes {
		if e.routes[i].Matches(path) {
			return &e.routes[i]
		}
	}
	return nil
}

// createAuthErrorResponse преобразует отказ валидатора в стандартный ответ 401.
// Клиент получает только сконфигурированный текст; причина отказа попадает
// в тело исключительно в отладочном режиме
func (e *Engine) createAuthErrorResponse(decision auth.Decision) *apigw.ProxiedResponse {
	var detail string
	if e.authConfig.DebugDiagnostics {
		detail = decision.Reason.String()
		if decision.Diagnostic != "" {
			detail += ": " + decision.Diagnostic
		}
	}

	resp := e.createErrorResponse(http.StatusUnauthorized,
		"unauthorized", e.authConfig.UnauthorizedMessage, detail)
	resp.Headers.Set("WWW-Authenticate", e.authConfig.Scheme)

	return resp
}

// createThrottledResponse создает ответ 429 для запросов сверх лимита
func (e *Engine) createThrottledResponse() *apigw.ProxiedResponse {
	resp := e.createErrorResponse(http.StatusTooManyRequests,
		"too_many_requests", "Request rate limit exceeded.", "")
	resp.Headers.Set("Retry-After", "1")

	return resp
}

// createErrorResponse создает готовый JSON-ответ об ошибке
func (e *Engine) createErrorResponse(statusCode int, code, message, detail string) *apigw.ProxiedResponse {
	body := e.formatErrorJSON(code, message, detail)

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Content-Length", fmt.Sprintf("%d", len(body)))

	return &apigw.ProxiedResponse{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Headers:    headers,
		// Не устанавливаем Error, так как у нас уже есть правильно сформированный ответ
	}
}

// formatErrorJSON форматирует ошибку в стандартное JSON-тело
func (e *Engine) formatErrorJSON(code, message, detail string) string {
	doc := struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail,omitempty"`
	}{
		Error:   code,
		Message: message,
		Detail:  detail,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		logger.Error("Failed to marshal error body: %v", err)
		return `{"error":"internal_error","message":"Internal error."}`
	}

	return string(body)
}
