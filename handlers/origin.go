package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hmacgw/logger"
)

// Origin - встроенный эхо-апстрим для демонстрации и интеграционных тестов.
// Позволяет поднять шлюз без внешнего бэкенда: на любой запрос отвечает
// JSON-описанием того, что до него дошло после аутентификации и пересылки
type Origin struct {
	config Config
	router *chi.Mux
	server *http.Server
}

// NewOrigin создает новый встроенный апстрим
func NewOrigin(cfg Config) *Origin {
	o := &Origin{config: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", o.handleHealth)
	r.HandleFunc("/*", o.handleEcho)

	o.router = r
	return o
}

// Router возвращает HTTP-обработчик апстрима
func (o *Origin) Router() http.Handler {
	return o.router
}

// Start запускает апстрим на собственном адресе
func (o *Origin) Start() error {
	o.server = &http.Server{
		Addr:    o.config.ListenAddress,
		Handler: o.router,
	}

	go func() {
		logger.Info("Builtin origin listening on %s", o.config.ListenAddress)
		if err := o.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Builtin origin failed: %v", err)
		}
	}()

	return nil
}

// Stop останавливает апстрим
func (o *Origin) Stop(ctx context.Context) error {
	if o.server == nil {
		return nil
	}

	logger.Info("Stopping builtin origin...")
	return o.server.Shutdown(ctx)
}

// echoDocument - JSON-описание запроса, каким его увидел апстрим
type echoDocument struct {
	Method       string            `json:"method"`
	Path         string            `json:"path"`
	Query        string            `json:"query,omitempty"`
	Headers      map[string]string `json:"headers"`
	BodySize     int               `json:"body_size"`
	Body         string            `json:"body,omitempty"`
	Principal    string            `json:"principal,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	ForwardedFor string            `json:"forwarded_for,omitempty"`
}

func (o *Origin) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleEcho отвечает на любой метод и путь описанием запроса.
// Тело возвращается как строка: апстрим рассчитан на текстовые нагрузки
func (o *Origin) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[name] = strings.Join(values, ", ")
	}

	doc := echoDocument{
		Method:       r.Method,
		Path:         r.URL.Path,
		Query:        r.URL.RawQuery,
		Headers:      headers,
		BodySize:     len(body),
		Body:         string(body),
		Principal:    r.Header.Get("X-Forwarded-User"),
		RequestID:    r.Header.Get("X-Request-Id"),
		ForwardedFor: r.Header.Get("X-Forwarded-For"),
	}

	logger.Debug("Builtin origin: %s %s (principal: '%s')", r.Method, r.URL.Path, doc.Principal)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		logger.Error("Builtin origin: failed to encode response: %v", err)
	}
}
