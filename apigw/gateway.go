package apigw

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"hmacgw/logger"
)

// Gateway представляет модуль API Gateway: принимает HTTP-запросы,
// нормализует их во внутреннее представление и передает обработчику.
type Gateway struct {
	config         Config
	handler        RequestHandler
	parser         *RequestParser
	responseWriter *ResponseWriter
	server         *http.Server
	metrics        *Metrics
}

// New создает новый экземпляр API Gateway.
func New(config Config, handler RequestHandler) *Gateway {
	return &Gateway{
		config:         config,
		handler:        handler,
		parser:         NewRequestParser(),
		responseWriter: NewResponseWriter(),
		metrics:        NewMetrics(),
	}
}

// ServeHTTP реализует интерфейс http.Handler.
func (gw *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.Info("Incoming request: %s %s", r.Method, r.URL.Path)

	// Ограничиваем размер тела до буферизации.
	if gw.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, gw.config.MaxBodyBytes)
	}

	preq, err := gw.parser.Parse(r)
	if err != nil {
		status := http.StatusBadRequest
		message := "invalid request"

		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
		}
		logger.Error("Failed to parse request: %v", err)

		presp := &ProxiedResponse{
			StatusCode: status,
			Error:      errors.New(message),
		}
		gw.responseWriter.WriteResponse(w, presp)

		gw.metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		gw.metrics.RequestLatency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		return
	}

	// Идентификатор запроса возвращается клиенту для сквозной трассировки.
	w.Header().Set("X-Request-Id", preq.RequestID)

	presp := gw.handler.Handle(preq)

	if err := gw.responseWriter.WriteResponse(w, presp); err != nil {
		logger.Error("Failed to write response: %v", err)
	}

	logger.Info("Response sent: %d, %.3f ms, id=%s",
		presp.StatusCode, float64(time.Since(start).Microseconds())/1000.0, preq.RequestID)

	gw.metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(presp.StatusCode)).Inc()
	gw.metrics.RequestLatency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
}

// Start запускает сервер.
func (gw *Gateway) Start() error {
	gw.server = &http.Server{
		Addr:         gw.config.ListenAddress,
		Handler:      gw,
		ReadTimeout:  gw.config.ReadTimeout,
		WriteTimeout: gw.config.WriteTimeout,
		IdleTimeout:  gw.config.IdleTimeout,
	}

	logger.Info("Starting API Gateway on %s", gw.config.ListenAddress)

	// Проверяем, нужно ли использовать TLS
	if gw.config.TLSCertFile != "" && gw.config.TLSKeyFile != "" {
		logger.Info("Starting HTTPS server with TLS")
		return gw.server.ListenAndServeTLS(gw.config.TLSCertFile, gw.config.TLSKeyFile)
	}

	logger.Info("Starting HTTP server")
	return gw.server.ListenAndServe()
}

// Stop останавливает сервер.
func (gw *Gateway) Stop(ctx context.Context) error {
	if gw.server == nil {
		return nil
	}

	logger.Info("Stopping API Gateway...")
	return gw.server.Shutdown(ctx)
}
