package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hmacgw/backend"
	"hmacgw/logger"
)

// Server представляет HTTP сервер для экспорта метрик Prometheus
// и health-check эндпоинтов
type Server struct {
	config          *Config
	server          *http.Server
	router          *chi.Mux
	backendProvider backend.Provider
	shuttingDown    atomic.Bool
}

// NewServer создает новый сервер метрик.
// backendProvider может быть nil: тогда readiness не проверяет бэкенды
func NewServer(config *Config, backendProvider backend.Provider) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config:          config,
		backendProvider: backendProvider,
	}
	s.shuttingDown.Store(false)

	r := chi.NewRouter()
	r.Handle(config.MetricsPath, promhttp.Handler())
	r.Get("/health/live", s.liveHealthHandler)
	r.Get("/health/ready", s.readyHealthHandler)
	s.router = r

	return s
}

// Start запускает HTTP сервер для метрик
func (s *Server) Start() error {
	if !s.config.Enabled {
		logger.Info("Monitoring is disabled, skipping metrics server start")
		return nil
	}

	s.server = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	// Запускаем сервер в отдельной горутине
	go func() {
		logger.Info("Metrics server listening on %s%s", s.config.ListenAddress, s.config.MetricsPath)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed: %v", err)
		}
	}()

	return nil
}

// Stop останавливает HTTP сервер метрик
func (s *Server) Stop(ctx context.Context) error {
	if !s.config.Enabled || s.server == nil {
		return nil
	}

	logger.Info("Stopping metrics server...")
	return s.server.Shutdown(ctx)
}

// SetShuttingDown помечает сервер как завершающийся: readiness начинает
// отвечать 503, чтобы балансировщик перестал слать новые запросы
func (s *Server) SetShuttingDown() {
	s.shuttingDown.Store(true)
}

// liveHealthHandler обрабатывает запросы /health/live
func (s *Server) liveHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok"}`)
}

// readyHealthHandler обрабатывает запросы /health/ready
func (s *Server) readyHealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Проверяем, не находимся ли мы в состоянии graceful shutdown
	if s.shuttingDown.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"shutting down"}`)
		return
	}

	// Проверяем, есть ли живые бэкенды
	if s.backendProvider != nil && len(s.backendProvider.GetLiveBackends()) == 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"no live backends"}`)
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok"}`)
}
