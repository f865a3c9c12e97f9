package backend

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Метрики апстримов
	BackendState         *prometheus.GaugeVec     // Текущее состояние апстрима (1=UP, 0.5=PROBING, 0=DOWN)
	BackendRequestsTotal *prometheus.CounterVec   // Количество запросов к конкретным апстримам
	BackendLatency       *prometheus.HistogramVec // Латентность запросов к апстримам
	BackendBytesRead     *prometheus.CounterVec   // Количество прочитанных байт с апстримов
	BackendBytesWrite    *prometheus.CounterVec   // Количество записанных байт в апстримы
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics возвращает общий набор метрик пакета.
// Коллекторы регистрируются в default registry один раз,
// повторные вызовы возвращают тот же экземпляр.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			BackendState: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "hmacgw_backend_state",
					Help: "Current state of a backend (1=UP, 0.5=PROBING, 0=DOWN)",
				},
				[]string{"backend"},
			),
			BackendRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_backend_requests_total",
					Help: "Total number of requests sent to backends",
				},
				[]string{"backend", "method", "code"},
			),
			BackendLatency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "hmacgw_backend_latency_seconds",
					Help:    "Latency of requests to backends in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"backend", "method"},
			),
			BackendBytesRead: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_backend_bytes_read_total",
					Help: "Total number of bytes read from backends",
				},
				[]string{"backend"},
			),
			BackendBytesWrite: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_backend_bytes_write_total",
					Help: "Total number of bytes written to backends",
				},
				[]string{"backend"},
			),
		}
	})
	return metrics
}
