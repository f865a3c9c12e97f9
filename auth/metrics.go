package auth

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Общие метрики проверок
	RequestsTotal   *prometheus.CounterVec   // Количество проверок по итогу (accepted/rejected/error)
	RejectionsTotal *prometheus.CounterVec   // Количество отказов по причинам
	Latency         *prometheus.HistogramVec // Латентность полной проверки запроса
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics возвращает метрики пакета. Регистрация в Prometheus
// выполняется один раз, повторные вызовы возвращают тот же экземпляр.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_auth_requests_total",
					Help: "Total number of authentication checks by outcome",
				},
				[]string{"result"}, // accepted/rejected/error
			),
			RejectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_auth_rejections_total",
					Help: "Total number of rejected requests by reason",
				},
				[]string{"reason"},
			),
			Latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "hmacgw_auth_latency_seconds",
					Help:    "Latency of full request validation in seconds",
					Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
				},
				[]string{"result"},
			),
		}
	})
	return metrics
}
