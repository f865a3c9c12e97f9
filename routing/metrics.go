package routing

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequestsTotal  *prometheus.CounterVec // Запросы по маршрутам
	ThrottledTotal *prometheus.CounterVec // Запросы, отклоненные ограничителем частоты
	UnroutedTotal  prometheus.Counter     // Запросы, не попавшие ни в один маршрут
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
			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_routing_requests_total",
					Help: "Total number of requests handled per route",
				},
				[]string{"route"},
			),
			ThrottledTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_routing_throttled_total",
					Help: "Total number of requests rejected by the per-principal rate limiter",
				},
				[]string{"route"},
			),
			UnroutedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hmacgw_routing_unrouted_total",
					Help: "Total number of requests that matched no configured route",
				},
			),
		}
	})
	return metrics
}
