package replay

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec // Регистрации подписей по итогу (fresh/duplicate/error)
	EvictionsTotal     prometheus.Counter     // Вытесненные устаревшие записи
	SweepsTotal        prometheus.Counter     // Запуски фоновой уборки
	Entries            prometheus.Gauge       // Текущее количество записей (memory-бэкенд)
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
			RegistrationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "hmacgw_replay_registrations_total",
					Help: "Total number of signature registrations by result",
				},
				[]string{"result"}, // fresh/duplicate/error
			),
			EvictionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hmacgw_replay_evictions_total",
					Help: "Total number of expired entries evicted from the replay cache",
				},
			),
			SweepsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "hmacgw_replay_sweeps_total",
					Help: "Total number of background sweep runs",
				},
			),
			Entries: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "hmacgw_replay_entries",
					Help: "Current number of entries in the in-memory replay cache",
				},
			),
		}
	})
	return metrics
}
