package monitoring

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics - метрики уровня приложения. Метрики отдельных модулей
// живут в самих модулях, здесь только то, что описывает процесс целиком
type Metrics struct {
	// BuildInfo - постоянная метрика со сведениями о сборке.
	// Значение всегда 1, информация передается через лейблы
	BuildInfo *prometheus.GaugeVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// NewMetrics создает и регистрирует метрики приложения в Prometheus.
// Повторные вызовы возвращают тот же экземпляр: default registry
// не допускает двойной регистрации
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			BuildInfo: promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "hmacgw_build_info",
					Help: "Build information of the running gateway",
				},
				[]string{"version"},
			),
		}
	})
	return metricsInstance
}

// SetBuildInfo выставляет метрику сборки для данной версии
func (m *Metrics) SetBuildInfo(version string) {
	m.BuildInfo.WithLabelValues(version).Set(1)
}

// GetRegistry возвращает default Prometheus registry.
// Это может быть полезно для тестирования или кастомной настройки.
func GetRegistry() *prometheus.Registry {
	return prometheus.DefaultRegisterer.(*prometheus.Registry)
}
