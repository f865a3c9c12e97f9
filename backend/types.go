package backend

import (
	"net/url"
	"sync"
	"time"
)

// BackendState представляет состояние апстрима
type BackendState string

const (
	StateUp      BackendState = "UP"      // Апстрим полностью работоспособен
	StateDown    BackendState = "DOWN"    // Апстрим недоступен
	StateProbing BackendState = "PROBING" // Промежуточное состояние - проверка восстановления
)

// String возвращает строковое представление состояния
func (s BackendState) String() string {
	return string(s)
}

// ToFloat64 возвращает числовое представление состояния для метрик Prometheus
func (s BackendState) ToFloat64() float64 {
	switch s {
	case StateUp:
		return 1.0
	case StateProbing:
		return 0.5
	case StateDown:
		return 0.0
	default:
		return 0.0
	}
}

// BackendConfig содержит конфигурацию одного апстрима
type BackendConfig struct {
	// URL - базовый адрес апстрима (например, http://orders.internal:8080)
	URL string `yaml:"url" json:"url"`

	// HealthPath - путь для активной проверки здоровья (GET, ожидается 2xx)
	HealthPath string `yaml:"health_path" json:"health_path"`
}

// Backend представляет один апстрим с его состоянием
type Backend struct {
	ID      string        // Уникальный идентификатор апстрима
	Config  BackendConfig // Конфигурация апстрима
	BaseURL *url.URL      // Разобранный базовый URL для построения исходящих запросов

	// Внутреннее состояние, защищенное мьютексом
	mu                   sync.RWMutex
	state                BackendState
	lastError            error
	lastCheckTime        time.Time
	consecutiveFailures  int // Количество последовательных неудач
	consecutiveSuccesses int // Количество последовательных успехов

	// Статистика для Circuit Breaker
	recentFailures int       // Количество неудач в скользящем окне
	windowStart    time.Time // Начало текущего окна
}

// BackendResult представляет результат операции на одном апстриме
type BackendResult struct {
	BackendID    string
	Method       string // HTTP-метод проксированного запроса
	StatusCode   int    // Код статуса ответа (0, если ответа не было)
	Err          error
	Duration     time.Duration
	BytesWritten int64
	BytesRead    int64
}

// GetState возвращает текущее состояние апстрима (потокобезопасно)
func (b *Backend) GetState() BackendState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// GetLastError возвращает последнюю ошибку (потокобезопасно)
func (b *Backend) GetLastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

// GetLastCheckTime возвращает время последней проверки (потокобезопасно)
func (b *Backend) GetLastCheckTime() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastCheckTime
}

// GetStats возвращает статистику апстрима (потокобезопасно)
func (b *Backend) GetStats() (consecutiveFailures, consecutiveSuccesses, recentFailures int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.consecutiveFailures, b.consecutiveSuccesses, b.recentFailures
}

// Provider - интерфейс для получения информации об апстримах
type Provider interface {
	// GetLiveBackends возвращает список всех работоспособных апстримов (UP)
	GetLiveBackends() []*Backend

	// GetAllBackends возвращает список всех сконфигурированных апстримов
	GetAllBackends() []*Backend

	// GetBackend возвращает апстрим по ID
	GetBackend(id string) (*Backend, bool)

	// ReportSuccess сообщает об успешной операции с апстримом (пассивная проверка)
	ReportSuccess(result *BackendResult)

	// ReportFailure сообщает о неудачной операции с апстримом (пассивная проверка)
	ReportFailure(result *BackendResult)

	// Start запускает менеджер апстримов (активные проверки)
	Start() error

	// Stop останавливает менеджер апстримов
	Stop() error

	// IsRunning возвращает true, если менеджер запущен
	IsRunning() bool
}
