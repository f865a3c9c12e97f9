package backend

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ManagerConfig содержит конфигурацию для менеджера апстримов
type ManagerConfig struct {
	// HealthCheckInterval - интервал между активными проверками здоровья
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`

	// CheckTimeout - таймаут для одной проверки здоровья
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// FailureThreshold - количество последовательных неудач для перехода в DOWN
	FailureThreshold int `yaml:"failure_threshold"`

	// SuccessThreshold - количество последовательных успехов для перехода из PROBING в UP
	SuccessThreshold int `yaml:"success_threshold"`

	// CircuitBreakerWindow - размер скользящего окна для Circuit Breaker
	CircuitBreakerWindow time.Duration `yaml:"circuit_breaker_window"`

	// CircuitBreakerThreshold - количество ошибок в окне для срабатывания Circuit Breaker
	CircuitBreakerThreshold int `yaml:"circuit_breaker_threshold"`

	// InitialState - начальное состояние апстримов при запуске
	InitialState BackendState `yaml:"initial_state"`
}

// Config содержит полную конфигурацию модуля
type Config struct {
	Manager  ManagerConfig            `yaml:"manager"`
	Backends map[string]BackendConfig `yaml:"backends"`
}

// DefaultManagerConfig возвращает конфигурацию менеджера по умолчанию
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		HealthCheckInterval:     15 * time.Second,
		CheckTimeout:            5 * time.Second,
		FailureThreshold:        3,
		SuccessThreshold:        2,
		CircuitBreakerWindow:    60 * time.Second,
		CircuitBreakerThreshold: 5,
		InitialState:            StateProbing, // Начинаем с проверки
	}
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Manager: DefaultManagerConfig(),
		Backends: map[string]BackendConfig{
			// Адрес совпадает с адресом встроенного эхо-апстрима
			"local-origin": {
				URL:        "http://127.0.0.1:9901",
				HealthPath: "/healthz",
			},
		},
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	// Проверяем конфигурацию менеджера
	if err := c.Manager.Validate(); err != nil {
		return fmt.Errorf("invalid manager config: %w", err)
	}

	// Проверяем, что есть хотя бы один апстрим
	if len(c.Backends) == 0 {
		return fmt.Errorf("at least one backend must be configured")
	}

	// Проверяем каждый апстрим
	for id, backend := range c.Backends {
		if err := backend.Validate(); err != nil {
			return fmt.Errorf("invalid backend config '%s': %w", id, err)
		}
	}

	return nil
}

// Validate проверяет корректность конфигурации менеджера
func (mc *ManagerConfig) Validate() error {
	if mc.HealthCheckInterval <= 0 {
		return fmt.Errorf("health_check_interval must be positive")
	}

	if mc.CheckTimeout <= 0 {
		return fmt.Errorf("check_timeout must be positive")
	}

	if mc.CheckTimeout >= mc.HealthCheckInterval {
		return fmt.Errorf("check_timeout must be less than health_check_interval")
	}

	if mc.FailureThreshold <= 0 {
		return fmt.Errorf("failure_threshold must be positive")
	}

	if mc.SuccessThreshold <= 0 {
		return fmt.Errorf("success_threshold must be positive")
	}

	if mc.CircuitBreakerWindow <= 0 {
		return fmt.Errorf("circuit_breaker_window must be positive")
	}

	if mc.CircuitBreakerThreshold <= 0 {
		return fmt.Errorf("circuit_breaker_threshold must be positive")
	}

	if mc.InitialState != StateUp && mc.InitialState != StateDown && mc.InitialState != StateProbing {
		return fmt.Errorf("initial_state must be one of: UP, DOWN, PROBING")
	}

	return nil
}

// Validate проверяет корректность конфигурации апстрима
func (bc *BackendConfig) Validate() error {
	if bc.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}

	parsed, err := url.Parse(bc.URL)
	if err != nil {
		return fmt.Errorf("url is not valid: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}

	if parsed.Host == "" {
		return fmt.Errorf("url must contain a host")
	}

	if bc.HealthPath != "" && !strings.HasPrefix(bc.HealthPath, "/") {
		return fmt.Errorf("health_path must start with '/'")
	}

	return nil
}
