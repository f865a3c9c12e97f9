package routing

import (
	"context"
	"fmt"

	"hmacgw/apigw"
)

// Route - одно правило маршрутизации по префиксу пути
type Route struct {
	// Name - имя маршрута для логов и метрик
	Name string `yaml:"name"`

	// PathPrefix - префикс пути запроса. Совпадение учитывает границу
	// сегмента: префикс "/api" покрывает "/api" и "/api/...", но не "/apix"
	PathPrefix string `yaml:"path_prefix"`

	// Backends - идентификаторы апстримов в порядке приоритета.
	// Пустой список означает все сконфигурированные апстримы
	Backends []string `yaml:"backends"`

	// Public отключает аутентификацию для этого маршрута
	Public bool `yaml:"public"`
}

// Matches проверяет, покрывает ли маршрут данный путь (без query-строки)
func (r *Route) Matches(path string) bool {
	prefix := r.PathPrefix
	if prefix == "" || prefix == "/" {
		return true
	}

	for len(prefix) > 1 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}

	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}

	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// ForwardingExecutor - интерфейс для модуля, пересылающего запросы на апстримы
type ForwardingExecutor interface {
	// Forward пересылает запрос на один из живых апстримов маршрута
	// и возвращает ответ апстрима либо ошибку пересылки
	Forward(ctx context.Context, req *apigw.ProxiedRequest, route *Route) *apigw.ProxiedResponse
}

// RateLimitConfig описывает ограничение частоты запросов одного пользователя
type RateLimitConfig struct {
	// Enabled включает ограничитель
	Enabled bool `yaml:"enabled"`

	// RequestsPerSecond - установившаяся частота для одного пользователя
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// Burst - максимальный кратковременный всплеск для одного пользователя
	Burst int `yaml:"burst"`

	// MaxPrincipals - верхняя граница таблицы ограничителей
	MaxPrincipals int `yaml:"max_principals"`
}

// Config содержит конфигурацию для Policy & Routing Engine
type Config struct {
	Routes    []Route         `yaml:"routes"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// DefaultConfig возвращает конфигурацию по умолчанию: один общий маршрут
// на все апстримы с обязательной аутентификацией, ограничитель выключен
func DefaultConfig() *Config {
	return &Config{
		Routes: []Route{
			{
				Name:       "default",
				PathPrefix: "/",
			},
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerSecond: 50,
			Burst:             100,
			MaxPrincipals:     10000,
		},
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return fmt.Errorf("at least one route must be configured")
	}

	seen := make(map[string]bool, len(c.Routes))
	for i := range c.Routes {
		if err := c.Routes[i].Validate(); err != nil {
			return fmt.Errorf("invalid route #%d: %w", i, err)
		}
		if seen[c.Routes[i].Name] {
			return fmt.Errorf("duplicate route name '%s'", c.Routes[i].Name)
		}
		seen[c.Routes[i].Name] = true
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limit: requests_per_second must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("rate_limit: burst must be positive")
		}
		if c.RateLimit.MaxPrincipals <= 0 {
			return fmt.Errorf("rate_limit: max_principals must be positive")
		}
	}

	return nil
}

// Validate проверяет корректность одного маршрута
func (r *Route) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	if r.PathPrefix == "" {
		return fmt.Errorf("path_prefix cannot be empty")
	}

	if r.PathPrefix[0] != '/' {
		return fmt.Errorf("path_prefix must start with '/'")
	}

	for _, id := range r.Backends {
		if id == "" {
			return fmt.Errorf("backends cannot contain empty entries")
		}
	}

	return nil
}
