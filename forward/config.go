package forward

import (
	"fmt"
	"time"

	"hmacgw/auth"
)

// Config содержит конфигурацию модуля пересылки
type Config struct {
	// RequestTimeout - общий таймаут одного запроса к апстриму,
	// включая чтение заголовков ответа
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxIdleConnsPerHost - размер пула keep-alive соединений на один апстрим
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// StripHeaders - заголовки, вырезаемые из запроса перед пересылкой.
	// Учетные данные протокола аутентификации апстриму не передаются
	StripHeaders []string `yaml:"strip_headers"`
}

// DefaultConfig возвращает конфигурацию модуля пересылки по умолчанию
func DefaultConfig() Config {
	return Config{
		RequestTimeout:      30 * time.Second,
		MaxIdleConnsPerHost: 32,
		StripHeaders: []string{
			auth.HeaderAuthorization,
			auth.HeaderUsername,
		},
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}

	if c.MaxIdleConnsPerHost < 0 {
		return fmt.Errorf("max_idle_conns_per_host cannot be negative")
	}

	for _, name := range c.StripHeaders {
		if name == "" {
			return fmt.Errorf("strip_headers cannot contain empty entries")
		}
	}

	return nil
}
