package handlers

import "fmt"

// Config содержит конфигурацию встроенного апстрима
type Config struct {
	// ListenAddress - адрес, на котором поднимается встроенный апстрим
	ListenAddress string `yaml:"listen_address"`
}

// DefaultConfig возвращает конфигурацию встроенного апстрима по умолчанию
func DefaultConfig() Config {
	return Config{
		ListenAddress: "127.0.0.1:9901",
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address cannot be empty")
	}
	return nil
}
