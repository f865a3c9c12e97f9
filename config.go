package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"hmacgw/apigw"
	"hmacgw/auth"
	"hmacgw/backend"
	"hmacgw/forward"
	"hmacgw/handlers"
	"hmacgw/logger"
	"hmacgw/monitoring"
	"hmacgw/replay"
	"hmacgw/routing"
	"hmacgw/secrets"
)

// AppConfig содержит полную конфигурацию приложения
type AppConfig struct {
	// Конфигурация API Gateway
	Server ServerConfig `yaml:"server"`

	// Конфигурация логирования
	Logging logger.Config `yaml:"logging"`

	// Конфигурация протокола аутентификации
	Auth auth.Config `yaml:"auth"`

	// Конфигурация хранилища секретов
	Secrets secrets.Config `yaml:"secrets"`

	// Конфигурация кэша повторов
	Replay replay.Config `yaml:"replay"`

	// Конфигурация маршрутизации и ограничения частоты
	Routing routing.Config `yaml:"routing"`

	// Конфигурация апстримов
	Backend backend.Config `yaml:"backend"`

	// Конфигурация пересылки запросов
	Forward forward.Config `yaml:"forward"`

	// Конфигурация мониторинга
	Monitoring monitoring.Config `yaml:"monitoring"`

	// Конфигурация встроенного эхо-апстрима
	Origin handlers.Config `yaml:"builtin_origin"`
}

// ServerConfig содержит конфигурацию HTTP сервера
type ServerConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	TLSCertFile   string        `yaml:"tls_cert_file"`
	TLSKeyFile    string        `yaml:"tls_key_file"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"`

	// UseBuiltinOrigin поднимает встроенный эхо-апстрим на адресе
	// builtin_origin. Он проходит те же проверки здоровья, что и
	// внешние апстримы, если добавлен в секцию backend.backends
	UseBuiltinOrigin bool `yaml:"use_builtin_origin"`
}

// DefaultAppConfig возвращает конфигурацию по умолчанию
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			ListenAddress: ":8080",
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
			IdleTimeout:   60 * time.Second,
			MaxBodyBytes:  10 << 20, // 10 MiB
		},
		Logging:    logger.DefaultConfig(),
		Auth:       auth.DefaultConfig(),
		Secrets:    secrets.DefaultConfig(),
		Replay:     replay.DefaultConfig(),
		Routing:    *routing.DefaultConfig(),
		Backend:    *backend.DefaultConfig(),
		Forward:    forward.DefaultConfig(),
		Monitoring: *monitoring.DefaultConfig(),
		Origin:     handlers.DefaultConfig(),
	}
}

// LoadConfig загружает конфигурацию из файла
func LoadConfig(filename string) (*AppConfig, error) {
	// Читаем файл
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	// Начинаем с конфигурации по умолчанию
	config := DefaultAppConfig()

	// Парсим YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	// Разрешаем производные значения до валидации
	config.normalize()

	// Валидируем конфигурацию
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// normalize рассчитывает производные значения конфигурации.
// Нулевой TTL кэша повторов выводится из окна аутентификации:
// подпись перестает приниматься по свежести раньше, чем запись о ней
// покинет кэш
func (c *AppConfig) normalize() {
	if c.Replay.TTL == 0 {
		c.Replay.TTL = 2 * c.Auth.Window
	}
}

// Validate проверяет корректность конфигурации
func (c *AppConfig) Validate() error {
	// Валидируем server конфигурацию
	if c.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address cannot be empty")
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}

	// Проверяем TLS конфигурацию
	if (c.Server.TLSCertFile != "" && c.Server.TLSKeyFile == "") ||
		(c.Server.TLSCertFile == "" && c.Server.TLSKeyFile != "") {
		return fmt.Errorf("both tls_cert_file and tls_key_file must be specified for TLS")
	}

	// Валидируем уровень логирования
	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	// Валидируем конфигурации модулей
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Secrets.Validate(); err != nil {
		return fmt.Errorf("secrets config: %w", err)
	}

	if err := c.Replay.Validate(); err != nil {
		return fmt.Errorf("replay config: %w", err)
	}

	if err := c.Routing.Validate(); err != nil {
		return fmt.Errorf("routing config: %w", err)
	}

	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.Forward.Validate(); err != nil {
		return fmt.Errorf("forward config: %w", err)
	}

	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring config: %w", err)
	}

	if c.Server.UseBuiltinOrigin {
		if err := c.Origin.Validate(); err != nil {
			return fmt.Errorf("builtin_origin config: %w", err)
		}
	}

	// Кэш повторов обязан помнить подпись как минимум все время ее жизни.
	// Запись, исчезающая раньше метки, открыла бы окно для повтора
	if c.Replay.TTL < c.Auth.Window {
		return fmt.Errorf("replay.ttl (%s) must not be less than auth.validity_window (%s)",
			c.Replay.TTL, c.Auth.Window)
	}

	return nil
}

// ToAPIGatewayConfig преобразует в конфигурацию API Gateway
func (c *AppConfig) ToAPIGatewayConfig() apigw.Config {
	return apigw.Config{
		ListenAddress: c.Server.ListenAddress,
		TLSCertFile:   c.Server.TLSCertFile,
		TLSKeyFile:    c.Server.TLSKeyFile,
		ReadTimeout:   c.Server.ReadTimeout,
		WriteTimeout:  c.Server.WriteTimeout,
		IdleTimeout:   c.Server.IdleTimeout,
		MaxBodyBytes:  c.Server.MaxBodyBytes,
	}
}

// isValidLogLevel проверяет корректность уровня логирования
func isValidLogLevel(level string) bool {
	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	for _, valid := range validLevels {
		if strings.EqualFold(level, valid) {
			return true
		}
	}
	return false
}

// SaveConfig сохраняет конфигурацию в файл (для генерации примера)
func (c *AppConfig) SaveConfig(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}

	return nil
}
