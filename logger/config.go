package logger

import (
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config содержит конфигурацию логирования
type Config struct {
	// Level - минимальный уровень сообщений (DEBUG, INFO, WARN, ERROR)
	Level string `yaml:"level"`

	// File - путь к файлу логов. Пустая строка означает вывод в stdout
	File string `yaml:"file"`

	// MaxSizeMB - максимальный размер файла логов до ротации
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups - сколько ротированных файлов хранить
	MaxBackups int `yaml:"max_backups"`

	// MaxAgeDays - сколько дней хранить ротированные файлы
	MaxAgeDays int `yaml:"max_age_days"`

	// Compress - сжимать ли ротированные файлы
	Compress bool `yaml:"compress"`
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Level:      "INFO",
		File:       "",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 28,
		Compress:   false,
	}
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.MaxSizeMB < 0 {
		return fmt.Errorf("max_size_mb cannot be negative")
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("max_backups cannot be negative")
	}
	if c.MaxAgeDays < 0 {
		return fmt.Errorf("max_age_days cannot be negative")
	}
	return nil
}

// Configure настраивает глобальный логгер по конфигурации:
// устанавливает уровень и, если задан файл, включает ротацию
func Configure(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	SetGlobalLevel(ParseLogLevel(cfg.Level))

	if cfg.File != "" {
		globalLogger.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}

	return nil
}
