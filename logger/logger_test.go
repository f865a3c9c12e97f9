package logger

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevels(t *testing.T) {
	// Создаем буфер для захвата вывода
	var buf bytes.Buffer
	
	// Создаем логгер с уровнем DEBUG и нашим буфером
	logger := &Logger{
		level:  DEBUG,
		logger: log.New(&buf, "", log.LstdFlags),
	}

	// Тестируем все уровни
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()

	// Проверяем, что все сообщения присутствуют
	if !strings.Contains(output, "[DEBUG] debug message") {
		t.Error("DEBUG message not found")
	}
	if !strings.Contains(output, "[INFO] info message") {
		t.Error("INFO message not found")
	}
	if !strings.Contains(output, "[WARN] warn message") {
		t.Error("WARN message not found")
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Error("ERROR message not found")
	}
}

func TestLogLevelFiltering(t *testing.T) {
	// Создаем буфер для захвата вывода
	var buf bytes.Buffer
	
	// Создаем логгер с уровнем ERROR и нашим буфером
	logger := &Logger{
		level:  ERROR,
		logger: log.New(&buf, "", log.LstdFlags),
	}

	// Тестируем все уровни
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()

	// Проверяем, что только ERROR сообщения присутствуют
	if strings.Contains(output, "[DEBUG]") {
		t.Error("DEBUG message should be filtered out")
	}
	if strings.Contains(output, "[INFO]") {
		t.Error("INFO message should be filtered out")
	}
	if strings.Contains(output, "[WARN]") {
		t.Error("WARN message should be filtered out")
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Error("ERROR message not found")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", DEBUG},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"INFO", INFO},
		{"warn", WARN},
		{"WARN", WARN},
		{"warning", WARN},
		{"WARNING", WARN},
		{"error", ERROR},
		{"ERROR", ERROR},
		{"invalid", INFO}, // по умолчанию INFO
		{"", INFO},        // по умолчанию INFO
	}

	for _, test := range tests {
		result := ParseLogLevel(test.input)
		if result != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, expected %v", test.input, result, test.expected)
		}
	}
}

func TestGlobalLogger(t *testing.T) {
	// Сохраняем оригинальный уровень и логгер
	originalLevel := GetGlobalLevel()
	originalLogger := globalLogger
	defer func() {
		SetGlobalLevel(originalLevel)
		globalLogger = originalLogger
	}()

	// Создаем буфер для захвата вывода
	var buf bytes.Buffer
	
	// Заменяем глобальный логгер на наш тестовый
	globalLogger = &Logger{
		level:  WARN,
		logger: log.New(&buf, "", log.LstdFlags),
	}

	// Тестируем глобальные функции
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")

	output := buf.String()

	// Проверяем фильтрацию
	if strings.Contains(output, "[DEBUG]") {
		t.Error("DEBUG message should be filtered out")
	}
	if strings.Contains(output, "[INFO]") {
		t.Error("INFO message should be filtered out")
	}
	if !strings.Contains(output, "[WARN] warn message") {
		t.Error("WARN message not found")
	}
	if !strings.Contains(output, "[ERROR] error message") {
		t.Error("ERROR message not found")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must be valid: %v", err)
	}

	cfg.MaxSizeMB = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for negative max_size_mb")
	}
}

func TestConfigureWithFile(t *testing.T) {
	// Сохраняем состояние глобального логгера
	originalLevel := GetGlobalLevel()
	defer func() {
		SetGlobalLevel(originalLevel)
		globalLogger.SetOutput(os.Stdout)
	}()

	logFile := filepath.Join(t.TempDir(), "gateway.log")

	cfg := DefaultConfig()
	cfg.Level = "DEBUG"
	cfg.File = logFile

	if err := Configure(cfg); err != nil {
		t.Fatalf("Configure failed: %v", err)
	}

	if GetGlobalLevel() != DEBUG {
		t.Errorf("Expected global level DEBUG, got %v", GetGlobalLevel())
	}

	Info("rotation target check")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "[INFO] rotation target check") {
		t.Errorf("Log file does not contain expected message: %s", data)
	}
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DEBUG, "DEBUG"},
		{INFO, "INFO"},
		{WARN, "WARN"},
		{ERROR, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %q, expected %q", test.level, result, test.expected)
		}
	}
}
