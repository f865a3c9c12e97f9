package auth

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Window != 5*time.Minute {
		t.Errorf("Expected default window of 5m, got %v", config.Window)
	}

	if config.Scheme != "ApiAuth" {
		t.Errorf("Expected scheme 'ApiAuth', got '%s'", config.Scheme)
	}

	if config.UsernameHeader != "X-ApiAuth-Username" {
		t.Errorf("Expected username header 'X-ApiAuth-Username', got '%s'", config.UsernameHeader)
	}

	if len(config.AllowedMediaTypes) == 0 {
		t.Error("Expected default allowed media types, got empty list")
	}

	if !config.mediaTypeAllowed("application/json") {
		t.Error("Expected application/json to be allowed by default")
	}

	if config.UnauthorizedMessage == "" {
		t.Error("Expected default unauthorized message, got empty string")
	}

	if config.DebugDiagnostics {
		t.Error("Debug diagnostics must be off by default")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Default config must validate, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ZeroWindow", func(c *Config) { c.Window = 0 }},
		{"NegativeWindow", func(c *Config) { c.Window = -time.Minute }},
		{"EmptyScheme", func(c *Config) { c.Scheme = "" }},
		{"SchemeWithWhitespace", func(c *Config) { c.Scheme = "Api Auth" }},
		{"EmptyUsernameHeader", func(c *Config) { c.UsernameHeader = "" }},
		{"NoMediaTypes", func(c *Config) { c.AllowedMediaTypes = nil }},
		{"EmptyMediaTypeEntry", func(c *Config) { c.AllowedMediaTypes = []string{"application/json", ""} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			config.AllowedMediaTypes = append([]string(nil), valid.AllowedMediaTypes...)
			tt.mutate(&config)

			if err := config.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestMediaTypeAllowed(t *testing.T) {
	config := DefaultConfig()

	if !config.mediaTypeAllowed("application/json") {
		t.Error("Expected application/json to be allowed")
	}

	// Сравнение без учета регистра
	if !config.mediaTypeAllowed("Application/JSON") {
		t.Error("Expected media type comparison to ignore case")
	}

	if config.mediaTypeAllowed("application/xml") {
		t.Error("Expected application/xml to be rejected")
	}

	if config.mediaTypeAllowed("") {
		t.Error("Expected empty media type to be rejected")
	}
}
