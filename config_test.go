package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig кладет YAML во временный файл и возвращает его путь
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
secrets:
  provider: static
  static:
    users:
      - username: dvader
        secret: secret123
`

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Незаполненные секции получают значения по умолчанию
	if config.Server.ListenAddress != ":8080" {
		t.Errorf("Expected default listen address ':8080', got '%s'", config.Server.ListenAddress)
	}

	if config.Auth.Window != 5*time.Minute {
		t.Errorf("Expected default validity window of 5m, got %v", config.Auth.Window)
	}

	if len(config.Secrets.Static.Users) != 1 || config.Secrets.Static.Users[0].Username != "dvader" {
		t.Errorf("Expected one configured user 'dvader', got %+v", config.Secrets.Static.Users)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
server:
  listen_address: ":9443"
  max_body_bytes: 1048576
auth:
  validity_window: 2m
  debug_diagnostics: true
logging:
  level: debug
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.Server.ListenAddress != ":9443" {
		t.Errorf("Expected listen address ':9443', got '%s'", config.Server.ListenAddress)
	}

	if config.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("Expected max body bytes %d, got %d", 1<<20, config.Server.MaxBodyBytes)
	}

	if config.Auth.Window != 2*time.Minute {
		t.Errorf("Expected validity window of 2m, got %v", config.Auth.Window)
	}

	if !config.Auth.DebugDiagnostics {
		t.Error("Expected debug diagnostics to be enabled")
	}

	// Переопределение одного поля не затирает значения по умолчанию рядом
	if config.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Expected default read timeout of 30s, got %v", config.Server.ReadTimeout)
	}
}

func TestLoadConfig_DerivesReplayTTL(t *testing.T) {
	t.Run("DefaultIsTwiceTheWindow", func(t *testing.T) {
		path := writeConfig(t, minimalConfig+`
auth:
  validity_window: 3m
`)

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if config.Replay.TTL != 6*time.Minute {
			t.Errorf("Expected replay TTL of 6m (twice the window), got %v", config.Replay.TTL)
		}
	})

	t.Run("ExplicitTTLWins", func(t *testing.T) {
		path := writeConfig(t, minimalConfig+`
replay:
  ttl: 30m
`)

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}

		if config.Replay.TTL != 30*time.Minute {
			t.Errorf("Expected replay TTL of 30m, got %v", config.Replay.TTL)
		}
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "TTLShorterThanWindow",
			content: minimalConfig + `
replay:
  ttl: 1m
`,
			wantErr: "replay.ttl",
		},
		{
			name: "TLSCertWithoutKey",
			content: minimalConfig + `
server:
  tls_cert_file: /etc/hmacgw/cert.pem
`,
			wantErr: "tls_cert_file and tls_key_file",
		},
		{
			name: "NoUsers",
			content: `
secrets:
  provider: static
  static:
    users: []
`,
			wantErr: "at least one user",
		},
		{
			name: "BadLogLevel",
			content: minimalConfig + `
logging:
  level: loud
`,
			wantErr: "logging level",
		},
		{
			name: "ZeroWindow",
			content: minimalConfig + `
auth:
  validity_window: 0s
`,
			wantErr: "validity_window",
		},
		{
			name: "LevelDBWithoutPath",
			content: minimalConfig + `
replay:
  backend: leveldb
`,
			wantErr: "path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)

			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("Expected configuration error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error to mention %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file, got nil")
	}
}

func TestDefaultAppConfig(t *testing.T) {
	config := DefaultAppConfig()

	// Сама по себе конфигурация по умолчанию не валидна: в ней нет
	// пользователей, секреты задает оператор
	if err := config.Validate(); err == nil {
		t.Error("Expected default config to fail validation without users")
	}

	gwConfig := config.ToAPIGatewayConfig()
	if gwConfig.ListenAddress != config.Server.ListenAddress {
		t.Errorf("Expected gateway listen address '%s', got '%s'",
			config.Server.ListenAddress, gwConfig.ListenAddress)
	}
	if gwConfig.MaxBodyBytes != config.Server.MaxBodyBytes {
		t.Errorf("Expected gateway max body bytes %d, got %d",
			config.Server.MaxBodyBytes, gwConfig.MaxBodyBytes)
	}
}
