package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hmacgw/backend"
)

// fakeProvider - минимальная реализация backend.Provider для тестов readiness
type fakeProvider struct {
	live []*backend.Backend
}

func (p *fakeProvider) GetLiveBackends() []*backend.Backend        { return p.live }
func (p *fakeProvider) GetAllBackends() []*backend.Backend         { return p.live }
func (p *fakeProvider) GetBackend(id string) (*backend.Backend, bool) { return nil, false }
func (p *fakeProvider) ReportSuccess(result *backend.BackendResult)   {}
func (p *fakeProvider) ReportFailure(result *backend.BackendResult)   {}
func (p *fakeProvider) Start() error                               { return nil }
func (p *fakeProvider) Stop() error                                { return nil }
func (p *fakeProvider) IsRunning() bool                            { return true }

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if !config.Enabled {
		t.Error("Expected monitoring to be enabled by default")
	}

	if config.ListenAddress != ":9091" {
		t.Errorf("Expected default listen address ':9091', got '%s'", config.ListenAddress)
	}

	if config.MetricsPath != "/metrics" {
		t.Errorf("Expected default metrics path '/metrics', got '%s'", config.MetricsPath)
	}

	if config.ReadTimeout != 30*time.Second {
		t.Errorf("Expected default read timeout 30s, got %v", config.ReadTimeout)
	}
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name        string
		config      *Config
		expectError bool
	}{
		{
			name:        "Valid config",
			config:      DefaultConfig(),
			expectError: false,
		},
		{
			name: "Disabled monitoring",
			config: &Config{
				Enabled: false,
			},
			expectError: false,
		},
		{
			name: "Empty listen address",
			config: &Config{
				Enabled:       true,
				ListenAddress: "",
				MetricsPath:   "/metrics",
				ReadTimeout:   30 * time.Second,
				WriteTimeout:  30 * time.Second,
			},
			expectError: true,
		},
		{
			name: "Empty metrics path",
			config: &Config{
				Enabled:       true,
				ListenAddress: ":9091",
				MetricsPath:   "",
				ReadTimeout:   30 * time.Second,
				WriteTimeout:  30 * time.Second,
			},
			expectError: true,
		},
		{
			name: "Invalid read timeout",
			config: &Config{
				Enabled:       true,
				ListenAddress: ":9091",
				MetricsPath:   "/metrics",
				ReadTimeout:   0,
				WriteTimeout:  30 * time.Second,
			},
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.Validate()
			if tc.expectError && err == nil {
				t.Error("Expected validation error, but got none")
			}
			if !tc.expectError && err != nil {
				t.Errorf("Expected no validation error, but got: %v", err)
			}
		})
	}
}

func TestNewMonitor(t *testing.T) {
	monitor, err := New(nil, nil)
	if err != nil {
		t.Fatalf("Expected no error creating monitor, got: %v", err)
	}

	if monitor == nil {
		t.Fatal("Expected monitor to be created")
	}

	if !monitor.IsEnabled() {
		t.Error("Expected monitor to be enabled by default")
	}
}

func TestNewMonitorWithInvalidConfig(t *testing.T) {
	invalidConfig := &Config{
		Enabled:       true,
		ListenAddress: "", // Invalid
		MetricsPath:   "/metrics",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
	}

	_, err := New(invalidConfig, nil)
	if err == nil {
		t.Error("Expected error creating monitor with invalid config")
	}
}

func TestMonitorDisabled(t *testing.T) {
	config := &Config{
		Enabled: false,
	}

	monitor, err := New(config, nil)
	if err != nil {
		t.Fatalf("Expected no error creating disabled monitor, got: %v", err)
	}

	if monitor.IsEnabled() {
		t.Error("Expected monitor to be disabled")
	}

	// Запуск и остановка отключенного монитора не должны вызывать ошибок
	err = monitor.Start()
	if err != nil {
		t.Errorf("Expected no error starting disabled monitor, got: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = monitor.Stop(ctx)
	if err != nil {
		t.Errorf("Expected no error stopping disabled monitor, got: %v", err)
	}
}

func TestMonitorStartStop(t *testing.T) {
	// Используем случайный свободный порт, чтобы избежать конфликтов
	config := &Config{
		Enabled:       true,
		ListenAddress: ":0",
		MetricsPath:   "/metrics",
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
	}

	monitor, err := New(config, nil)
	if err != nil {
		t.Fatalf("Expected no error creating monitor, got: %v", err)
	}

	err = monitor.Start()
	if err != nil {
		t.Fatalf("Expected no error starting monitor, got: %v", err)
	}

	// Даем время серверу запуститься
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = monitor.Stop(ctx)
	if err != nil {
		t.Errorf("Expected no error stopping monitor, got: %v", err)
	}
}

func TestLiveHealthEndpoint(t *testing.T) {
	server := NewServer(DefaultConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	server.liveHealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rec.Code)
	}

	expectedContentType := "application/json"
	if contentType := rec.Header().Get("Content-Type"); contentType != expectedContentType {
		t.Errorf("Expected Content-Type %s, got %s", expectedContentType, contentType)
	}
}

func TestReadyHealthEndpoint(t *testing.T) {
	t.Run("NoProvider", func(t *testing.T) {
		server := NewServer(DefaultConfig(), nil)

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		server.readyHealthHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status code %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("WithLiveBackends", func(t *testing.T) {
		provider := &fakeProvider{live: []*backend.Backend{{ID: "origin-1"}}}
		server := NewServer(DefaultConfig(), provider)

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		server.readyHealthHandler(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status code %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("NoLiveBackends", func(t *testing.T) {
		provider := &fakeProvider{live: nil}
		server := NewServer(DefaultConfig(), provider)

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		server.readyHealthHandler(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status code %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})

	t.Run("ShuttingDown", func(t *testing.T) {
		provider := &fakeProvider{live: []*backend.Backend{{ID: "origin-1"}}}
		server := NewServer(DefaultConfig(), provider)
		server.SetShuttingDown()

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		rec := httptest.NewRecorder()
		server.readyHealthHandler(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status code %d, got %d", http.StatusServiceUnavailable, rec.Code)
		}
	})
}
