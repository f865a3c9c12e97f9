package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

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

// Версия прошивается при сборке: go build -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Парсим аргументы командной строки
	var (
		configFile     = flag.String("config", "", "Configuration file path (YAML)")
		listenAddr     = flag.String("listen", "", "Listen address (overrides config)")
		tlsCert        = flag.String("tls-cert", "", "TLS certificate file (overrides config)")
		tlsKey         = flag.String("tls-key", "", "TLS key file (overrides config)")
		readTimeout    = flag.Duration("read-timeout", 0, "Read timeout (overrides config)")
		writeTimeout   = flag.Duration("write-timeout", 0, "Write timeout (overrides config)")
		builtinOrigin  = flag.Bool("builtin-origin", false, "Start the builtin echo origin (overrides config)")
		logLevel       = flag.String("log-level", "", "Log level (debug, info, warn, error) (overrides config)")
		metricsAddr    = flag.String("metrics-listen", "", "Metrics server listen address (overrides config)")
		disableMetrics = flag.Bool("disable-metrics", false, "Disable metrics collection (overrides config)")
	)
	flag.Parse()

	// Загружаем конфигурацию
	var config *AppConfig
	var err error

	if *configFile != "" {
		logger.Info("Loading configuration from file: %s", *configFile)
		config, err = LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		logger.Info("Configuration loaded successfully")
	} else {
		logger.Error("Config file not provided or incorrect. Exiting.")
		os.Exit(1)
	}

	// Применяем переопределения из командной строки
	applyCommandLineOverrides(config,
		*listenAddr, *tlsCert, *tlsKey, *readTimeout, *writeTimeout,
		*builtinOrigin, *logLevel, *metricsAddr, *disableMetrics)

	// Настраиваем логирование
	if err := logger.Configure(config.Logging); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}

	logger.Info("HMAC API Gateway %s starting...", version)
	logger.Info("Log level: %s", logger.GetGlobalLevel().String())

	// Создаем хранилище секретов
	secretProvider, err := secrets.NewProviderFromConfig(&config.Secrets)
	if err != nil {
		log.Fatalf("Failed to create secret provider: %v", err)
	}

	if config.Secrets.Static != nil {
		logger.Info("Authentication configured with %d users:", len(config.Secrets.Static.Users))
		for _, user := range config.Secrets.Static.Users {
			logger.Info("  - %s", user.Username)
		}
	}

	// Создаем кэш повторов
	replayStore, err := replay.NewStoreFromConfig(config.Replay)
	if err != nil {
		log.Fatalf("Failed to create replay store: %v", err)
	}
	logger.Info("Replay cache: backend=%s, ttl=%v", config.Replay.Backend, config.Replay.TTL)

	// Создаем валидатор запросов
	validator, err := auth.NewValidator(config.Auth, secretProvider, replayStore)
	if err != nil {
		log.Fatalf("Failed to create request validator: %v", err)
	}
	logger.Info("Validator: scheme=%s, window=%v", config.Auth.Scheme, config.Auth.Window)

	// Запускаем встроенный эхо-апстрим до менеджера апстримов,
	// чтобы первая проверка здоровья уже видела живой порт
	var origin *handlers.Origin
	if config.Server.UseBuiltinOrigin {
		origin = handlers.NewOrigin(config.Origin)
		if err := origin.Start(); err != nil {
			log.Fatalf("Failed to start builtin origin: %v", err)
		}
		logger.Info("Builtin origin listening on %s", config.Origin.ListenAddress)
	}

	// Создаем и запускаем backend manager
	backendManager, err := backend.NewManager(&config.Backend)
	if err != nil {
		log.Fatalf("Failed to create backend manager: %v", err)
	}

	if err := backendManager.Start(); err != nil {
		log.Fatalf("Failed to start backend manager: %v", err)
	}

	logger.Info("Backend manager enabled with %d backends", len(backendManager.GetAllBackends()))
	for _, b := range backendManager.GetAllBackends() {
		logger.Info("  - %s: %s", b.ID, b.Config.URL)
	}

	// Создаем модуль пересылки
	forwarder, err := forward.NewForwarder(backendManager, config.Forward)
	if err != nil {
		log.Fatalf("Failed to create forwarder: %v", err)
	}

	// Логируем маршруты
	logger.Info("Routing policies configured:")
	for _, route := range config.Routing.Routes {
		logger.Info("  - %s: prefix=%s public=%v backends=%v",
			route.Name, route.PathPrefix, route.Public, route.Backends)
	}
	if config.Routing.RateLimit.Enabled {
		logger.Info("Rate limiting: %.1f req/s, burst %d",
			config.Routing.RateLimit.RequestsPerSecond, config.Routing.RateLimit.Burst)
	}

	// Создаем Policy & Routing Engine
	engine := routing.NewEngine(validator, forwarder, config.Auth, &config.Routing)

	// Создаем API Gateway
	gatewayConfig := config.ToAPIGatewayConfig()
	gateway := apigw.New(gatewayConfig, engine)

	// Создаем и запускаем модуль мониторинга
	var monitor *monitoring.Monitor
	if !*disableMetrics && config.Monitoring.Enabled {
		monitor, err = monitoring.New(&config.Monitoring, backendManager)
		if err != nil {
			log.Fatalf("Failed to create monitoring module: %v", err)
		}

		if err := monitor.Start(); err != nil {
			log.Fatalf("Failed to start monitoring module: %v", err)
		}

		monitoring.NewMetrics().SetBuildInfo(version)
		logger.Info("Monitoring enabled on %s", config.Monitoring.ListenAddress)
	} else {
		logger.Info("Monitoring disabled")
	}

	logger.Info("Configuration:")
	logger.Info("  Listen Address: %s", gatewayConfig.ListenAddress)
	logger.Info("  Read Timeout: %v", gatewayConfig.ReadTimeout)
	logger.Info("  Write Timeout: %v", gatewayConfig.WriteTimeout)
	if gatewayConfig.TLSCertFile != "" {
		logger.Info("  TLS Enabled: Yes")
		logger.Info("  TLS Cert: %s", gatewayConfig.TLSCertFile)
		logger.Info("  TLS Key: %s", gatewayConfig.TLSKeyFile)
	} else {
		logger.Info("  TLS Enabled: No")
	}

	// Настраиваем graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем API Gateway в отдельной горутине
	go func() {
		if err := gateway.Start(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	logger.Info("HMAC API Gateway started successfully")
	if monitor != nil && monitor.IsEnabled() {
		logger.Info("Metrics available at: %s", config.Monitoring.ListenAddress)
	}

	// Ждем сигнал для остановки
	sig := <-sigChan
	logger.Info("Received signal %v, shutting down...", sig)

	// Переводим readiness в 503, чтобы балансировщик перестал слать трафик
	if monitor != nil {
		monitor.SetShuttingDown()
	}

	// Создаем контекст с таймаутом для graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Останавливаем API Gateway
	if err := gateway.Stop(ctx); err != nil {
		logger.Error("Error stopping API Gateway: %v", err)
	}

	// Останавливаем встроенный апстрим
	if origin != nil {
		if err := origin.Stop(ctx); err != nil {
			logger.Error("Error stopping builtin origin: %v", err)
		}
	}

	// Останавливаем backend manager
	if err := backendManager.Stop(); err != nil {
		logger.Error("Error stopping backend manager: %v", err)
	}

	// Закрываем кэш повторов
	if err := replayStore.Close(); err != nil {
		logger.Error("Error closing replay store: %v", err)
	}

	// Останавливаем мониторинг
	if monitor != nil {
		if err := monitor.Stop(ctx); err != nil {
			logger.Error("Error stopping monitoring: %v", err)
		}
	}

	logger.Info("HMAC API Gateway stopped")
}

// applyCommandLineOverrides применяет переопределения из командной строки
func applyCommandLineOverrides(config *AppConfig,
	listenAddr, tlsCert, tlsKey string,
	readTimeout, writeTimeout time.Duration,
	builtinOrigin bool, logLevel, metricsAddr string, disableMetrics bool) {

	// Переопределения сервера
	if listenAddr != "" {
		config.Server.ListenAddress = listenAddr
		logger.Debug("Override: server.listen_address = %s", listenAddr)
	}

	if tlsCert != "" {
		config.Server.TLSCertFile = tlsCert
		logger.Debug("Override: server.tls_cert_file = %s", tlsCert)
	}

	if tlsKey != "" {
		config.Server.TLSKeyFile = tlsKey
		logger.Debug("Override: server.tls_key_file = %s", tlsKey)
	}

	if readTimeout > 0 {
		config.Server.ReadTimeout = readTimeout
		logger.Debug("Override: server.read_timeout = %v", readTimeout)
	}

	if writeTimeout > 0 {
		config.Server.WriteTimeout = writeTimeout
		logger.Debug("Override: server.write_timeout = %v", writeTimeout)
	}

	if builtinOrigin {
		config.Server.UseBuiltinOrigin = true
		logger.Debug("Override: server.use_builtin_origin = true")
	}

	// Переопределения логирования
	if logLevel != "" {
		config.Logging.Level = logLevel
		logger.Debug("Override: logging.level = %s", logLevel)
	}

	// Переопределения мониторинга
	if metricsAddr != "" {
		config.Monitoring.ListenAddress = metricsAddr
		logger.Debug("Override: monitoring.listen_address = %s", metricsAddr)
	}

	if disableMetrics {
		config.Monitoring.Enabled = false
		logger.Debug("Override: monitoring.enabled = false")
	}
}
