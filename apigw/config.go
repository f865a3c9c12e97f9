package apigw

import "time"

// Config содержит конфигурацию для API Gateway.
type Config struct {
	// ListenAddress - адрес и порт для прослушивания (например, ":8080")
	ListenAddress string

	// TLSCertFile - путь к файлу SSL-сертификата (опционально, для включения HTTPS)
	TLSCertFile string

	// TLSKeyFile - путь к файлу приватного ключа SSL (опционально)
	TLSKeyFile string

	// ReadTimeout - таймаут на чтение всего запроса, включая тело
	ReadTimeout time.Duration

	// WriteTimeout - таймаут на запись всего ответа
	WriteTimeout time.Duration

	// IdleTimeout - таймаут простоя keep-alive соединения
	IdleTimeout time.Duration

	// MaxBodyBytes - предел размера тела запроса. Тело буферизуется
	// целиком ради проверки целостности, поэтому предел обязателен.
	MaxBodyBytes int64
}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() Config {
	return Config{
		ListenAddress: ":8080",
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		IdleTimeout:   60 * time.Second,
		MaxBodyBytes:  10 << 20, // 10 MiB
	}
}
