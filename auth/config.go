package auth

import (
	"fmt"
	"strings"
	"time"
)

// Config содержит конфигурацию протокола аутентификации.
type Config struct {
	// Window - допустимое расхождение метки запроса с часами сервера.
	// Запрос с меткой за пределами [now-Window, now+Window] отклоняется.
	Window time.Duration `yaml:"validity_window" json:"validity_window"`

	// AllowedMediaTypes - допустимые media-типы для запросов с непустым телом.
	AllowedMediaTypes []string `yaml:"allowed_media_types" json:"allowed_media_types"`

	// Scheme - токен схемы в заголовке Authorization.
	Scheme string `yaml:"scheme" json:"scheme"`

	// UsernameHeader - имя заголовка, несущего имя пользователя.
	UsernameHeader string `yaml:"username_header" json:"username_header"`

	// UnauthorizedMessage - текст, возвращаемый клиенту при отказе.
	UnauthorizedMessage string `yaml:"unauthorized_message" json:"unauthorized_message"`

	// DebugDiagnostics добавляет причину отказа в тело ответа 401.
	// Только для операторской отладки, в боевой конфигурации держать
	// выключенным: диагностика раскрывает детали проверки.
	DebugDiagnostics bool `yaml:"debug_diagnostics" json:"debug_diagnostics"`
}

// DefaultConfig возвращает конфигурацию протокола по умолчанию.
func DefaultConfig() Config {
	return Config{
		Window: 5 * time.Minute,
		AllowedMediaTypes: []string{
			"application/json",
			"application/x-www-form-urlencoded",
			"text/plain",
		},
		Scheme:              DefaultScheme,
		UsernameHeader:      HeaderUsername,
		UnauthorizedMessage: "Authentication required.",
		DebugDiagnostics:    false,
	}
}

// Validate проверяет корректность конфигурации протокола.
func (c *Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("validity_window must be positive")
	}

	if c.Scheme == "" {
		return fmt.Errorf("scheme cannot be empty")
	}

	if strings.ContainsAny(c.Scheme, " \t") {
		return fmt.Errorf("scheme must be a single token without whitespace")
	}

	if c.UsernameHeader == "" {
		return fmt.Errorf("username_header cannot be empty")
	}

	if len(c.AllowedMediaTypes) == 0 {
		return fmt.Errorf("allowed_media_types cannot be empty")
	}

	for _, mt := range c.AllowedMediaTypes {
		if mt == "" {
			return fmt.Errorf("allowed_media_types cannot contain empty entries")
		}
	}

	return nil
}

// mediaTypeAllowed проверяет вхождение media-типа в список допустимых.
// Сравнение без учета регистра: тип уже нормализован mime-парсером.
func (c *Config) mediaTypeAllowed(mediaType string) bool {
	for _, allowed := range c.AllowedMediaTypes {
		if strings.EqualFold(mediaType, allowed) {
			return true
		}
	}
	return false
}
