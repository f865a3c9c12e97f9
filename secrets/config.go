package secrets

import "fmt"

// Config содержит конфигурацию хранилища секретов.
type Config struct {
	// Provider определяет тип провайдера ("static"; внешние хранилища
	// подключаются реализацией интерфейса Provider).
	Provider string `yaml:"provider" json:"provider"`

	// Static содержит конфигурацию статического провайдера.
	Static *StaticConfig `yaml:"static,omitempty" json:"static,omitempty"`
}

// StaticConfig содержит пользователей статического провайдера.
type StaticConfig struct {
	// Users - список пользователей и их секретов.
	Users []UserConfig `yaml:"users" json:"users"`
}

// UserConfig описывает одного пользователя.
type UserConfig struct {
	// Username - имя пользователя, предъявляемое в запросе.
	Username string `yaml:"username" json:"username"`

	// Secret - разделяемый секрет. Никогда не передается по сети
	// и не попадает в логи.
	Secret string `yaml:"secret" json:"secret"`
}

// DefaultConfig возвращает конфигурацию хранилища по умолчанию.
// Пользователей в ней нет: секреты задает оператор.
func DefaultConfig() Config {
	return Config{
		Provider: "static",
		Static:   &StaticConfig{},
	}
}

// NewProviderFromConfig создает провайдер секретов по конфигурации.
func NewProviderFromConfig(config *Config) (Provider, error) {
	switch config.Provider {
	case "static":
		if config.Static == nil {
			return nil, fmt.Errorf("static provider requires a static section")
		}

		users := make(map[string]string, len(config.Static.Users))
		for _, user := range config.Static.Users {
			users[user.Username] = user.Secret
		}

		return NewStaticProvider(users)
	default:
		return nil, fmt.Errorf("unknown secrets provider: %s", config.Provider)
	}
}

// Validate проверяет корректность конфигурации хранилища секретов.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider cannot be empty")
	}

	switch c.Provider {
	case "static":
		if c.Static == nil {
			return fmt.Errorf("static provider requires a static section")
		}

		if len(c.Static.Users) == 0 {
			return fmt.Errorf("static provider requires at least one user")
		}

		seen := make(map[string]bool)
		for _, user := range c.Static.Users {
			if user.Username == "" {
				return fmt.Errorf("username cannot be empty")
			}
			if user.Secret == "" {
				return fmt.Errorf("secret for user '%s' cannot be empty", user.Username)
			}
			if seen[user.Username] {
				return fmt.Errorf("duplicate username: %s", user.Username)
			}
			seen[user.Username] = true
		}
	default:
		return fmt.Errorf("unknown secrets provider: %s", c.Provider)
	}

	return nil
}
