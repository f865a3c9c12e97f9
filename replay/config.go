package replay

import (
	"fmt"
	"time"
)

// Поддерживаемые бэкенды кэша повторов.
const (
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
)

// DefaultCapacity - предел записей в памяти по умолчанию.
const DefaultCapacity = 262144

// Config содержит конфигурацию кэша повторов.
type Config struct {
	// Backend - тип хранилища: "memory" или "leveldb".
	Backend string `yaml:"backend"`

	// TTL - время жизни записи. Ноль означает "вывести из окна
	// аутентификации" (удвоенное окно); значение меньше окна недопустимо,
	// иначе запись исчезнет раньше, чем истечет подпись.
	TTL time.Duration `yaml:"ttl"`

	// Capacity - максимум записей для memory-бэкенда.
	Capacity int `yaml:"capacity"`

	// SweepInterval - период фоновой уборки устаревших записей.
	// Ноль отключает фоновую уборку, остается ленивое вытеснение.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// Path - каталог базы для leveldb-бэкенда.
	Path string `yaml:"path"`
}

// DefaultConfig возвращает конфигурацию кэша повторов по умолчанию.
func DefaultConfig() Config {
	return Config{
		Backend:       BackendMemory,
		TTL:           0, // выводится из окна аутентификации
		Capacity:      DefaultCapacity,
		SweepInterval: time.Minute,
	}
}

// Validate проверяет корректность конфигурации кэша.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendLevelDB:
		if c.Path == "" {
			return fmt.Errorf("path is required for leveldb backend")
		}
	default:
		return fmt.Errorf("unknown replay backend: %s", c.Backend)
	}

	if c.TTL < 0 {
		return fmt.Errorf("ttl cannot be negative")
	}

	if c.Capacity < 0 {
		return fmt.Errorf("capacity cannot be negative")
	}

	if c.SweepInterval < 0 {
		return fmt.Errorf("sweep_interval cannot be negative")
	}

	return nil
}

// NewStoreFromConfig создает кэш повторов по конфигурации.
// TTL к этому моменту должен быть уже разрешен (ненулевой).
func NewStoreFromConfig(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(cfg.TTL, cfg.Capacity, cfg.SweepInterval)
	case BackendLevelDB:
		return NewLevelDBStore(cfg.Path, cfg.TTL, cfg.SweepInterval)
	default:
		return nil, fmt.Errorf("unknown replay backend: %s", cfg.Backend)
	}
}
