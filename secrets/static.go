package secrets

import (
	"context"
	"fmt"
)

// StaticProvider хранит секреты в памяти процесса. Источник - секция
// users конфигурации. Карта после создания не изменяется, поэтому
// конкурентные Lookup безопасны без блокировок.
type StaticProvider struct {
	users map[string]string
}

// NewStaticProvider создает провайдер из карты пользователь -> секрет.
func NewStaticProvider(users map[string]string) (*StaticProvider, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("users map cannot be nil or empty")
	}

	cloned := make(map[string]string, len(users))
	for username, secret := range users {
		if username == "" {
			return nil, fmt.Errorf("username cannot be empty")
		}
		if secret == "" {
			return nil, fmt.Errorf("secret for user '%s' cannot be empty", username)
		}
		cloned[username] = secret
	}

	return &StaticProvider{users: cloned}, nil
}

// Lookup реализует интерфейс Provider. Никогда не возвращает ошибку:
// хранилище локальное и всегда доступно.
func (p *StaticProvider) Lookup(ctx context.Context, username string) (string, bool, error) {
	secret, found := p.users[username]
	return secret, found, nil
}
