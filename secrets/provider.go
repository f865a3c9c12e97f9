package secrets

import "context"

// Provider - это интерфейс внешнего хранилища секретов.
// Ядро аутентификации потребляет его как чистую зависимость:
// lookupSecret(username) -> секрет либо "не найден".
type Provider interface {
	// Lookup возвращает секрет пользователя.
	// found=false означает, что пользователь не зарегистрирован, -
	// это штатный результат, а не ошибка. Ошибка возвращается только
	// при сбое самого хранилища (недоступность, таймаут).
	Lookup(ctx context.Context, username string) (secret string, found bool, err error)
}
