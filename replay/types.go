package replay

import (
	"errors"
	"time"
)

// Store - кэш принятых подписей. Обеспечивает прием каждой подписи
// не более одного раза в течение окна действия.
//
// Register - единственная операция, которой пользуется валидатор:
// проверка и запись выполняются атомарно относительно конкурентных
// вызовов. Раздельные "проверить" и "записать" намеренно не
// предоставляются: между ними два параллельных повтора одной подписи
// успели бы пройти проверку оба.
type Store interface {
	// Register атомарно регистрирует подпись.
	// Возвращает true, если подпись новая и была записана,
	// false - если она уже встречалась в течение окна.
	// Ошибка означает сбой хранилища: решение о повторе принять нельзя.
	Register(signature string, now time.Time) (bool, error)

	// Seen сообщает, встречалась ли подпись, не записывая ее.
	// Только для диагностики: в цепочке проверки всегда Register.
	Seen(signature string, now time.Time) (bool, error)

	// Close освобождает ресурсы хранилища и останавливает фоновую уборку.
	Close() error
}

// ErrStoreFull - кэш заполнен, а живых записей для вытеснения нет.
// Досрочное вытеснение живой записи заново открыло бы окно повтора,
// поэтому хранилище отказывает, и запрос завершается серверной ошибкой.
var ErrStoreFull = errors.New("replay cache is full")
