package apigw

import (
	"context"
	"io"
	"net/http"
)

// ProxiedRequest - это стандартизированное внутреннее представление
// входящего запроса. Создается модулем API Gateway из http.Request.
// Для нижележащих модулей оно read-only: валидатор читает из него
// данные для канонизации, движок маршрутизации - путь и заголовки.
type ProxiedRequest struct {
	// HTTP-метод запроса.
	Method string

	// Путь запроса без query-строки (для маршрутизации).
	Path string

	// Путь с query-строкой, как они пришли на провод.
	// Используется для восстановления абсолютного URI при канонизации:
	// повторное кодирование могло бы изменить байты и сломать подпись.
	RequestURI string

	// Хост из заголовка Host.
	Host string

	// Схема запроса (http или https).
	Scheme string

	// Адрес клиента в виде host:port, как его видит слушающий сокет.
	RemoteAddr string

	// Оригинальные заголовки HTTP-запроса.
	Headers http.Header

	// Буферизованное тело запроса. Тело читается целиком один раз:
	// оно нужно и для проверки целостности, и для пересылки на бэкенд.
	// nil или пустой срез - тела нет.
	Body []byte

	// Идентификатор запроса для сквозной трассировки в логах.
	RequestID string

	// Имя пользователя, подтвержденное аутентификацией.
	// Пустое до успешной проверки.
	Principal string

	// Оригинальный контекст запроса для поддержки таймаутов и отмены.
	Context context.Context
}

// ProxiedResponse - это стандартизированное внутреннее представление
// ответа. Формируется нижележащими модулями и используется API Gateway
// для отправки клиенту.
type ProxiedResponse struct {
	// HTTP-код состояния для отправки клиенту.
	StatusCode int

	// Заголовки для отправки клиенту.
	Headers http.Header

	// Тело ответа. Поток, чтобы не буферизовать большие ответы бэкендов.
	Body io.ReadCloser

	// Ошибка обработки. Если не nil, Body игнорируется, и клиенту
	// уходит стандартное JSON-тело с этим сообщением. Сообщение
	// публичное: внутренние детали остаются в логах.
	Error error
}

// RequestHandler - это интерфейс, который реализует следующий по
// цепочке модуль (Policy & Routing Engine).
type RequestHandler interface {
	// Handle принимает распарсенный запрос, выполняет аутентификацию
	// и маршрутизацию и возвращает ответ, готовый к отправке клиенту.
	Handle(req *ProxiedRequest) *ProxiedResponse
}
