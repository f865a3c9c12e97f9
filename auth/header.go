package auth

import "strings"

// Имена протокольных заголовков. Фиксированы для совместимости на проводе.
const (
	// HeaderUsername - заголовок с именем пользователя по умолчанию.
	HeaderUsername = "X-ApiAuth-Username"

	// HeaderDate - временная метка запроса в формате RFC 1123.
	HeaderDate = "Date"

	// HeaderContentMD5 - base64 от сырого 16-байтового MD5 тела.
	HeaderContentMD5 = "Content-MD5"

	// HeaderAuthorization - схема и подпись запроса.
	HeaderAuthorization = "Authorization"

	// DefaultScheme - токен схемы аутентификации по умолчанию.
	DefaultScheme = "ApiAuth"
)

// FormatAuthorization собирает значение заголовка Authorization:
// токен схемы, пробел, base64-подпись.
func FormatAuthorization(scheme, signature string) string {
	return scheme + " " + signature
}

// ParseAuthorization разбирает заголовок Authorization и возвращает подпись.
// Токен схемы сравнивается без учета регистра, как предписывает RFC 7235.
// Возвращает ok=false, если заголовок пуст, схема не совпадает или
// параметр подписи отсутствует.
func ParseAuthorization(header, scheme string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return "", false
	}
	if !strings.EqualFold(fields[0], scheme) {
		return "", false
	}
	return fields[1], true
}
