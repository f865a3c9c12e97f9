package auth

import "strings"

// BuildCanonicalString собирает каноническое представление запроса:
// пять полей, соединенных '\n', в фиксированном порядке.
//
//	МЕТОД\nMD5-ТЕЛА-ИЛИ-ПУСТО\nДАТА\nПОЛЬЗОВАТЕЛЬ\nАБСОЛЮТНЫЙ-URI
//
// Метод приводится к верхнему регистру, URI целиком к нижнему -
// включая query-строку, поэтому значения case-чувствительных
// query-параметров тоже сворачиваются. Это зафиксированное поведение
// протокола, менять его нельзя: обе стороны обязаны получать байт в байт
// одинаковую строку, иначе подпись не сойдется никогда.
// Дата и имя пользователя подставляются дословно, как на проводе.
func BuildCanonicalString(method, contentMD5, date, username, uri string) string {
	parts := []string{
		strings.ToUpper(method),
		contentMD5,
		date,
		username,
		strings.ToLower(uri),
	}
	return strings.Join(parts, "\n")
}

// AbsoluteURI восстанавливает абсолютный URI запроса из схемы, хоста и
// request-uri (путь с query-строкой, как они пришли на провод).
// Клиент и сервер обязаны сходиться в этом значении: явный порт или
// слэш на конце пути - уже другой URI и другая подпись.
func AbsoluteURI(scheme, host, requestURI string) string {
	return scheme + "://" + host + requestURI
}
