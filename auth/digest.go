package auth

import (
	"crypto/md5"
	"encoding/base64"
)

// ComputeContentMD5 вычисляет дайджест целостности тела запроса:
// base64 от сырого 16-байтового MD5. Для отсутствующего или пустого тела
// возвращает пустую строку - в канонической строке такое тело
// представляется пустым полем, а не MD5 от пустого ввода.
func ComputeContentMD5(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	sum := md5.Sum(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}
