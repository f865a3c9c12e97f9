package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// ComputeSignature вычисляет подпись канонической строки:
// base64 от HMAC-SHA256 с ключом secret над UTF-8 байтами canonical.
// Функция детерминированная и без побочных эффектов.
func ComputeSignature(secret []byte, canonical string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// SignatureEqual сравнивает две подписи за константное время.
// Обычное сравнение строк уязвимо к атаке по времени: злоумышленник
// может подбирать подпись байт за байтом, измеряя задержку отказа.
func SignatureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
