package signer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"hmacgw/auth"
	"hmacgw/secrets"
)

// Ошибки подписания исходящего запроса.
var (
	// ErrNoSecret - для пользователя нет секрета. Подписант отказывает:
	// отправлять неподписанный или подписанный мусором запрос нельзя.
	ErrNoSecret = errors.New("no secret available for username")
	// ErrNoUsername - имя пользователя не задано ни в запросе, ни явно.
	ErrNoUsername = errors.New("username is required")
)

// Signer ставит на исходящий запрос заголовки схемы ApiAuth: имя
// пользователя, временную метку, дайджест тела и подпись. Каноническая
// строка и подпись вычисляются тем же кодом, что и на сервере, -
// расхождение сторон в одном байте означает вечный отказ.
type Signer struct {
	provider secrets.Provider
	scheme   string
	header   string
	now      func() time.Time
}

// New создает подписанта запросов. Провайдер секретов обязателен.
func New(provider secrets.Provider) (*Signer, error) {
	if provider == nil {
		return nil, fmt.Errorf("secret provider is required")
	}
	return &Signer{
		provider: provider,
		scheme:   auth.DefaultScheme,
		header:   auth.HeaderUsername,
		now:      time.Now,
	}, nil
}

// Sign подписывает запрос от имени username, изменяя его заголовки
// на месте. Если заголовок имени пользователя уже установлен, подпись
// вычисляется для него, а аргумент игнорируется.
//
// URL запроса должен быть абсолютным (как у запросов http.Client).
func (s *Signer) Sign(req *http.Request, username string) error {
	if h := req.Header.Get(s.header); h != "" {
		username = h
	}
	if username == "" {
		return ErrNoUsername
	}
	req.Header.Set(s.header, username)

	// Секрет добывается до каких-либо изменений тела: при отказе
	// запрос должен остаться пригодным для диагностики.
	secret, found, err := s.provider.Lookup(s.context(req), username)
	if err != nil {
		return fmt.Errorf("lookup secret: %w", err)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoSecret, username)
	}

	date := s.now().UTC().Format(http.TimeFormat)
	req.Header.Set(auth.HeaderDate, date)

	body, err := bufferBody(req)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}

	// Заголовок дайджеста обязан совпадать с подписываемым значением.
	// Для пустого тела чужой Content-MD5 вырезается: валидатор подставляет
	// в каноническую строку значение заголовка, а подписывается пустое поле.
	contentMD5 := auth.ComputeContentMD5(body)
	if contentMD5 != "" {
		req.Header.Set(auth.HeaderContentMD5, contentMD5)
	} else {
		req.Header.Del(auth.HeaderContentMD5)
	}

	uri := auth.AbsoluteURI(req.URL.Scheme, req.URL.Host, req.URL.RequestURI())
	canonical := auth.BuildCanonicalString(req.Method, contentMD5, date, username, uri)
	signature := auth.ComputeSignature([]byte(secret), canonical)

	req.Header.Set(auth.HeaderAuthorization, auth.FormatAuthorization(s.scheme, signature))
	return nil
}

// bufferBody вычитывает тело запроса и возвращает его байты, оставляя
// Body пригодным для повторного чтения транспортом.
func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}

	req.Body = io.NopCloser(bytes.NewReader(body))
	req.ContentLength = int64(len(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return body, nil
}

func (s *Signer) context(req *http.Request) context.Context {
	if ctx := req.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
