package signer

import (
	"fmt"
	"net/http"
)

// Transport - это http.RoundTripper, подписывающий каждый исходящий
// запрос. Оборачивает базовый транспорт:
//
//	client := &http.Client{Transport: signer.NewTransport(s, "dvader", nil)}
//
// Дальше клиентский код работает с обычным http.Client, не зная о схеме.
type Transport struct {
	signer   *Signer
	username string
	base     http.RoundTripper
}

// NewTransport создает подписывающий транспорт. При base == nil
// используется http.DefaultTransport.
func NewTransport(s *Signer, username string, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		signer:   s,
		username: username,
		base:     base,
	}
}

// RoundTrip реализует http.RoundTripper. По контракту интерфейса
// оригинальный запрос не изменяется: подписывается клон.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if req.Body != nil {
		// Clone разделяет Body с оригиналом. Тело все равно вычитывается
		// подписантом целиком, поэтому оригинальному запросу оно уже
		// не понадобится.
		cloned.Body = req.Body
	}

	if err := t.signer.Sign(cloned, t.username); err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}

	return t.base.RoundTrip(cloned)
}
