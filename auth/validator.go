package auth

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"hmacgw/apigw"
	"hmacgw/logger"
	"hmacgw/replay"
	"hmacgw/secrets"
)

// Validator проверяет подлинность входящих запросов по схеме ApiAuth.
// Проверка - это цепочка коротких этапов, каждый из которых может
// оборвать ее отказом: заголовки -> временная метка -> целостность тела ->
// поиск секрета -> сравнение подписей -> проверка повтора. Первый
// несработавший этап определяет причину отказа.
//
// Кэш повторов и хранилище секретов передаются снаружи: валидатор не
// владеет глобальным состоянием, его можно собирать в тестах с
// подменными зависимостями.
type Validator struct {
	config  Config
	secrets secrets.Provider
	replay  replay.Store
	now     func() time.Time
	metrics *Metrics
}

// NewValidator создает валидатор запросов.
func NewValidator(cfg Config, provider secrets.Provider, store replay.Store) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid auth config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("secret provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("replay store is required")
	}

	return &Validator{
		config:  cfg,
		secrets: provider,
		replay:  store,
		now:     time.Now,
		metrics: NewMetrics(),
	}, nil
}

// Validate выполняет полную проверку подлинности одного запроса.
// Отказ - это Decision с причиной, а не ошибка. Ненулевой error означает
// сбой инфраструктуры (хранилище секретов, кэш повторов): проверка не
// состоялась, и вызывающий обязан ответить 5xx, а не 401.
//
// Кэш повторов затрагивается в последнюю очередь и только после
// совпадения подписей: во-первых, критическая секция остается короткой
// и не накрывает обращение к хранилищу секретов, во-вторых, кэш не
// узнает подписи, сочиненные злоумышленником.
func (v *Validator) Validate(req *apigw.ProxiedRequest) (Decision, error) {
	start := time.Now()
	logger.Debug("Starting authentication for %s %s", req.Method, req.Path)

	// 1. HeaderCheck: имя пользователя и Authorization с нашей схемой.
	username := req.Headers.Get(v.config.UsernameHeader)
	if username == "" {
		return v.reject(start, Decision{
			Reason:     ReasonMissingCredentials,
			Diagnostic: "username header is missing",
		}), nil
	}

	signature, ok := ParseAuthorization(req.Headers.Get(HeaderAuthorization), v.config.Scheme)
	if !ok {
		return v.reject(start, Decision{
			Reason:     ReasonMissingCredentials,
			Username:   username,
			Diagnostic: "authorization header is missing or malformed",
		}), nil
	}

	// 2. TimestampCheck: метка присутствует, парсится и лежит в окне.
	// В каноническую строку значение заголовка подставляется дословно,
	// парсинг нужен только для проверки свежести.
	dateHeader := req.Headers.Get(HeaderDate)
	if dateHeader == "" {
		return v.reject(start, Decision{
			Reason:     ReasonMalformedCanonicalInput,
			Username:   username,
			Diagnostic: "date header is missing",
		}), nil
	}

	ts, err := http.ParseTime(dateHeader)
	if err != nil {
		return v.reject(start, Decision{
			Reason:     ReasonMalformedCanonicalInput,
			Username:   username,
			Diagnostic: fmt.Sprintf("date header does not parse: %v", err),
		}), nil
	}

	now := v.now()
	delta := ts.Sub(now)
	if absDuration(delta) > v.config.Window {
		// Граница включающая: метка ровно в now-Window или now+Window
		// еще принимается.
		return v.reject(start, Decision{
			Reason:     ReasonStaleOrFutureRequest,
			Username:   username,
			Delta:      delta,
			Diagnostic: fmt.Sprintf("timestamp is %s away from server time, window is %s", delta, v.config.Window),
		}), nil
	}

	// 3. DigestCheck: для непустого тела media-тип должен быть разрешен,
	// а объявленный дайджест - совпадать с пересчитанным.
	declaredMD5 := req.Headers.Get(HeaderContentMD5)
	if len(req.Body) > 0 {
		mediaType, _, err := mime.ParseMediaType(req.Headers.Get("Content-Type"))
		if err != nil || !v.config.mediaTypeAllowed(mediaType) {
			return v.reject(start, Decision{
				Reason:     ReasonContentIntegrityFailure,
				Username:   username,
				Delta:      delta,
				Diagnostic: fmt.Sprintf("media type %q is not allowed for signed bodies", req.Headers.Get("Content-Type")),
			}), nil
		}

		if declaredMD5 == "" {
			return v.reject(start, Decision{
				Reason:     ReasonContentIntegrityFailure,
				Username:   username,
				Delta:      delta,
				Diagnostic: "content digest header is required for a non-empty body",
			}), nil
		}

		if computed := ComputeContentMD5(req.Body); computed != declaredMD5 {
			return v.reject(start, Decision{
				Reason:     ReasonContentIntegrityFailure,
				Username:   username,
				Delta:      delta,
				Diagnostic: "declared content digest does not match the body",
			}), nil
		}
	}

	// 4. SecretLookup: внешний вызов, выполняется до обращения к кэшу
	// повторов, чтобы не держать его критическую секцию.
	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}
	secret, found, err := v.secrets.Lookup(ctx, username)
	if err != nil {
		return v.fail(start, fmt.Errorf("%w: %v", ErrSecretProvider, err))
	}
	if !found {
		return v.reject(start, Decision{
			Reason:     ReasonUnknownPrincipal,
			Username:   username,
			Delta:      delta,
			Diagnostic: "no secret registered for this username",
		}), nil
	}

	// 5. SignatureCompare: восстановить каноническую строку и сравнить
	// подписи за константное время.
	if req.Host == "" {
		return v.reject(start, Decision{
			Reason:     ReasonMalformedCanonicalInput,
			Username:   username,
			Delta:      delta,
			Diagnostic: "host is missing, absolute URI cannot be reconstructed",
		}), nil
	}

	uri := AbsoluteURI(req.Scheme, req.Host, req.RequestURI)
	canonical := BuildCanonicalString(req.Method, declaredMD5, dateHeader, username, uri)
	logger.Debug("Reconstructed canonical string:\n%s", canonical)

	expected := ComputeSignature([]byte(secret), canonical)
	logger.Debug("Client signature:   %s", signature)
	logger.Debug("Expected signature: %s", expected)

	if !SignatureEqual(signature, expected) {
		return v.reject(start, Decision{
			Reason:     ReasonSignatureMismatch,
			Username:   username,
			Delta:      delta,
			Diagnostic: "computed signature does not match the provided one",
		}), nil
	}

	// 6. ReplayCheck: атомарная проверка-и-запись. Запись появляется
	// только на принятом запросе.
	fresh, err := v.replay.Register(signature, now)
	if err != nil {
		return v.fail(start, fmt.Errorf("%w: %v", ErrReplayStore, err))
	}
	if !fresh {
		return v.reject(start, Decision{
			Reason:     ReasonReplayDetected,
			Username:   username,
			Delta:      delta,
			Diagnostic: "this signature has already been accepted within the validity window",
		}), nil
	}

	logger.Debug("Authentication successful for user: %s", username)

	latency := time.Since(start).Seconds()
	v.metrics.RequestsTotal.WithLabelValues("accepted").Inc()
	v.metrics.Latency.WithLabelValues("accepted").Observe(latency)

	return Decision{
		Outcome:  OutcomeAccepted,
		Reason:   ReasonNone,
		Username: username,
		Delta:    delta,
	}, nil
}

// reject оформляет отказ: метрики, отладочный лог, итоговое решение.
func (v *Validator) reject(start time.Time, d Decision) Decision {
	d.Outcome = OutcomeRejected

	latency := time.Since(start).Seconds()
	v.metrics.RequestsTotal.WithLabelValues("rejected").Inc()
	v.metrics.RejectionsTotal.WithLabelValues(d.Reason.String()).Inc()
	v.metrics.Latency.WithLabelValues("rejected").Observe(latency)

	logger.Debug("Authentication rejected: %s (%s)", d.Reason, d.Diagnostic)
	return d
}

// fail оформляет сбой инфраструктуры.
func (v *Validator) fail(start time.Time, err error) (Decision, error) {
	latency := time.Since(start).Seconds()
	v.metrics.RequestsTotal.WithLabelValues("error").Inc()
	v.metrics.Latency.WithLabelValues("error").Observe(latency)

	logger.Error("Authentication infrastructure failure: %v", err)
	return Decision{}, err
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
