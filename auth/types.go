package auth

import (
	"errors"
	"time"

	"hmacgw/apigw"
)

// Outcome - итог проверки подлинности одного запроса.
type Outcome int

const (
	// OutcomeRejected - запрос отклонен, причина в Decision.Reason.
	OutcomeRejected Outcome = iota
	// OutcomeAccepted - подлинность запроса подтверждена.
	OutcomeAccepted
)

// RejectReason определяет причину отказа в аутентификации.
// Каждая причина соответствует одному из этапов проверки.
type RejectReason int

const (
	// ReasonNone - отказа не было (запрос принят).
	ReasonNone RejectReason = iota
	// ReasonMissingCredentials - отсутствует заголовок пользователя или Authorization.
	ReasonMissingCredentials
	// ReasonStaleOrFutureRequest - временная метка за пределами допустимого окна.
	ReasonStaleOrFutureRequest
	// ReasonContentIntegrityFailure - тело запроса не прошло проверку целостности.
	ReasonContentIntegrityFailure
	// ReasonUnknownPrincipal - пользователь не найден в хранилище секретов.
	ReasonUnknownPrincipal
	// ReasonSignatureMismatch - вычисленная подпись не совпадает с предоставленной.
	ReasonSignatureMismatch
	// ReasonReplayDetected - эта подпись уже была принята в течение окна действия.
	ReasonReplayDetected
	// ReasonMalformedCanonicalInput - запрос непригоден для канонизации
	// (временная метка не парсится, отсутствует Host и т.п.).
	ReasonMalformedCanonicalInput
)

// String возвращает строковое представление причины отказа.
func (r RejectReason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonMissingCredentials:
		return "MISSING_CREDENTIALS"
	case ReasonStaleOrFutureRequest:
		return "STALE_OR_FUTURE_REQUEST"
	case ReasonContentIntegrityFailure:
		return "CONTENT_INTEGRITY_FAILURE"
	case ReasonUnknownPrincipal:
		return "UNKNOWN_PRINCIPAL"
	case ReasonSignatureMismatch:
		return "SIGNATURE_MISMATCH"
	case ReasonReplayDetected:
		return "REPLAY_DETECTED"
	case ReasonMalformedCanonicalInput:
		return "MALFORMED_CANONICAL_INPUT"
	default:
		return "UNKNOWN"
	}
}

// Decision - результат валидации одного запроса.
// Отказ в аутентификации - это штатный результат, а не ошибка Go:
// error возвращается валидатором только при сбоях инфраструктуры
// (недоступно хранилище секретов или кэш повторов), и такие сбои
// транслируются в 5xx, а не в 401.
type Decision struct {
	// Итог проверки.
	Outcome Outcome

	// Причина отказа. ReasonNone для принятых запросов.
	Reason RejectReason

	// Имя пользователя, как оно было предъявлено в запросе.
	Username string

	// Расхождение клиентских часов с сервером, если метка была разобрана.
	Delta time.Duration

	// Диагностика для оператора. Никогда не попадает в ответ клиенту,
	// если явно не включен режим отладочной диагностики.
	Diagnostic string
}

// Accepted сообщает, принят ли запрос.
func (d Decision) Accepted() bool {
	return d.Outcome == OutcomeAccepted
}

// Инфраструктурные ошибки валидатора. В отличие от отказов они означают,
// что проверку выполнить не удалось, и запрос нельзя ни принять, ни
// квалифицированно отклонить.
var (
	// ErrSecretProvider - сбой обращения к хранилищу секретов.
	ErrSecretProvider = errors.New("secret provider failure")
	// ErrReplayStore - сбой кэша повторов.
	ErrReplayStore = errors.New("replay cache failure")
)

// Authenticator - интерфейс модуля аутентификации.
type Authenticator interface {
	// Validate проверяет подлинность запроса. Decision описывает принятие
	// или мотивированный отказ, error - только сбой инфраструктуры.
	Validate(req *apigw.ProxiedRequest) (Decision, error)
}
