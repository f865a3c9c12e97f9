package routing

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// principalEntry хранит ограничитель одного пользователя
type principalEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PrincipalLimiter ограничивает частоту запросов отдельно для каждого
// аутентифицированного пользователя. Размер таблицы ограничен сверху:
// при переполнении вытесняется запись с самой давней активностью.
type PrincipalLimiter struct {
	rps   rate.Limit
	burst int
	max   int

	mu       sync.Mutex
	visitors map[string]*principalEntry

	// Источник времени, подменяется в тестах
	now func() time.Time
}

// NewPrincipalLimiter создает ограничитель из конфигурации
func NewPrincipalLimiter(cfg RateLimitConfig) *PrincipalLimiter {
	return &PrincipalLimiter{
		rps:      rate.Limit(cfg.RequestsPerSecond),
		burst:    cfg.Burst,
		max:      cfg.MaxPrincipals,
		visitors: make(map[string]*principalEntry),
		now:      time.Now,
	}
}

// Allow сообщает, разрешен ли очередной запрос пользователя
func (l *PrincipalLimiter) Allow(principal string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.visitors[principal]
	if !ok {
		if l.max > 0 && len(l.visitors) >= l.max {
			l.evictIdlestLocked()
		}
		entry = &principalEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[principal] = entry
	}
	entry.lastSeen = l.now()

	return entry.limiter.Allow()
}

// Len возвращает количество отслеживаемых пользователей
func (l *PrincipalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// evictIdlestLocked удаляет запись с самой давней активностью.
// Вызывается только под мьютексом.
func (l *PrincipalLimiter) evictIdlestLocked() {
	var idlestKey string
	var idlestSeen time.Time

	for key, entry := range l.visitors {
		if idlestKey == "" || entry.lastSeen.Before(idlestSeen) {
			idlestKey = key
			idlestSeen = entry.lastSeen
		}
	}

	if idlestKey != "" {
		delete(l.visitors, idlestKey)
	}
}
