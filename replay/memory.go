package replay

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"hmacgw/logger"
)

// MemoryStore - кэш повторов в памяти процесса: карта подписей плюс
// список в порядке вставки. Устаревшие записи вытесняются лениво при
// каждой операции и, если настроено, фоновой уборкой - память не растет
// бесконечно даже при простое.
type MemoryStore struct {
	ttl      time.Duration
	capacity int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // порядок вставки, старые в голове

	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	metrics   *Metrics
}

type memoryEntry struct {
	signature string
	seenAt    time.Time
}

// NewMemoryStore создает кэш в памяти. При sweepInterval > 0 запускается
// фоновая уборка, которую останавливает Close.
func NewMemoryStore(ttl time.Duration, capacity int, sweepInterval time.Duration) (*MemoryStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("replay ttl must be positive")
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	s := &MemoryStore{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
		metrics:  NewMetrics(),
	}

	if sweepInterval > 0 {
		s.stopChan = make(chan struct{})
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}

	return s, nil
}

// Register атомарно регистрирует подпись. Реализует интерфейс Store.
func (s *MemoryStore) Register(signature string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked(now)

	if _, exists := s.entries[signature]; exists {
		s.metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}

	if s.order.Len() >= s.capacity {
		// Все записи еще живы. Вытеснять их нельзя - это заново открыло бы
		// окно повтора для вытесненной подписи.
		s.metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return false, ErrStoreFull
	}

	elem := s.order.PushBack(memoryEntry{signature: signature, seenAt: now})
	s.entries[signature] = elem

	s.metrics.RegistrationsTotal.WithLabelValues("fresh").Inc()
	s.metrics.Entries.Set(float64(s.order.Len()))
	return true, nil
}

// Seen сообщает, встречалась ли подпись. Реализует интерфейс Store.
func (s *MemoryStore) Seen(signature string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked(now)
	_, exists := s.entries[signature]
	return exists, nil
}

// Len возвращает текущее количество записей.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Close останавливает фоновую уборку. Реализует интерфейс Store.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
			s.wg.Wait()
		}
	})
	return nil
}

// evictExpiredLocked вытесняет записи, прожившие полный TTL.
// Список упорядочен по времени вставки, поэтому достаточно снимать голову.
// Вызывается только под mu.
func (s *MemoryStore) evictExpiredLocked(now time.Time) {
	cutoff := now.Add(-s.ttl)
	evicted := 0
	for {
		front := s.order.Front()
		if front == nil {
			break
		}
		e := front.Value.(memoryEntry)
		if !e.seenAt.Before(cutoff) {
			break
		}
		s.order.Remove(front)
		delete(s.entries, e.signature)
		evicted++
	}
	if evicted > 0 {
		s.metrics.EvictionsTotal.Add(float64(evicted))
		s.metrics.Entries.Set(float64(s.order.Len()))
	}
}

// sweepLoop периодически вытесняет устаревшие записи, чтобы память
// освобождалась и без входящего трафика.
func (s *MemoryStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			before := s.order.Len()
			s.evictExpiredLocked(s.now())
			after := s.order.Len()
			s.mu.Unlock()

			s.metrics.SweepsTotal.Inc()
			if before != after {
				logger.Debug("Replay sweep evicted %d entries, %d remain", before-after, after)
			}
		case <-s.stopChan:
			return
		}
	}
}
