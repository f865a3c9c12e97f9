package replay

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"hmacgw/logger"
)

// Префиксы ключей. Запись хранится дважды: по подписи для быстрой
// проверки и по времени вставки для уборки диапазоном.
const (
	sigKeyPrefix  = "sig:"
	seenKeyPrefix = "seen:"
)

// LevelDBStore - кэш повторов на LevelDB. Переживает перезапуск процесса:
// принятая подпись остается отклоняемой до конца своего TTL даже после
// рестарта шлюза. Регистрация сериализуется мьютексом - проверка и запись
// обязаны быть атомарными относительно конкурентных вызовов.
type LevelDBStore struct {
	mu  sync.Mutex
	db  *leveldb.DB
	ttl time.Duration

	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	metrics   *Metrics
}

// NewLevelDBStore открывает (или создает) базу по указанному пути.
// При sweepInterval > 0 запускается фоновая уборка устаревших записей.
func NewLevelDBStore(path string, ttl time.Duration, sweepInterval time.Duration) (*LevelDBStore, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("replay ttl must be positive")
	}
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("leveldb path required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve leveldb path: %w", err)
	}
	db, err := leveldb.OpenFile(abs, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb replay store: %w", err)
	}

	s := &LevelDBStore{
		db:      db,
		ttl:     ttl,
		now:     time.Now,
		metrics: NewMetrics(),
	}

	if sweepInterval > 0 {
		s.stopChan = make(chan struct{})
		s.wg.Add(1)
		go s.sweepLoop(sweepInterval)
	}

	return s, nil
}

// Register атомарно регистрирует подпись. Реализует интерфейс Store.
func (s *LevelDBStore) Register(signature string, now time.Time) (bool, error) {
	if signature == "" {
		return false, fmt.Errorf("empty signature")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sigKey := []byte(sigKeyPrefix + signature)
	has, err := s.db.Has(sigKey, nil)
	if err != nil {
		s.metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("load signature: %w", err)
	}
	if has {
		s.metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return false, nil
	}

	nanos := now.UTC().UnixNano()
	batch := new(leveldb.Batch)
	batch.Put(sigKey, []byte(strconv.FormatInt(nanos, 10)))
	batch.Put([]byte(seenKey(nanos, signature)), nil)
	if err := s.db.Write(batch, nil); err != nil {
		s.metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("record signature: %w", err)
	}

	s.metrics.RegistrationsTotal.WithLabelValues("fresh").Inc()
	return true, nil
}

// Seen сообщает, встречалась ли подпись. Реализует интерфейс Store.
func (s *LevelDBStore) Seen(signature string, now time.Time) (bool, error) {
	has, err := s.db.Has([]byte(sigKeyPrefix+signature), nil)
	if err != nil {
		return false, fmt.Errorf("load signature: %w", err)
	}
	return has, nil
}

// Prune удаляет записи, вставленные раньше cutoff.
func (s *LevelDBStore) Prune(cutoff time.Time) error {
	cutoffKey := []byte(seenKey(cutoff.UTC().UnixNano(), ""))
	iter := s.db.NewIterator(util.BytesPrefix([]byte(seenKeyPrefix)), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	removed := 0
	for iter.Next() {
		if strings.Compare(string(iter.Key()), string(cutoffKey)) >= 0 {
			break
		}
		signature, _, ok := parseSeenKey(iter.Key())
		if !ok {
			continue
		}
		batch.Delete(append([]byte(nil), iter.Key()...))
		batch.Delete([]byte(sigKeyPrefix + signature))
		removed++
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterate seen signatures: %w", err)
	}
	if batch.Len() > 0 {
		if err := s.db.Write(batch, nil); err != nil {
			return fmt.Errorf("prune signatures: %w", err)
		}
		s.metrics.EvictionsTotal.Add(float64(removed))
	}
	return nil
}

// Close останавливает уборку и закрывает базу. Реализует интерфейс Store.
func (s *LevelDBStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
			s.wg.Wait()
		}
		err = s.db.Close()
	})
	return err
}

func (s *LevelDBStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := s.now().Add(-s.ttl)
			if err := s.Prune(cutoff); err != nil {
				logger.Warn("Replay store prune failed: %v", err)
			}
			s.metrics.SweepsTotal.Inc()
		case <-s.stopChan:
			return
		}
	}
}

// seenKey собирает ключ индекса по времени. Десятичные наносекунды
// дополняются нулями до фиксированной ширины, чтобы лексикографический
// порядок ключей совпадал с хронологическим.
func seenKey(nanos int64, signature string) string {
	return fmt.Sprintf("%s%020d:%s", seenKeyPrefix, nanos, signature)
}

func parseSeenKey(key []byte) (string, int64, bool) {
	raw := string(key)
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return "", 0, false
	}
	nanos, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return parts[2], nanos, true
}
