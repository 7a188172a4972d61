// Package checkpoint persists a single wall clock timestamp across power cycles.
package checkpoint

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Key is the only storage key written by the store.
const Key = "clock_checkpoint"

// MinPlausibleEpoch rejects clocks that were never synchronised (2020-01-01T00:00:00Z).
const MinPlausibleEpoch uint64 = 1577836800

var ErrNotFound = errors.New("key not found")

// Storage is the key/value collaborator the checkpoint lives in.
// Get returns ErrNotFound when the key is absent.
type Storage interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

type Store struct {
	storage Storage
}

func New(storage Storage) *Store {
	return &Store{storage: storage}
}

// Save persists now, overwriting any previous checkpoint. Implausible clocks are ignored.
func (s *Store) Save(now time.Time) error {
	epoch := now.Unix()
	if epoch <= 0 || uint64(epoch) < MinPlausibleEpoch {
		logrus.Debugf("Skip clock checkpoint, implausible epoch %d", epoch)
		return nil
	}
	return s.storage.Put(Key, []byte(strconv.FormatUint(uint64(epoch), 10)))
}

// Restore returns the last saved epoch seconds, if any.
func (s *Store) Restore() (uint64, bool) {
	raw, err := s.storage.Get(Key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.Warnf("Unable to read clock checkpoint: %v", err)
		}
		return 0, false
	}
	epoch, err := strconv.ParseUint(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		logrus.Warnf("Invalid clock checkpoint %q: %v", raw, err)
		return 0, false
	}
	if epoch < MinPlausibleEpoch {
		return 0, false
	}
	return epoch, true
}

// MemoryStorage keeps values in memory. Used in simulation and tests.
type MemoryStorage struct {
	values map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(key string) ([]byte, error) {
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Put(key string, value []byte) error {
	m.values[key] = append([]byte(nil), value...)
	return nil
}
