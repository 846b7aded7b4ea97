package storage

import (
	"fmt"
	"sync"
	"time"

	"github.com/eugenenazirov/seat-allocator/internal/apportion"
)

// DefaultMethod is used when no method was configured.
const DefaultMethod = apportion.DHondt

// Storage provides access to the method applied when a request names none.
type Storage interface {
	GetMethod() (apportion.Method, time.Time, error)
	SetMethod(method apportion.Method) error
}

// MemoryStorage keeps the default method in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu        sync.RWMutex
	method    apportion.Method
	updatedAt time.Time
	clock     func() time.Time
}

// Option configures a MemoryStorage.
type Option func(*MemoryStorage)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *MemoryStorage) {
		s.clock = clock
	}
}

// NewMemoryStorage initialises storage with DefaultMethod.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	s := &MemoryStorage{
		method: DefaultMethod,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updatedAt = s.clock()
	return s
}

// GetMethod returns the current default method and when it was last set.
func (s *MemoryStorage) GetMethod() (apportion.Method, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.method, s.updatedAt, nil
}

// SetMethod validates and stores the default method.
func (s *MemoryStorage) SetMethod(method apportion.Method) error {
	if !method.Valid() {
		return fmt.Errorf("%w: %d", apportion.ErrUnknownMethod, int(method))
	}

	s.mu.Lock()
	s.method = method
	s.updatedAt = s.clock()
	s.mu.Unlock()

	return nil
}
