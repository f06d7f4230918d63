package store

import (
	"context"
	"sync"
)

// MemoryStore is the in-memory DurableStore used by tests and standalone
// mode. Safe for concurrent use.
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]string

	// FailPuts and FailGets force storage failures for failure-policy tests.
	FailPuts bool
	FailGets bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, namespace, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailGets {
		return "", false, errStoreFailure
	}

	ns, ok := s.namespaces[namespace]
	if !ok {
		return "", false, nil
	}
	val, ok := ns[key]
	return val, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPuts {
		return errStoreFailure
	}

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]string)
		s.namespaces[namespace] = ns
	}
	ns[key] = value
	return nil
}
