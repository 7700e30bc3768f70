package storage

import (
	"context"
	"sync"
)

// Memory keeps every namespace in process memory. State is lost on restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]string)}
}

func (m *Memory) Scope(namespace string) Storage {
	return &memoryScope{m: m, ns: namespace}
}

func (m *Memory) Close() error { return nil }

type memoryScope struct {
	m  *Memory
	ns string
}

func (s *memoryScope) Get(_ context.Context, key string) (string, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	v, ok := s.m.data[s.ns][key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memoryScope) Set(_ context.Context, entries map[string]string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	ns := s.m.data[s.ns]
	if ns == nil {
		ns = make(map[string]string, len(entries))
		s.m.data[s.ns] = ns
	}
	for k, v := range entries {
		ns[k] = v
	}
	return nil
}

func (s *memoryScope) Remove(_ context.Context, keys ...string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	ns := s.m.data[s.ns]
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(s.m.data, s.ns)
	}
	return nil
}

func (s *memoryScope) SetIfAbsent(_ context.Context, key, value string) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()

	ns := s.m.data[s.ns]
	if ns == nil {
		ns = make(map[string]string)
		s.m.data[s.ns] = ns
	}
	if existing, ok := ns[key]; ok {
		return existing, nil
	}
	ns[key] = value
	return value, nil
}
