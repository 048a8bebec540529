package kv

import (
	"strings"
	"sync"
)

// Memory is an in-process Store. It backs tests and the dry-run CLI.
type Memory struct {
	mu   sync.RWMutex
	data map[string]Value
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]Value)}
}

func (m *Memory) Get(key string) (Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return Value{}, ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(key string, value Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len reports how many keys are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Unavailable is a Store whose every operation fails with ErrUnavailable.
// It stands in for a shared container that could not be opened.
type Unavailable struct{}

func (Unavailable) Get(string) (Value, error)     { return Value{}, ErrUnavailable }
func (Unavailable) Set(string, Value) error       { return ErrUnavailable }
func (Unavailable) Remove(string) error           { return ErrUnavailable }
func (Unavailable) Keys(string) ([]string, error) { return nil, ErrUnavailable }
