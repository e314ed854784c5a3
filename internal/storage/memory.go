package storage

import (
	"context"
	"sync"
)

// Memory is a map-backed KV used in tests. FailReads/FailWrites, when set,
// are returned from the corresponding operations to exercise error paths.
type Memory struct {
	mu   sync.Mutex
	data map[string]string

	FailReads  error
	FailWrites error
}

func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return "", m.FailReads
	}
	v, ok := m.data[key]
	if !ok {
		return "", ErrNoValue
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	delete(m.data, key)
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data = map[string]string{}
	return nil
}
