package workspace

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory Workspace. Files are listed in insertion order.
type Memory struct {
	mu    sync.RWMutex
	order []string
	files map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Add stores a file, replacing any previous content.
func (m *Memory) Add(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.files[name]; !ok {
		m.order = append(m.order, name)
	}

	m.files[name] = append([]byte(nil), data...)
}

func (m *Memory) ListFiles(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.order...), nil
}

func (m *Memory) ReadText(ctx context.Context, name string) (string, error) {
	b, err := m.ReadBytes(ctx, name)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func (m *Memory) ReadBytes(_ context.Context, name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.files[name]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", name, ErrNotExist)
	}

	return append([]byte(nil), b...), nil
}

func (m *Memory) WriteText(_ context.Context, name, content string) error {
	m.Add(name, []byte(content))
	return nil
}
