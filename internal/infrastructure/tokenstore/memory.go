// Package tokenstore implements ports.TokenStore on a file, on Redis and in
// memory.
package tokenstore

import (
	"context"
	"sync"

	"github.com/Nathan-Yinka/Project-management-application/internal/application/ports"
)

// Memory keeps the token in process. ChangeExternally plays the role of
// another process writing the same store.
type Memory struct {
	mu       sync.Mutex
	token    string
	watchers map[int]func(string)
	next     int
}

// NewMemory returns a store holding token.
func NewMemory(token string) *Memory {
	return &Memory{token: token, watchers: make(map[int]func(string))}
}

func (m *Memory) Load(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	return m.Save(ctx, "")
}

func (m *Memory) Watch(ctx context.Context, fn func(token string)) error {
	m.mu.Lock()
	id := m.next
	m.next++
	m.watchers[id] = fn
	m.mu.Unlock()
	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}()
	return nil
}

// ChangeExternally stores token and reports it to every watcher.
func (m *Memory) ChangeExternally(token string) {
	m.mu.Lock()
	m.token = token
	fns := make([]func(string), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(token)
	}
}

var _ ports.TokenStore = (*Memory)(nil)
