// Package memory keeps published documents in-memory for dry runs and tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JakeFAU/lunchmenu/internal/menu"
)

// Publisher stores documents in-memory and returns pseudo URIs.
type Publisher struct {
	mu     sync.RWMutex
	data   map[string][]byte
	writes int
}

// NewPublisher creates a new in-memory publisher.
func NewPublisher() *Publisher {
	return &Publisher{
		data: make(map[string][]byte),
	}
}

// Publish stores a copy of document under path.
func (p *Publisher) Publish(_ context.Context, path string, document []byte) (menu.PublishResult, error) {
	if len(document) == 0 {
		return menu.PublishResult{}, &menu.PublishError{Path: path, Op: "verify", Err: errors.New("document is empty (0 bytes)")}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.data[path] = append([]byte(nil), document...)
	p.writes++
	return menu.PublishResult{
		URI:  fmt.Sprintf("memory://%s", path),
		Size: int64(len(document)),
	}, nil
}

// Get returns the document stored under path.
func (p *Publisher) Get(path string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, ok := p.data[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), doc...), true
}

// Writes reports how many documents have been published.
func (p *Publisher) Writes() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.writes
}
