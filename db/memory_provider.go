package db

import (
	"bytes"
	"sort"
	"sync"
)

// MemoryProvider is an ordered in-memory IterableProvider for tests and ephemeral chains
type MemoryProvider struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{data: make(map[string][]byte)}
}

func (p *MemoryProvider) Get(key []byte) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil, ErrClosed
	}
	value, ok := p.data[string(key)]
	if !ok {
		return nil, nil
	}
	return cloneBytes(value), nil
}

func (p *MemoryProvider) Put(key, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	p.data[string(key)] = cloneBytes(value)
	return nil
}

func (p *MemoryProvider) Has(key []byte) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false, ErrClosed
	}
	_, ok := p.data[string(key)]
	return ok, nil
}

func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// IteratePrefix works on a snapshot taken under the read lock, so the callback may write
func (p *MemoryProvider) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	keys := make([]string, 0, len(p.data))
	for k := range p.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	snapshot := make(map[string][]byte, len(keys))
	for _, k := range keys {
		snapshot[k] = p.data[k]
	}
	p.mu.RUnlock()

	sort.Strings(keys)
	for _, k := range keys {
		if !callback([]byte(k), cloneBytes(snapshot[k])) {
			break
		}
	}
	return nil
}
