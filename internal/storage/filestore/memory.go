package filestore

import (
	"context"
	"fmt"
	"sync"
)

// Memory keeps containers in process memory. It backs tests and local
// dry runs; the encoded form is identical to the minio backend's.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Create(ctx context.Context, domain string) (Container, error) {
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	m.mu.Lock()
	_, ok := m.docs[domain]
	m.mu.Unlock()
	if ok {
		return nil, fmt.Errorf("create %q: %w", domain, ErrExists)
	}
	return newContainer(domain, nil, m.store), nil
}

func (m *Memory) Open(ctx context.Context, domain string) (Container, error) {
	m.mu.Lock()
	raw, ok := m.docs[domain]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("open %q: %w", domain, ErrNotExist)
	}
	root, err := unmarshalContainer(raw)
	if err != nil {
		return nil, err
	}
	return newContainer(domain, root, m.store), nil
}

// Domains lists the persisted container domains.
func (m *Memory) Domains() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.docs))
	for domain := range m.docs {
		out = append(out, domain)
	}
	return out
}

func (m *Memory) store(ctx context.Context, domain string, raw []byte) error {
	m.mu.Lock()
	m.docs[domain] = raw
	m.mu.Unlock()
	return nil
}
