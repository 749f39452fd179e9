package store

import (
	"context"

	"github.com/openkg/loom/internal/rdf"
)

// MemoryStore keeps the snapshot in process memory. Used when no
// persistence backend is configured, and in tests.
type MemoryStore struct {
	triples []rdf.Triple
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Replace(ctx context.Context, triples []rdf.Triple) error {
	m.triples = append([]rdf.Triple(nil), triples...)
	return nil
}

func (m *MemoryStore) LoadAll(ctx context.Context) ([]rdf.Triple, error) {
	return append([]rdf.Triple(nil), m.triples...), nil
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }
