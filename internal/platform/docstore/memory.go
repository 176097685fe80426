package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

// MemoryStore is an in-process document store. It is the default collaborator
// for tests and for the CLI's offline modes.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Get loads a document copy and recomputes its derived fields.
func (s *MemoryStore) Get(ctx context.Context, id string) (*document.Document, error) {
	s.mu.RLock()
	data, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("docstore: decode %s: %w", id, err)
	}
	document.RecalculateDocument(&doc)
	return &doc, nil
}

// Update writes a document copy.
func (s *MemoryStore) Update(ctx context.Context, id string, doc *document.Document) error {
	document.RecalculateDocument(doc)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("docstore: encode %s: %w", id, err)
	}
	s.mu.Lock()
	s.docs[id] = data
	s.mu.Unlock()
	return nil
}
