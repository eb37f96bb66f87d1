// Package memory stores assembled documents in-memory for development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fixwire/fixharvest/internal/harvest"
)

const defaultName = "fix_code_sets.json"

// Store keeps rendered documents in-memory and returns pseudo URIs.
type Store struct {
	name string

	mu   sync.RWMutex
	docs map[string][]byte
}

// New creates an in-memory document store. When name is empty the canonical
// document name is used.
func New(name string) *Store {
	if name == "" {
		name = defaultName
	}
	return &Store{
		name: name,
		docs: make(map[string][]byte),
	}
}

// Save renders the document as indented JSON and keeps it in memory.
func (s *Store) Save(_ context.Context, doc *harvest.Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[s.name] = data
	return fmt.Sprintf("memory://%s", s.name), nil
}

// Document returns the rendered bytes stored under name, if any.
func (s *Store) Document(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}
