package script

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// It is the zero-configuration default and the testing backend.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string]Document
	now  func() time.Time
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]Document),
		now:  time.Now,
	}
}

// Create implements [Store.Create].
func (s *MemStore) Create(ctx context.Context, doc Document) (Document, error) {
	if doc.ID == "" {
		id, err := generateID()
		if err != nil {
			return Document{}, fmt.Errorf("script: generate id: %w", err)
		}
		doc.ID = id
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return Document{}, ErrDuplicateID
	}

	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	s.docs[doc.ID] = doc
	return doc, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Document, 0, len(s.docs))
	for _, d := range s.docs {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// Update implements [Store.Update].
func (s *MemStore) Update(ctx context.Context, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.docs[doc.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title = doc.Title
	cur.Text = doc.Text
	cur.UpdatedAt = s.now()
	s.docs[doc.ID] = cur
	return nil
}

// Delete implements [Store.Delete].
func (s *MemStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// generateID produces a random 16-byte hex string using crypto/rand.
func generateID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
