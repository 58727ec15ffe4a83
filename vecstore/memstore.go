package vecstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/poiesic/rankfuse/core"
)

// MemoryStore is an in-memory Store backed by a brute-force cosine scan.
// It serves tests and small corpora; persistent deployments use the
// Badger-backed store.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]Document
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

// Add stores documents, deriving a content-hash ID for documents without one.
func (s *MemoryStore) Add(_ context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = fmt.Sprintf("%016x", uint64(core.IDFromContent(doc.Text)))
		}
		// Copy metadata so later caller mutation cannot leak in
		if doc.Metadata != nil {
			meta := make(map[string]string, len(doc.Metadata))
			for k, v := range doc.Metadata {
				meta[k] = v
			}
			doc.Metadata = meta
		}
		s.docs[doc.ID] = doc
	}
	return nil
}

// Search scans all documents and returns the TopK most similar.
func (s *MemoryStore) Search(_ context.Context, req SearchRequest) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if req.TopK <= 0 || len(req.Vector) == 0 {
		return nil, nil
	}

	var matches []Match
	for _, doc := range s.docs {
		score := CosineSimilarity(req.Vector, doc.Vector)
		if score >= req.MinScore {
			matches = append(matches, Match{Document: doc, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return matches, nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Close marks the store closed; subsequent operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
