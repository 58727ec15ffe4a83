// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"context"
	"fmt"

	"github.com/poiesic/rankfuse/ai"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/vecstore"
)

// Default cosine similarity floor for domain-specific vector search
const defaultDomainSimilarityFloor = 0.3

// VectorStrategy embeds the query and searches a vector store.
type VectorStrategy struct {
	embedder ai.Embedder
	store    vecstore.Store
	name     string
	minScore float64
}

var _ Strategy = (*VectorStrategy)(nil)

// NewVectorStrategy creates the general-purpose vector search strategy.
func NewVectorStrategy(embedder ai.Embedder, store vecstore.Store) (*VectorStrategy, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if store == nil {
		return nil, ErrNilStore
	}
	return &VectorStrategy{
		embedder: embedder,
		store:    store,
		name:     "vector",
	}, nil
}

// NewDomainVectorStrategy creates a vector strategy over a domain-specific
// store with a similarity floor, so weak matches from a narrow corpus do
// not pollute the fused result.
func NewDomainVectorStrategy(embedder ai.Embedder, store vecstore.Store, minScore float64) (*VectorStrategy, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if store == nil {
		return nil, ErrNilStore
	}
	if minScore <= 0 {
		minScore = defaultDomainSimilarityFloor
	}
	return &VectorStrategy{
		embedder: embedder,
		store:    store,
		name:     "vector_domain",
		minScore: minScore,
	}, nil
}

func (s *VectorStrategy) Name() string { return s.name }

func (s *VectorStrategy) Retrieve(ctx context.Context, req core.RetrievalRequest) ([]*core.RankedDocument, error) {
	vector, err := s.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.store.Search(ctx, vecstore.SearchRequest{
		Vector:   vector,
		TopK:     req.TopK,
		MinScore: s.minScore,
		Topic:    req.Topic,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]*core.RankedDocument, 0, len(matches))
	for _, m := range matches {
		docs = append(docs, &core.RankedDocument{
			Id:       m.ID,
			Snippet:  m.Text,
			Source:   s.name,
			URL:      extractURL(m.Metadata["url"], m.Text),
			RawScore: m.Score,
		})
	}
	return docs, nil
}
