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

	"github.com/poiesic/rankfuse/core"
)

// PlainWebStrategy issues the query directly. When the request restricts
// domains, a first tier keeps only allowlisted hosts and an unrestricted
// second tier kicks in if that leaves nothing.
type PlainWebStrategy struct {
	provider WebProvider
}

var _ Strategy = (*PlainWebStrategy)(nil)

// NewPlainWebStrategy creates the direct web search strategy.
func NewPlainWebStrategy(provider WebProvider) (*PlainWebStrategy, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return &PlainWebStrategy{provider: provider}, nil
}

func (s *PlainWebStrategy) Name() string { return "web" }

func (s *PlainWebStrategy) Retrieve(ctx context.Context, req core.RetrievalRequest) ([]*core.RankedDocument, error) {
	results, err := s.provider.Search(ctx, req.Query, req.TopK)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	if len(req.AllowedDomains) > 0 {
		tier1 := results[:0:0]
		for _, r := range results {
			if hostMatchesAny(r.URL, req.AllowedDomains) {
				tier1 = append(tier1, r)
			}
		}
		if len(tier1) > 0 {
			return webDocs(tier1, s.Name()), nil
		}
		// Tier 2: allowlist starved the result, search the open web
	}

	return webDocs(results, s.Name()), nil
}

// KeywordStrategy extracts salient keywords and searches expanded variants
// of them, merging the hits by URL.
type KeywordStrategy struct {
	provider    WebProvider
	maxVariants int
}

var _ Strategy = (*KeywordStrategy)(nil)

// NewKeywordStrategy creates the keyword expansion strategy.
func NewKeywordStrategy(provider WebProvider) (*KeywordStrategy, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	return &KeywordStrategy{provider: provider, maxVariants: 3}, nil
}

func (s *KeywordStrategy) Name() string { return "web_keyword" }

func (s *KeywordStrategy) Retrieve(ctx context.Context, req core.RetrievalRequest) ([]*core.RankedDocument, error) {
	keywords := topKeywords(req.Query, 4)
	if len(keywords) == 0 {
		return nil, nil
	}

	joined := ""
	for i, kw := range keywords {
		if i > 0 {
			joined += " "
		}
		joined += kw
	}

	variants := []string{joined, joined + " overview"}
	if len(variants) > s.maxVariants {
		variants = variants[:s.maxVariants]
	}

	seen := make(map[string]bool)
	var merged []WebResult
	for _, variant := range variants {
		results, err := s.provider.Search(ctx, variant, req.TopK)
		if err != nil {
			return nil, fmt.Errorf("keyword search %q: %w", variant, err)
		}
		for _, r := range results {
			key := r.URL
			if key == "" {
				key = r.Snippet
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, r)
		}
	}

	return webDocs(merged, s.Name()), nil
}
