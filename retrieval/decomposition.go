package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/rankfuse/core"
)

const (
	// Hard cap on provider calls per decomposed request
	maxAPICalls = 8

	// Per sub-query fetch size
	perQueryTopK = 8

	// Stop expanding once this many distinct hits have accumulated
	firstHitStop = 3

	decompositionTimeout = 20 * time.Second
)

// DecompositionStrategy breaks a complex query into follow-up sub-queries
// in a self-ask style. Depth is estimated from the query's surface
// complexity; expansion stops early once enough distinct hits accumulate
// or the API call budget runs out.
type DecompositionStrategy struct {
	provider WebProvider
	logger   *slog.Logger
}

var _ Strategy = (*DecompositionStrategy)(nil)

// NewDecompositionStrategy creates the self-ask decomposition strategy.
func NewDecompositionStrategy(provider WebProvider, logger *slog.Logger) (*DecompositionStrategy, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DecompositionStrategy{provider: provider, logger: logger}, nil
}

func (s *DecompositionStrategy) Name() string { return "web_decomposition" }

func (s *DecompositionStrategy) Retrieve(ctx context.Context, req core.RetrievalRequest) ([]*core.RankedDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, decompositionTimeout)
	defer cancel()

	depth := queryComplexity(req.Query)
	queries := s.subQueries(req.Query, depth)

	seen := make(map[string]bool)
	var merged []WebResult
	calls := 0

	for _, q := range queries {
		if calls >= maxAPICalls {
			s.logger.Debug("decomposition call budget exhausted",
				"query", req.Query, "calls", calls)
			break
		}
		if len(seen) >= firstHitStop {
			break
		}

		calls++
		results, err := s.provider.Search(ctx, q, perQueryTopK)
		if err != nil {
			if ctx.Err() != nil {
				return webDocs(merged, s.Name()), fmt.Errorf("decomposition search: %w", ctx.Err())
			}
			// One failing sub-query does not sink the rest
			s.logger.Warn("sub-query failed", "sub_query", q, "error", err)
			continue
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

// subQueries builds the ordered sub-query list: the original query first,
// then keyword-seeded follow-ups, one batch per complexity level.
func (s *DecompositionStrategy) subQueries(query string, depth int) []string {
	queries := []string{query}

	keywords := topKeywords(query, 4)
	if len(keywords) == 0 {
		return queries
	}

	followups := [][]string{
		{"definition", "explained"},
		{"examples", "use cases"},
		{"comparison", "tradeoffs"},
	}

	for level := 0; level < depth && level < len(followups); level++ {
		for i, kw := range keywords {
			suffix := followups[level][i%len(followups[level])]
			queries = append(queries, kw+" "+suffix)
		}
	}

	return queries
}
