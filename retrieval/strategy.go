package retrieval

import (
	"context"

	"github.com/poiesic/rankfuse/core"
)

// Strategy is one way of turning a retrieval request into a ranked list.
// Implementations must be safe for concurrent use; a failing strategy
// returns an error and the retriever degrades, it never aborts siblings.
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, req core.RetrievalRequest) ([]*core.RankedDocument, error)
}

// WebResult is a single hit from a web search backend.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
	Score   float64
}

// WebProvider abstracts the web search backend. Crawling and HTTP live
// behind this interface; the retrieval logic only sees ranked results.
type WebProvider interface {
	Search(ctx context.Context, query string, topK int) ([]WebResult, error)
}

// webDocs converts provider hits into ranked documents for a source list.
func webDocs(results []WebResult, source string) []*core.RankedDocument {
	docs := make([]*core.RankedDocument, 0, len(results))
	for i, r := range results {
		score := r.Score
		if score == 0 {
			// Backends without native scores degrade to reciprocal position
			score = 1.0 / float64(i+1)
		}
		docs = append(docs, &core.RankedDocument{
			Id:       r.URL,
			Title:    r.Title,
			Snippet:  r.Snippet,
			Source:   source,
			URL:      r.URL,
			RawScore: score,
		})
	}
	return docs
}
