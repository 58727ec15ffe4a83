// Package retrieval runs multiple search strategies in parallel and fuses
// their ranked lists into one evidence set.
//
// Five strategies cover the usual ground: self-ask style query
// decomposition, keyword expansion, plain web search with a domain
// allowlist, and two vector searches (general and domain-specific with a
// similarity floor). HybridRetriever fans them out on a bounded worker
// pool, tolerates individual strategy failures, Borda-fuses the survivors,
// deduplicates, tags provenance and truncates to the requested size.
// Callers always receive a list; an empty merge yields a sentinel document
// rather than an error.
package retrieval
