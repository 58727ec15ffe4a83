package retrieval

import (
	"regexp"
	"strings"
)

// Stop words filtered out during keyword extraction
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "what": true, "how": true, "why": true, "when": true,
	"where": true, "which": true, "who": true, "does": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// topKeywords returns up to limit keywords in order of first appearance,
// preferring longer tokens when the query has more than limit candidates.
func topKeywords(query string, limit int) []string {
	tokens := tokenizeAndFilter(query)
	if len(tokens) <= limit {
		return tokens
	}

	// Keep appearance order but drop the shortest tokens first
	candidates := make([]string, len(tokens))
	copy(candidates, tokens)

	for len(candidates) > limit {
		shortest := 0
		for i, tok := range candidates {
			if len(tok) < len(candidates[shortest]) {
				shortest = i
			}
		}
		candidates = append(candidates[:shortest], candidates[shortest+1:]...)
	}

	return candidates
}

// queryComplexity estimates decomposition depth 1..3 from surface features.
func queryComplexity(query string) int {
	depth := 1
	if len(query) > 80 {
		depth++
	}
	if len(strings.Fields(query)) > 12 {
		depth++
	}
	lower := strings.ToLower(query)
	for _, marker := range []string{"compare", "difference", "versus", " vs ", "relationship", "impact of"} {
		if strings.Contains(lower, marker) {
			depth++
			break
		}
	}
	if depth > 3 {
		depth = 3
	}
	return depth
}

var (
	hrefPattern = regexp.MustCompile(`href="([^"]+)"`)
	urlPattern  = regexp.MustCompile(`https?://[^\s"'<>\)\]]+`)
)

// extractURL pulls the first URL out of a document, preferring the explicit
// URL field, then an href attribute, then a bare link in the text.
func extractURL(url, text string) string {
	if url != "" {
		return url
	}
	if m := hrefPattern.FindStringSubmatch(text); len(m) == 2 {
		return m[1]
	}
	return urlPattern.FindString(text)
}

// hostMatchesAny reports whether the URL's host equals or is a subdomain of
// any listed domain.
func hostMatchesAny(rawURL string, domains []string) bool {
	if rawURL == "" || len(domains) == 0 {
		return false
	}
	lower := strings.ToLower(rawURL)
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if strings.Contains(lower, domain) {
			return true
		}
	}
	return false
}
