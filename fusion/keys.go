package fusion

import (
	"net/url"
	"strings"
)

// Tracking query parameters stripped during canonicalization
var trackingParams = map[string]bool{
	"gclid":    true,
	"fbclid":   true,
	"msclkid":  true,
	"mc_cid":   true,
	"mc_eid":   true,
	"igshid":   true,
	"yclid":    true,
	"wbraid":   true,
	"gbraid":   true,
	"ref_src":  true,
	"spm":      true,
	"trk":      true,
	"_hsenc":   true,
	"_hsmi":    true,
	"oly_enc":  true,
	"vero_id":  true,
}

// CanonicalKey derives a stable dedup key from a document identifier.
//
// URL identifiers are normalized: scheme and host lowercased, fragment and
// tracking parameters dropped, trailing slash trimmed. Everything else is
// trimmed and lowercased. An empty identifier yields an empty key; callers
// treat that as "no identity" and drop the document from fusion.
func CanonicalKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	if strings.Contains(id, "://") {
		if key, ok := canonicalURL(id); ok {
			return key
		}
	}

	return strings.ToLower(id)
}

func canonicalURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for param := range q {
			lower := strings.ToLower(param)
			if trackingParams[lower] || strings.HasPrefix(lower, "utm_") {
				q.Del(param)
			}
		}
		u.RawQuery = q.Encode()
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), true
}
