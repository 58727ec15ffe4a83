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


package fusion

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/poiesic/rankfuse/core"
)

// Boost multipliers stay inside this band so a single policy can never
// flip the overall ranking on its own.
const (
	boostFloor = 0.5
	boostCeil  = 1.5
)

// BoostPolicy adjusts a calibrated score based on document origin.
// Multiplier must return a value in [0.5, 1.5].
type BoostPolicy interface {
	Multiplier(doc *core.RankedDocument) float64
}

// NoBoost leaves every score unchanged.
type NoBoost struct{}

var _ BoostPolicy = NoBoost{}

func (NoBoost) Multiplier(*core.RankedDocument) float64 { return 1.0 }

// AuthorityBoost favors documents from trusted domains and from the caller's
// locale. Explicit domain weights take precedence; otherwise lightweight
// heuristics nudge government and academic hosts up and community forums down.
type AuthorityBoost struct {
	weights map[string]float64
	locale  string // ccTLD suffix, e.g. "de", "fr"; empty disables locale boost
}

var _ BoostPolicy = (*AuthorityBoost)(nil)

// NewAuthorityBoost parses a weight table of the form
// "docs.example.com:1.4,forum.example.com:0.7" and returns the policy.
// An empty table is valid; heuristics still apply.
func NewAuthorityBoost(table, locale string) (*AuthorityBoost, error) {
	weights := make(map[string]float64)
	if table != "" {
		for _, entry := range strings.Split(table, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			idx := strings.LastIndex(entry, ":")
			if idx <= 0 || idx == len(entry)-1 {
				return nil, fmt.Errorf("%w: entry %q", ErrInvalidBoostTable, entry)
			}
			weight, err := strconv.ParseFloat(entry[idx+1:], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %q: %w", ErrInvalidBoostTable, entry, err)
			}
			weights[strings.ToLower(entry[:idx])] = clamp(weight, boostFloor, boostCeil)
		}
	}
	return &AuthorityBoost{
		weights: weights,
		locale:  strings.ToLower(strings.TrimSpace(locale)),
	}, nil
}

// Multiplier returns the boost for a document, always inside [0.5, 1.5].
func (b *AuthorityBoost) Multiplier(doc *core.RankedDocument) float64 {
	host := hostOf(doc.URL)
	if host == "" {
		return 1.0
	}

	// Exact or parent-domain table match wins over heuristics
	if w, ok := b.lookup(host); ok {
		return w
	}

	m := 1.0
	switch {
	case strings.HasSuffix(host, ".gov") || strings.Contains(host, ".gov."):
		m += 0.2
	case strings.HasSuffix(host, ".edu") || strings.Contains(host, ".edu."):
		m += 0.2
	case isCommunityHost(host):
		m -= 0.2
	}

	if b.locale != "" && strings.HasSuffix(host, "."+b.locale) {
		m += 0.1
	}

	return clamp(m, boostFloor, boostCeil)
}

func (b *AuthorityBoost) lookup(host string) (float64, bool) {
	if w, ok := b.weights[host]; ok {
		return w, true
	}
	// Walk up the domain hierarchy: a.b.example.com matches example.com
	for {
		idx := strings.Index(host, ".")
		if idx < 0 {
			return 0, false
		}
		host = host[idx+1:]
		if w, ok := b.weights[host]; ok {
			return w, true
		}
	}
}

func isCommunityHost(host string) bool {
	for _, marker := range []string{"reddit.", "stackoverflow.", "forum.", "boards.", "discuss."} {
		if strings.Contains(host, marker) {
			return true
		}
	}
	return false
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if idx := strings.LastIndex(host, ":"); idx > 0 && !strings.Contains(host, "]") {
		host = host[:idx]
	}
	return host
}
