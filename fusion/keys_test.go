package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{
			name: "empty identifier yields empty key",
			id:   "",
			want: "",
		},
		{
			name: "whitespace-only identifier yields empty key",
			id:   "   ",
			want: "",
		},
		{
			name: "plain text is trimmed and lowercased",
			id:   "  Some Document Title ",
			want: "some document title",
		},
		{
			name: "host is lowercased",
			id:   "https://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "trailing slash is trimmed",
			id:   "https://example.com/path/",
			want: "https://example.com/path",
		},
		{
			name: "fragment is dropped",
			id:   "https://example.com/path#section-2",
			want: "https://example.com/path",
		},
		{
			name: "utm parameters are stripped",
			id:   "https://example.com/path?utm_source=news&utm_medium=email&q=1",
			want: "https://example.com/path?q=1",
		},
		{
			name: "click identifiers are stripped",
			id:   "https://example.com/path?gclid=abc123&fbclid=xyz",
			want: "https://example.com/path",
		},
		{
			name: "meaningful query parameters survive",
			id:   "https://example.com/search?q=rank+fusion&page=2",
			want: "https://example.com/search?page=2&q=rank+fusion",
		},
		{
			name: "malformed URL falls back to text normalization",
			id:   "http://[bad-host/path",
			want: "http://[bad-host/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalKey(tt.id))
		})
	}
}

func TestCanonicalKey_VariantsCollide(t *testing.T) {
	variants := []string{
		"https://example.com/doc",
		"https://example.com/doc/",
		"https://EXAMPLE.com/doc",
		"https://example.com/doc?utm_campaign=launch",
		"https://example.com/doc#intro",
	}

	want := CanonicalKey(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, want, CanonicalKey(v), "variant %q should share the canonical key", v)
	}
}
