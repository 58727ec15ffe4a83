package fusion

import (
	"testing"

	"github.com/poiesic/rankfuse/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urlDoc(rawURL string) *core.RankedDocument {
	return &core.RankedDocument{Id: rawURL, URL: rawURL, Source: "web"}
}

func TestNewAuthorityBoost_TableParsing(t *testing.T) {
	t.Run("valid table", func(t *testing.T) {
		b, err := NewAuthorityBoost("docs.example.com:1.4, forum.example.com:0.7", "")
		require.NoError(t, err)
		assert.InDelta(t, 1.4, b.Multiplier(urlDoc("https://docs.example.com/guide")), 1e-12)
		assert.InDelta(t, 0.7, b.Multiplier(urlDoc("https://forum.example.com/thread/1")), 1e-12)
	})

	t.Run("empty table is valid", func(t *testing.T) {
		_, err := NewAuthorityBoost("", "")
		require.NoError(t, err)
	})

	t.Run("missing weight", func(t *testing.T) {
		_, err := NewAuthorityBoost("example.com", "")
		assert.ErrorIs(t, err, ErrInvalidBoostTable)
	})

	t.Run("non-numeric weight", func(t *testing.T) {
		_, err := NewAuthorityBoost("example.com:high", "")
		assert.ErrorIs(t, err, ErrInvalidBoostTable)
	})

	t.Run("weights clamp into band", func(t *testing.T) {
		b, err := NewAuthorityBoost("spam.example.com:0.01,best.example.com:9.9", "")
		require.NoError(t, err)
		assert.Equal(t, 0.5, b.Multiplier(urlDoc("https://spam.example.com/x")))
		assert.Equal(t, 1.5, b.Multiplier(urlDoc("https://best.example.com/x")))
	})
}

func TestAuthorityBoost_Heuristics(t *testing.T) {
	b, err := NewAuthorityBoost("", "")
	require.NoError(t, err)

	assert.InDelta(t, 1.2, b.Multiplier(urlDoc("https://data.census.gov/table")), 1e-12)
	assert.InDelta(t, 1.2, b.Multiplier(urlDoc("https://cs.stanford.edu/paper")), 1e-12)
	assert.InDelta(t, 0.8, b.Multiplier(urlDoc("https://www.reddit.com/r/golang")), 1e-12)
	assert.InDelta(t, 1.0, b.Multiplier(urlDoc("https://www.example.com/page")), 1e-12)
}

func TestAuthorityBoost_Locale(t *testing.T) {
	b, err := NewAuthorityBoost("", "de")
	require.NoError(t, err)

	assert.InDelta(t, 1.1, b.Multiplier(urlDoc("https://www.beispiel.de/seite")), 1e-12)
	assert.InDelta(t, 1.0, b.Multiplier(urlDoc("https://www.example.com/page")), 1e-12)
}

func TestAuthorityBoost_ParentDomainMatch(t *testing.T) {
	b, err := NewAuthorityBoost("example.com:1.3", "")
	require.NoError(t, err)

	assert.InDelta(t, 1.3, b.Multiplier(urlDoc("https://deep.docs.example.com/page")), 1e-12)
}

func TestAuthorityBoost_NoURL(t *testing.T) {
	b, err := NewAuthorityBoost("example.com:1.3", "")
	require.NoError(t, err)

	assert.Equal(t, 1.0, b.Multiplier(&core.RankedDocument{Id: "text-only"}))
}

func TestAuthorityBoost_Band(t *testing.T) {
	// gov host in the caller's locale still stays inside the band
	b, err := NewAuthorityBoost("", "uk")
	require.NoError(t, err)

	m := b.Multiplier(urlDoc("https://www.gov.uk/guidance"))
	assert.GreaterOrEqual(t, m, boostFloor)
	assert.LessOrEqual(t, m, boostCeil)
}
