package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenizeAndFilter(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "stop words removed",
			input: "What is the capital of France?",
			want:  []string{"capital", "france"},
		},
		{
			name:  "punctuation trimmed",
			input: "hello, world! (really)",
			want:  []string{"hello", "world", "really"},
		},
		{
			name:  "empty input",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenizeAndFilter(tt.input))
		})
	}
}

func TestTopKeywords(t *testing.T) {
	t.Run("short query passes through", func(t *testing.T) {
		got := topKeywords("kubernetes networking", 4)
		assert.Equal(t, []string{"kubernetes", "networking"}, got)
	})

	t.Run("drops shortest tokens first, keeps order", func(t *testing.T) {
		got := topKeywords("tune raft consensus leader election timeouts", 3)
		assert.Len(t, got, 3)
		// "tune" and "raft" are shortest and go first
		assert.Equal(t, []string{"consensus", "election", "timeouts"}, got)
	})
}

func TestQueryComplexity(t *testing.T) {
	assert.Equal(t, 1, queryComplexity("what is raft"))
	assert.Equal(t, 2, queryComplexity("compare raft and paxos"))
	assert.Equal(t, 3, queryComplexity(
		"compare the difference between raft and paxos consensus algorithms "+
			"with respect to leader election and log replication guarantees"))
}

func TestExtractURL(t *testing.T) {
	assert.Equal(t, "https://a.example/x", extractURL("https://a.example/x", "ignored"))
	assert.Equal(t, "https://b.example/y", extractURL("", `see <a href="https://b.example/y">here</a>`))
	assert.Equal(t, "https://c.example/z", extractURL("", "plain link https://c.example/z trailing"))
	assert.Equal(t, "", extractURL("", "no links here"))
}

func TestHostMatchesAny(t *testing.T) {
	domains := []string{"golang.org", "Go.dev"}
	assert.True(t, hostMatchesAny("https://pkg.go.dev/sync", domains))
	assert.True(t, hostMatchesAny("https://golang.org/doc", domains))
	assert.False(t, hostMatchesAny("https://example.com", domains))
	assert.False(t, hostMatchesAny("", domains))
}
