package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestFusionWeights_Weight(t *testing.T) {
	tests := []struct {
		name    string
		weights FusionWeights
		source  string
		want    float64
	}{
		{
			name:    "nil map defaults to 1.0",
			weights: nil,
			source:  "web",
			want:    1.0,
		},
		{
			name:    "unknown source defaults to 1.0",
			weights: FusionWeights{"web": 0.8},
			source:  "kg",
			want:    1.0,
		},
		{
			name:    "known source uses configured weight",
			weights: FusionWeights{"web": 0.8},
			source:  "web",
			want:    0.8,
		},
		{
			name:    "zero weight is respected",
			weights: FusionWeights{"vector": 0},
			source:  "vector",
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.weights.Weight(tt.source)
			if got != tt.want {
				t.Errorf("Weight(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestDefaultFusionWeights(t *testing.T) {
	w := DefaultFusionWeights()
	for _, source := range []string{"web", "vector", "kg"} {
		if w.Weight(source) != 1.0 {
			t.Errorf("DefaultFusionWeights() weight for %q = %v, want 1.0", source, w.Weight(source))
		}
	}
}
