package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Provenance labels attached to fused evidence.
const (
	// ProvenanceOfficial marks evidence whose URL matches a configured official domain.
	ProvenanceOfficial = "OFFICIAL"
	// ProvenanceCommunity marks everything else.
	ProvenanceCommunity = "COMMUNITY"
)

// Dedupe key modes for retrieval requests.
const (
	DedupeKeyText = "text"
	DedupeKeyURL  = "url"
	DedupeKeyHash = "hash"
)

// RankedDocument is a single evidence candidate flowing through retrieval and fusion.
// RawScore carries the source's native score; Score holds the calibrated value and
// FusedScore the cross-source fusion result.
type RankedDocument struct {
	Id           string
	CanonicalKey string
	Title        string
	Snippet      string
	Source       string // source list identifier, e.g. "web", "vector", "kg"
	URL          string
	RawScore     float64
	Score        float64 // calibrated, boost applied
	Rank         int     // 1-based rank within its source list
	FusedScore   float64
	Provenance   string
}

// FusionWeights maps source identifiers to their fusion weight.
// A nil or empty map means every source fuses with weight 1.0.
type FusionWeights map[string]float64

// DefaultFusionWeights returns the standard three-source weighting.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{"web": 1.0, "vector": 1.0, "kg": 1.0}
}

// Weight returns the weight for a source, defaulting to 1.0 for unknown sources.
func (w FusionWeights) Weight(source string) float64 {
	if w == nil {
		return 1.0
	}
	if v, ok := w[source]; ok {
		return v
	}
	return 1.0
}

// RetrievalRequest describes a hybrid retrieval invocation.
type RetrievalRequest struct {
	Query           string
	TopK            int
	Topic           string   // routing hint for federated vector stores
	AllowedDomains  []string // tier-1 web search restriction
	OfficialDomains []string // provenance tagging
	MaxParallel     int      // concurrent strategies, 0 means default
	DedupeKey       string   // "text", "url" or "hash"; empty means "text"
}

// MemoryItem is a reinforced evidence memory. RewardMean is a streaming average
// over all rewards observed for the item; HitCount is the observation count.
type MemoryItem struct {
	Id         ID
	Contents   string
	HitCount   int64
	RewardMean float64
	CreatedAt  time.Time // when the content was first reinforced
	LastUsedAt time.Time // last reinforcement or touch
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// VectorRecord is the persisted form of an embedded document in a vector store.
type VectorRecord struct {
	Id         ID
	Key        string // document key, unique within a store
	Text       string
	Vector     []float32
	Metadata   map[string]string
	InsertedAt time.Time
	UpdatedAt  time.Time
}
