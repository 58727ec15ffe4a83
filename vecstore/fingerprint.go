package vecstore

import (
	"fmt"
	"strconv"
)

// Metadata keys used to stamp embedding provenance onto stored documents.
const (
	MetaFingerprint = "emb_fp"
	MetaProvider    = "emb_provider"
	MetaModel       = "emb_model"
	MetaDimensions  = "emb_dim"
)

// Fingerprint identifies the embedding space a vector belongs to. Two
// fingerprints describe the same space only when provider, model and
// dimensions all match exactly.
type Fingerprint struct {
	Provider   string
	Model      string
	Dimensions int
}

// String renders the canonical "provider|model|dimensions" form used for
// exact-equality comparison and metadata stamping.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%s|%s|%d", f.Provider, f.Model, f.Dimensions)
}

// Valid reports whether the fingerprint is fully specified.
func (f Fingerprint) Valid() bool {
	return f.Provider != "" && f.Model != "" && f.Dimensions > 0
}

// Stamp writes the fingerprint into a metadata map, allocating one if needed.
func (f Fingerprint) Stamp(meta map[string]string) map[string]string {
	if meta == nil {
		meta = make(map[string]string, 4)
	}
	meta[MetaFingerprint] = f.String()
	meta[MetaProvider] = f.Provider
	meta[MetaModel] = f.Model
	meta[MetaDimensions] = strconv.Itoa(f.Dimensions)
	return meta
}
