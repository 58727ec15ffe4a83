package storage

import (
	"context"

	"github.com/poiesic/rankfuse/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// MemoryRepository manages reinforced memory items, keyed by content hash.
type MemoryRepository interface {
	Repository

	// Reinforce upserts the memory item for the given contents and folds a
	// new reward into its streaming average. The reward function receives
	// the item state as of the enclosing transaction (a fresh item with
	// zero hits on first reinforcement) and returns the reward to fold.
	// Increments HitCount and updates LastUsedAt atomically with the fold.
	// Returns the item after the update.
	Reinforce(ctx context.Context, contents string, reward func(current *core.MemoryItem) float64) (*core.MemoryItem, error)

	// Touch increments the hit count and refreshes LastUsedAt without
	// folding a reward. Returns ErrNotFound if the item doesn't exist.
	Touch(ctx context.Context, id core.ID) error

	// GetMemoryItem retrieves a single item by ID.
	// Returns ErrNotFound if the item doesn't exist.
	GetMemoryItem(ctx context.Context, id core.ID) (*core.MemoryItem, error)

	// GetMemoryItems retrieves multiple items by their IDs.
	// Returns only the items that exist (no error for missing items).
	GetMemoryItems(ctx context.Context, ids ...core.ID) ([]*core.MemoryItem, error)

	// TopByReward returns up to limit items ordered by reward mean
	// descending.
	TopByReward(ctx context.Context, limit int) ([]*core.MemoryItem, error)
}

// VectorRepository persists embedding records for a durable vector store.
type VectorRepository interface {
	Repository

	// PutVectorRecords stores records, overwriting existing records with
	// the same ID. Sets InsertedAt on first write and UpdatedAt always.
	PutVectorRecords(ctx context.Context, records ...*core.VectorRecord) error

	// GetVectorRecord retrieves a record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetVectorRecord(ctx context.Context, id core.ID) (*core.VectorRecord, error)

	// DeleteVectorRecords removes records by their IDs.
	// Missing IDs are ignored.
	DeleteVectorRecords(ctx context.Context, ids ...core.ID) error

	// ScanVectorRecords visits every stored record. Returning false from
	// the visitor stops the scan.
	ScanVectorRecords(ctx context.Context, visit func(record *core.VectorRecord) bool) error
}
