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


package badger

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/rankfuse/core"
	"github.com/poiesic/rankfuse/storage"
	"github.com/poiesic/rankfuse/vecstore"
)

// VectorRepository implements storage.VectorRepository for BadgerDB.
type VectorRepository struct {
	backend *Backend
}

var _ storage.VectorRepository = (*VectorRepository)(nil)

// NewVectorRepository creates a VectorRepository over a backend.
func NewVectorRepository(backend *Backend) (storage.VectorRepository, error) {
	return &VectorRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *VectorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *VectorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutVectorRecords stores records, overwriting existing ones by ID.
func (r *VectorRepository) PutVectorRecords(ctx context.Context, records ...*core.VectorRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		// Serialization stores micros; truncate so round-trips compare equal
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, record := range records {
			key := makeVectorRecordKey(record.Id)

			existing, err := readVectorRecord(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				record.InsertedAt = existing.InsertedAt
			} else if record.InsertedAt.IsZero() {
				record.InsertedAt = now
			}
			record.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalVectorRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetVectorRecord retrieves a record by ID.
func (r *VectorRepository) GetVectorRecord(ctx context.Context, id core.ID) (*core.VectorRecord, error) {
	var result *core.VectorRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readVectorRecord(tx, makeVectorRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteVectorRecords removes records by their IDs. Missing IDs are ignored.
func (r *VectorRepository) DeleteVectorRecords(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeVectorRecordKey(id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ScanVectorRecords visits every stored record.
func (r *VectorRepository) ScanVectorRecords(ctx context.Context, visit func(record *core.VectorRecord) bool) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if !visit(record) {
				return nil
			}
		}
		return nil
	}, false)
}

// readVectorRecord reads a vector record from the transaction.
func readVectorRecord(tx *badger.Txn, key []byte) (*core.VectorRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.VectorRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalVectorRecord(val)
		return unmarshalErr
	})
	return record, err
}

// Store adapts a VectorRepository into a vecstore.Store: documents persist
// as vector records and searches brute-force scan with cosine similarity.
type Store struct {
	repo storage.VectorRepository
}

var _ vecstore.Store = (*Store)(nil)

// NewStore creates a durable vector store over a repository.
func NewStore(repo storage.VectorRepository) *Store {
	return &Store{repo: repo}
}

// Add persists the documents.
func (s *Store) Add(ctx context.Context, docs []vecstore.Document) error {
	records := make([]*core.VectorRecord, 0, len(docs))
	for _, doc := range docs {
		key := doc.ID
		if key == "" {
			key = doc.Text
		}
		records = append(records, &core.VectorRecord{
			Id:       core.IDFromContent(key),
			Key:      doc.ID,
			Text:     doc.Text,
			Vector:   doc.Vector,
			Metadata: doc.Metadata,
		})
	}
	return s.repo.PutVectorRecords(ctx, records...)
}

// Search scans all records, scoring by cosine similarity against the query
// vector, filtered to MinScore, ordered descending, truncated to TopK.
func (s *Store) Search(ctx context.Context, req vecstore.SearchRequest) ([]vecstore.Match, error) {
	if vecstore.IsZeroVector(req.Vector) || req.TopK <= 0 {
		return nil, nil
	}

	var matches []vecstore.Match
	err := s.repo.ScanVectorRecords(ctx, func(record *core.VectorRecord) bool {
		if len(record.Vector) == 0 {
			return true
		}
		score := vecstore.CosineSimilarity(req.Vector, record.Vector)
		if score < req.MinScore {
			return true
		}
		matches = append(matches, vecstore.Match{
			Document: vecstore.Document{
				ID:       record.Key,
				Text:     record.Text,
				Vector:   record.Vector,
				Metadata: record.Metadata,
			},
			Score: score,
		})
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b vecstore.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})
	if len(matches) > req.TopK {
		matches = matches[:req.TopK]
	}
	return matches, nil
}

// Close delegates to the repository.
func (s *Store) Close() error {
	return s.repo.Close()
}
