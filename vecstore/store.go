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


package vecstore

import "context"

// Document is a unit of embedded text stored in a vector store.
type Document struct {
	ID       string
	Text     string
	Vector   []float32
	Metadata map[string]string
}

// Match is a document with its similarity score for a given query.
type Match struct {
	Document
	Score float64
}

// SearchRequest describes a vector similarity search.
type SearchRequest struct {
	Vector   []float32
	TopK     int
	MinScore float64
	// Topic is a routing hint consumed by federated stores; leaf stores
	// ignore it.
	Topic string
}

// Store is the embedding store abstraction. Implementations must be safe
// for concurrent use.
type Store interface {
	// Add stores documents, overwriting any existing document with the
	// same ID.
	Add(ctx context.Context, docs []Document) error

	// Search returns up to TopK documents ordered by similarity descending,
	// filtered to scores >= MinScore.
	Search(ctx context.Context, req SearchRequest) ([]Match, error)

	// Close releases resources held by the store.
	Close() error
}
