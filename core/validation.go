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


package core

import (
	"fmt"
	"time"
)

// ValidateRetrievalRequest validates a RetrievalRequest according to domain rules.
//
// Validation rules:
//   - Query must not be empty
//   - TopK must be positive
//   - DedupeKey, when set, must be one of "text", "url", "hash"
//
// NOT validated (defaulted by the retriever):
//   - MaxParallel (0 means default)
//   - Topic (empty falls through to default routing)
func ValidateRetrievalRequest(req *RetrievalRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	if req.Query == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyQuery)
	}

	if req.TopK <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrInvalidTopK)
	}

	switch req.DedupeKey {
	case "", DedupeKeyText, DedupeKeyURL, DedupeKeyHash:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidRequest, ErrInvalidDedupeKey, req.DedupeKey)
	}

	return nil
}

// ValidateMemoryItem validates a MemoryItem according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - HitCount must not be negative
//   - CreatedAt must not be in the future
func ValidateMemoryItem(item *MemoryItem) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidMemoryItem)
	}

	if item.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryItem, ErrEmptyContent)
	}

	if item.HitCount < 0 {
		return fmt.Errorf("%w: hit count cannot be negative", ErrInvalidMemoryItem)
	}

	if !IsValidTimestamp(item.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidMemoryItem, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
