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

import "errors"

// Domain validation errors
var (
	// ErrInvalidRequest indicates a RetrievalRequest failed validation.
	ErrInvalidRequest = errors.New("invalid retrieval request")

	// ErrInvalidMemoryItem indicates a MemoryItem failed validation.
	ErrInvalidMemoryItem = errors.New("invalid memory item")

	// ErrEmptyQuery indicates the Query field is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK indicates a non-positive TopK value.
	ErrInvalidTopK = errors.New("topK must be greater than 0")

	// ErrInvalidDedupeKey indicates an unknown dedupe key mode.
	ErrInvalidDedupeKey = errors.New("invalid dedupe key")

	// ErrEmptyContent indicates the Contents field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")
)
