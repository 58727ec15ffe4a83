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


package retrieval

import "errors"

var (
	// ErrNilProvider indicates a nil web search provider was supplied.
	ErrNilProvider = errors.New("web provider cannot be nil")

	// ErrNilEmbedder indicates a nil embedder was supplied.
	ErrNilEmbedder = errors.New("embedder cannot be nil")

	// ErrNilStore indicates a nil vector store was supplied.
	ErrNilStore = errors.New("vector store cannot be nil")

	// ErrNoStrategies indicates a retriever was created without strategies.
	ErrNoStrategies = errors.New("retriever requires at least one strategy")
)
