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

import "errors"

var (
	// ErrNilStore indicates a nil inner store was supplied to a decorator.
	ErrNilStore = errors.New("store cannot be nil")

	// ErrNoStores indicates a federated store was created without children.
	ErrNoStores = errors.New("federated store requires at least one child store")

	// ErrInvalidFingerprint indicates an incomplete embedding fingerprint.
	ErrInvalidFingerprint = errors.New("fingerprint requires provider, model and dimensions")

	// ErrAllStoresFailed indicates every child store rejected a write.
	ErrAllStoresFailed = errors.New("all child stores failed")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)
